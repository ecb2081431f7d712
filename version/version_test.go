package version

import (
	"strings"
	"testing"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	if info.Version != "dev" {
		t.Errorf("expected dev version by default, got %q", info.Version)
	}
	if info.IsRelease {
		t.Error("dev builds are not releases")
	}
}

func TestGetShortVersion(t *testing.T) {
	short := GetShortVersion()
	if !strings.HasPrefix(short, "dev") {
		t.Errorf("expected dev prefix, got %q", short)
	}
}
