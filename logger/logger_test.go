package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestFromZerolog_ComponentTag(t *testing.T) {
	var buf bytes.Buffer
	lg := FromZerolog(zerolog.New(&buf)).WithComponent("flatmap")

	lg.Info("draining")

	out := buf.String()
	if !strings.Contains(out, `"component":"flatmap"`) {
		t.Errorf("expected component field, got %q", out)
	}
	if !strings.Contains(out, "draining") {
		t.Errorf("expected message, got %q", out)
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	lg := FromZerolog(zerolog.New(&buf)).WithFields(map[string]interface{}{"demand": 5})

	lg.Debug("request")
	if !strings.Contains(buf.String(), `"demand":5`) {
		t.Errorf("expected field in output, got %q", buf.String())
	}
}

func TestFields_PairsToMap(t *testing.T) {
	m := Fields("a", 1, "b", "two")
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestFields_IgnoresDanglingKey(t *testing.T) {
	m := Fields("a", 1, "dangling")
	if len(m) != 1 {
		t.Errorf("expected 1 entry, got %v", m)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Level: "info", Format: "json"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg = Config{Level: "loud", Format: "json"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid level")
	}

	cfg = Config{Level: "info", Format: "xml"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stderr" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
