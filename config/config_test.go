package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.BufferSize != 128 {
		t.Errorf("expected buffer size 128, got %d", s.BufferSize)
	}
	if s.Concurrency != 8 {
		t.Errorf("expected concurrency 8, got %d", s.Concurrency)
	}
	if s.EmitOnQueueSize != 16 {
		t.Errorf("expected emit-on queue size 16, got %d", s.EmitOnQueueSize)
	}
}

func TestLoad_Defaults(t *testing.T) {
	s, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if s != DefaultSettings() {
		t.Errorf("expected defaults, got %+v", s)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("STREAMKIT_BUFFER_SIZE", "64")
	t.Setenv("STREAMKIT_CONCURRENCY", "4")

	s, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if s.BufferSize != 64 {
		t.Errorf("expected buffer size 64, got %d", s.BufferSize)
	}
	if s.Concurrency != 4 {
		t.Errorf("expected concurrency 4, got %d", s.Concurrency)
	}
	if s.EmitOnQueueSize != 16 {
		t.Errorf("untouched settings keep their defaults, got %d", s.EmitOnQueueSize)
	}
}

func TestLoad_InvalidValueRejected(t *testing.T) {
	t.Setenv("STREAMKIT_BUFFER_SIZE", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected a validation error for buffer_size=0")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "streamkit.yml")
	content := []byte("buffer_size: 32\nemit_on_queue_size: 8\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatal(err)
	}
	if s.BufferSize != 32 {
		t.Errorf("expected buffer size 32, got %d", s.BufferSize)
	}
	if s.EmitOnQueueSize != 8 {
		t.Errorf("expected emit-on queue size 8, got %d", s.EmitOnQueueSize)
	}
}

func TestLoad_MissingConfigFileFails(t *testing.T) {
	if _, err := Load(WithConfigFile("does-not-exist.yml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestRuntime_Override(t *testing.T) {
	original := Runtime()
	defer SetRuntime(original)

	custom := Settings{BufferSize: 10, Concurrency: 2, EmitOnQueueSize: 4}
	SetRuntime(custom)
	if got := Runtime(); got != custom {
		t.Errorf("expected %+v, got %+v", custom, got)
	}
}
