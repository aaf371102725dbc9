package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Greeting != "Hello" {
		t.Fatalf("default greeting = %q", cfg.Greeting)
	}
	if cfg.Backend != BackendPebble || cfg.Mode != ModeAuto {
		t.Fatalf("backend=%q mode=%q", cfg.Backend, cfg.Mode)
	}
	if cfg.BucketSizePages != 128 {
		t.Fatalf("bucket size default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		file string
		body string
	}{
		{"tally.json", `{"greeting":"Hoi","backend":"bolt","maxPages":64,"log":{"level":"debug"}}`},
		{"tally.yaml", "greeting: Hoi\nbackend: bolt\nmaxPages: 64\nlog:\n  level: debug\n"},
		{"tally.toml", "greeting = \"Hoi\"\nbackend = \"bolt\"\nmaxPages = 64\n[log]\nlevel = \"debug\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if cfg.Greeting != "Hoi" || cfg.Backend != BackendBolt || cfg.MaxPages != 64 {
				t.Fatalf("unexpected cfg %+v", cfg)
			}
			if cfg.Log.Level != "debug" {
				t.Fatalf("log level = %q", cfg.Log.Level)
			}
			// untouched keys keep their defaults
			if cfg.HTTPAddr != ":8080" || cfg.Log.Format != "text" {
				t.Fatalf("defaults lost: %+v", cfg)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("TALLY_GREETING", "Hallo")
	t.Setenv("TALLY_BACKEND", "memory")
	t.Setenv("TALLY_FSYNC_INTERVAL", "20ms")
	t.Setenv("TALLY_LOG_FORMAT", "json")
	if err := FromEnv(&cfg); err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Greeting != "Hallo" || cfg.Backend != BackendMemory {
		t.Fatalf("env override: %+v", cfg)
	}
	if cfg.FsyncInterval != 20*time.Millisecond {
		t.Fatalf("interval = %v", cfg.FsyncInterval)
	}
	if cfg.Log.Format != "json" {
		t.Fatalf("log format = %q", cfg.Log.Format)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unset var changed HTTPAddr to %q", cfg.HTTPAddr)
	}
}

func TestFromEnvBadValue(t *testing.T) {
	cfg := Default()
	t.Setenv("TALLY_MAX_PAGES", "lots")
	if err := FromEnv(&cfg); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateLeavesGreetingToState(t *testing.T) {
	cfg := Default()
	cfg.Greeting = "  "
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad backend", func(c *Config) { c.Backend = "s3" }, "backend"},
		{"bad mode", func(c *Config) { c.Mode = "reinstall" }, "mode"},
		{"bad fsync", func(c *Config) { c.Fsync = "sometimes" }, "fsync"},
		{"zero bucket", func(c *Config) { c.BucketSizePages = 0 }, "bucketSizePages"},
		{"no data dir", func(c *Config) { c.DataDir = "" }, "dataDir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
