package main

import (
	"testing"
	"time"
)

func TestLoadConfig_FlagsOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ENHANCE_LIMIT", "9")
	t.Setenv("ENHANCE_SIZE", "2048x2048")

	flags := rootCmd.Flags()
	for name, value := range map[string]string{
		"directory": dir,
		"tool":      "/usr/local/bin/image-tool",
		"limit":     "1",
		"delay":     "250ms",
	} {
		if err := flags.Set(name, value); err != nil {
			t.Fatalf("Set(%s) error = %v", name, err)
		}
	}

	cfg, err := loadConfig(rootCmd)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Directory != dir {
		t.Errorf("Directory = %q, want %q", cfg.Directory, dir)
	}
	if cfg.ToolPath != "/usr/local/bin/image-tool" {
		t.Errorf("ToolPath = %q, want flag value", cfg.ToolPath)
	}
	if cfg.Limit != 1 {
		t.Errorf("Limit = %d, want flag value 1 over env 9", cfg.Limit)
	}
	if cfg.Delay != 250*time.Millisecond {
		t.Errorf("Delay = %s, want 250ms", cfg.Delay)
	}
	// Unset flags leave the environment value alone.
	if cfg.Size != "2048x2048" {
		t.Errorf("Size = %q, want env value", cfg.Size)
	}

	if err := flags.Set("limit", "-2"); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(rootCmd); err == nil {
		t.Error("loadConfig() with negative limit error = nil, want validation error")
	}
}
