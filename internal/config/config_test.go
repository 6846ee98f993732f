package config_test

import (
	"strings"
	"testing"

	"anvil/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(nil)
	if err != nil {
		t.Fatalf("Load(nil) failed: %v", err)
	}
	if cfg.MaxCompletionItems != 200 {
		t.Errorf("MaxCompletionItems = %d, want 200", cfg.MaxCompletionItems)
	}
	if !cfg.NullForNoCompletions {
		t.Error("NullForNoCompletions should default to true")
	}
}

func TestLoadPartialOverride(t *testing.T) {
	opts := map[string]any{"max_completion_items": 50}
	cfg, err := config.Load(opts)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxCompletionItems != 50 {
		t.Errorf("MaxCompletionItems = %d, want 50", cfg.MaxCompletionItems)
	}
	// Untouched fields keep their defaults.
	if !cfg.NullForNoCompletions {
		t.Error("NullForNoCompletions should keep its default")
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	if _, err := config.Load(func() {}); err == nil {
		t.Error("Load of an unmarshalable value should fail")
	}
}

func TestLoadFromJSON(t *testing.T) {
	r := strings.NewReader(`{"task_cache_path": "/tmp/t.db", "null_for_no_completions": false}`)
	cfg, err := config.LoadFromJSON(r)
	if err != nil {
		t.Fatalf("LoadFromJSON failed: %v", err)
	}
	if cfg.TaskCachePath != "/tmp/t.db" {
		t.Errorf("TaskCachePath = %q", cfg.TaskCachePath)
	}
	if cfg.NullForNoCompletions {
		t.Error("NullForNoCompletions should be overridden to false")
	}
}

func TestCachePathOverride(t *testing.T) {
	cfg := config.Config{TaskCachePath: "/custom/tasks.db"}
	path, err := cfg.CachePath()
	if err != nil {
		t.Fatalf("CachePath failed: %v", err)
	}
	if path != "/custom/tasks.db" {
		t.Errorf("CachePath = %q", path)
	}
}
