// Package config holds the server settings sent by the client as
// initialization options. Fields missing from the client payload keep
// their defaults.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type Config struct {
	// MaxCompletionItems truncates the merged completion list; the
	// response is then marked incomplete. Zero means no cap.
	MaxCompletionItems int `json:"max_completion_items"`
	// NullForNoCompletions makes the server answer null instead of an
	// empty list when nothing applies at the cursor.
	NullForNoCompletions bool `json:"null_for_no_completions"`
	// TaskCachePath overrides where the task metadata database lives.
	TaskCachePath string `json:"task_cache_path"`
}

var defaultConfig = Config{
	MaxCompletionItems:   200,
	NullForNoCompletions: true,
}

// Load decodes client-provided initialization options over the
// defaults. Only fields present in v overwrite.
func Load(v any) (Config, error) {
	cfg := defaultConfig
	if v == nil {
		return cfg, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Config{}, fmt.Errorf("failed to marshal source: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal into Config: %w", err)
	}

	return cfg, nil
}

// LoadFromJSON reads JSON from r into a Config.
func LoadFromJSON(r io.Reader) (Config, error) {
	cfg := defaultConfig

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// CachePath resolves the task cache location: the configured override,
// or a per-user default under the OS cache directory.
func (c Config) CachePath() (string, error) {
	if c.TaskCachePath != "" {
		return c.TaskCachePath, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve cache directory: %w", err)
	}
	dir := filepath.Join(base, "anvil")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return filepath.Join(dir, "tasks.db"), nil
}
