// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns the config-file-shaped defaults a bare invocation
// uses, keyed the same way as the on-disk JSON/YAML config file and the
// long-form CLI flags.
func DefaultConfig() map[string]any {
	return map[string]any{
		"cache-dir":           "",
		"connections":         8,
		"max-active":          3,
		"multipart-threshold": "32MiB",
		"verify":              "size",
		"retries":             4,
		"backoff-initial":     "400ms",
		"backoff-max":         "10s",
		"token":               "",
	}
}

// loadConfigMap reads ~/.config/hfdownloader.json or .yaml, JSON taking
// precedence when both exist. It returns nil when neither file exists or
// the one found fails to parse.
func loadConfigMap() map[string]any {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	configDir := filepath.Join(home, ".config")

	jsonPath := filepath.Join(configDir, "hfdownloader.json")
	if data, err := os.ReadFile(jsonPath); err == nil {
		var cfg map[string]any
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil
		}
		return cfg
	}

	yamlPath := filepath.Join(configDir, "hfdownloader.yaml")
	if data, err := os.ReadFile(yamlPath); err == nil {
		var cfg map[string]any
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil
		}
		return cfg
	}

	return nil
}

// loadConfigFile reads the config at path directly (used when --config is
// given explicitly rather than relying on the default search path). JSON is
// tried first, then YAML, matching loadConfigMap's precedence.
func loadConfigFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err == nil {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
