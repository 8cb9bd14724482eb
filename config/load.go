//go:build !tinygo

package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadConfig parses a JSON configuration and returns a validated BoardConfig
func LoadConfig(jsonData []byte) (*BoardConfig, error) {
	var config BoardConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, fmt.Errorf("parse board config: %w", err)
	}

	// Apply defaults
	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("board %s: %w", config.Name, err)
	}
	return &config, nil
}

// LoadFile reads a JSON board configuration from path.
func LoadFile(path string) (*BoardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read board config: %w", err)
	}
	return LoadConfig(data)
}
