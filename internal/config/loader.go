// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadStrictYAML reads path, expands ${env:NAME} references, and decodes
// into dst with KnownFields(true) so an unrecognized key fails the load
// instead of being silently ignored. Multi-document files are rejected.
func loadStrictYAML(path string, dst interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	raw = expandEnvRefs(raw)

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	var extra interface{}
	if err := dec.Decode(&extra); err == nil {
		return fmt.Errorf("parse %s: multiple YAML documents not allowed", path)
	}

	return nil
}

// LoadMainConfig loads and validates the main configuration artifact,
// starting from DefaultMainConfig and overlaying the file's contents.
func LoadMainConfig(path string) (MainConfig, error) {
	cfg := DefaultMainConfig()
	if path != "" {
		if err := loadStrictYAML(path, &cfg); err != nil {
			return MainConfig{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return MainConfig{}, err
	}
	return cfg, nil
}

// LoadSourcesConfig loads and validates the sources artifact.
func LoadSourcesConfig(path string) (SourcesConfig, error) {
	var cfg SourcesConfig
	if err := loadStrictYAML(path, &cfg); err != nil {
		return SourcesConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return SourcesConfig{}, err
	}
	return cfg, nil
}

// LoadApiProxyConfig loads and validates the api-proxy artifact.
func LoadApiProxyConfig(path string) (ApiProxyConfig, error) {
	cfg := ApiProxyConfig{Persistence: PersistenceEmbedded}
	if err := loadStrictYAML(path, &cfg); err != nil {
		return ApiProxyConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return ApiProxyConfig{}, err
	}
	return cfg, nil
}

// LoadMappingsConfig loads and validates the mappings artifact.
func LoadMappingsConfig(path string) (MappingsConfig, error) {
	var cfg MappingsConfig
	if err := loadStrictYAML(path, &cfg); err != nil {
		return MappingsConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return MappingsConfig{}, err
	}
	return cfg, nil
}
