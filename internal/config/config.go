// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"time"
)

// DefaultMainConfig returns the configuration used when no file or env
// override supplies a value.
func DefaultMainConfig() MainConfig {
	return MainConfig{
		LogLevel:   "info",
		WorkingDir: "/var/lib/xg2g",
		BackupDir:  "/var/lib/xg2g/backup",
		CacheDir:   "/var/lib/xg2g/cache",
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
		Streaming: StreamingConfig{
			GracePeriod:         2000 * time.Millisecond,
			ReconnectAttempts:   3,
			ReconnectBaseDelay:  250 * time.Millisecond,
			ReconnectMultiplier: 1.0,
			PersistTee:          false,
			AllowedUpstreamHeaders: []string{
				"Range", "User-Agent", "Accept", "Accept-Encoding", "Icy-MetaData",
			},
		},
		Cache: ResourceCacheConfig{
			CapacityBytes: 512 << 20,
			Dir:           "/var/lib/xg2g/cache",
		},
		HotReload: true,
	}
}

// Validate checks a MainConfig for internal consistency. Failure aborts
// startup, or on hot-reload is logged and event-bused while the prior
// snapshot is retained (7. Error Handling Design, "Config").
func (c MainConfig) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must not be empty")
	}
	if c.WorkingDir == "" {
		return fmt.Errorf("config: working_dir must not be empty")
	}
	if c.Streaming.GracePeriod < 0 {
		return fmt.Errorf("config: streaming.grace_period must not be negative")
	}
	if c.Streaming.ReconnectAttempts < 0 {
		return fmt.Errorf("config: streaming.reconnect_attempts must not be negative")
	}
	if c.Streaming.ReconnectMultiplier <= 0 {
		return fmt.Errorf("config: streaming.reconnect_multiplier must be positive")
	}
	if c.Cache.CapacityBytes < 0 {
		return fmt.Errorf("config: resource_cache.capacity_bytes must not be negative")
	}
	if c.HLSToken.Secret != "" && len(c.HLSToken.Secret) != 16 {
		return fmt.Errorf("config: hls_token.secret must be exactly 16 bytes")
	}
	if c.Outbound.Enabled && len(c.Outbound.Schemes) == 0 {
		return fmt.Errorf("config: outbound.schemes must not be empty when outbound.enabled is true")
	}
	if c.Outbound.Enabled && len(c.Outbound.Hosts) == 0 && len(c.Outbound.CIDRs) == 0 {
		return fmt.Errorf("config: outbound.hosts or outbound.cidrs must name at least one entry when outbound.enabled is true")
	}
	return nil
}

// Validate checks SourcesConfig for internal consistency: every source
// needs a name, at least one input, and a well-formed max_connections.
func (s SourcesConfig) Validate() error {
	seen := make(map[string]bool, len(s.Sources))
	for _, src := range s.Sources {
		if src.Name == "" {
			return fmt.Errorf("config: source with empty name")
		}
		if seen[src.Name] {
			return fmt.Errorf("config: duplicate source name %q", src.Name)
		}
		seen[src.Name] = true
		if len(src.Inputs) == 0 {
			return fmt.Errorf("config: source %q has no inputs", src.Name)
		}
		if src.MaxConnections < 0 {
			return fmt.Errorf("config: source %q has negative max_connections", src.Name)
		}
		for _, in := range src.Inputs {
			if in.Kind != InputM3U && in.Kind != InputXtream {
				return fmt.Errorf("config: source %q input has unknown kind %q", src.Name, in.Kind)
			}
			if in.URL == "" {
				return fmt.Errorf("config: source %q input has empty url", src.Name)
			}
		}
	}
	return nil
}

// Validate checks ApiProxyConfig: usernames unique, positive limits.
func (a ApiProxyConfig) Validate() error {
	if a.Persistence != PersistenceEmbedded && a.Persistence != PersistenceUserDB {
		return fmt.Errorf("config: api_proxy.persistence must be %q or %q", PersistenceEmbedded, PersistenceUserDB)
	}
	if a.Persistence == PersistenceUserDB && a.UserDBPath == "" {
		return fmt.Errorf("config: api_proxy.user_db_path required when persistence is %q", PersistenceUserDB)
	}
	seen := make(map[string]bool, len(a.Users))
	for _, u := range a.Users {
		if u.Username == "" {
			return fmt.Errorf("config: api_proxy user with empty username")
		}
		if seen[u.Username] {
			return fmt.Errorf("config: duplicate api_proxy username %q", u.Username)
		}
		seen[u.Username] = true
		if u.MaxConnections <= 0 {
			return fmt.Errorf("config: api_proxy user %q must have max_connections > 0", u.Username)
		}
	}
	return nil
}

// Validate checks MappingsConfig: target names unique, at least one input.
func (m MappingsConfig) Validate() error {
	seen := make(map[string]bool, len(m.Targets))
	for _, t := range m.Targets {
		if t.Name == "" {
			return fmt.Errorf("config: target with empty name")
		}
		if seen[t.Name] {
			return fmt.Errorf("config: duplicate target name %q", t.Name)
		}
		seen[t.Name] = true
		if len(t.Inputs) == 0 {
			return fmt.Errorf("config: target %q has no inputs", t.Name)
		}
	}
	return nil
}
