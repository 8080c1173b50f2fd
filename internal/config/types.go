// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// ConfigPaths records where each of the four configuration artifacts was
// loaded from. Swapped independently of their contents so a reload that
// only touches one artifact does not disturb the others' paths.
type ConfigPaths struct {
	ConfigPath string
	SourcePath string
	MappingPath string
	ApiProxyPath string
}

// MainConfig is the top-level, operator-facing configuration artifact.
// It never embeds provider credentials or mapping rules; those live in
// SourcesConfig, ApiProxyConfig, and MappingsConfig respectively.
type MainConfig struct {
	LogLevel string `yaml:"log_level"`

	WorkingDir string `yaml:"working_dir"`
	BackupDir  string `yaml:"backup_dir"`
	CacheDir   string `yaml:"cache_dir"`

	Server ServerConfig `yaml:"server"`

	Streaming StreamingConfig `yaml:"streaming"`
	Cache     ResourceCacheConfig `yaml:"resource_cache"`
	HDHR      HDHRConfig `yaml:"hdhomerun"`
	HLSToken  HLSTokenConfig `yaml:"hls_token"`

	HotReload bool `yaml:"hot_reload"`

	Outbound OutboundConfig `yaml:"outbound"`
}

// OutboundConfig restricts which upstream URLs the ingestion pipeline is
// allowed to fetch from. Disabled by default: a deployment with a fixed,
// trusted set of providers can leave this off, but one that builds source
// URLs from anything resembling external input should enable it and name
// an explicit allowlist.
type OutboundConfig struct {
	Enabled bool     `yaml:"enabled"`
	Hosts   []string `yaml:"hosts"`
	CIDRs   []string `yaml:"cidrs"`
	Ports   []int    `yaml:"ports"`
	Schemes []string `yaml:"schemes"`
}

// ServerConfig describes the HTTP listener that re-serves playlists and
// streams to downstream clients.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	PublicURL  string `yaml:"public_url"`
}

// StreamingConfig controls admission, grace-period, and reconnect behavior
// for the streaming core (component G).
type StreamingConfig struct {
	GracePeriod time.Duration `yaml:"grace_period"`

	ReconnectAttempts   int           `yaml:"reconnect_attempts"`
	ReconnectBaseDelay  time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMultiplier float64       `yaml:"reconnect_multiplier"`

	PersistTee bool `yaml:"persist_tee"`

	FallbackVideoDir string `yaml:"fallback_video_dir"`

	AllowedUpstreamHeaders []string `yaml:"allowed_upstream_headers"`
}

// ResourceCacheConfig configures the LRU resource cache (4.G.6).
type ResourceCacheConfig struct {
	CapacityBytes int64  `yaml:"capacity_bytes"`
	Dir           string `yaml:"dir"`
}

// HDHRConfig configures the HDHomeRun discovery/tuner bridge. Kept thin;
// the bridge itself is out of this spec's core scope.
type HDHRConfig struct {
	Enabled    bool   `yaml:"enabled"`
	DeviceID   string `yaml:"device_id"`
	TunerCount int    `yaml:"tuner_count"`
	FriendlyName string `yaml:"friendly_name"`
}

// HLSTokenConfig configures the per-session HLS token cipher (4.H.1).
type HLSTokenConfig struct {
	// Secret is expanded to a 32-byte AES-256-GCM key via SHA-256.
	Secret string `yaml:"secret"`
}

// SourcesConfig is the second hot-reloadable artifact: upstream provider
// definitions. Fetched and parsed by the ingestion pipeline (4.K).
type SourcesConfig struct {
	Sources []Source `yaml:"sources"`
}

// Source is one upstream provider, possibly exposing both an M3U and an
// Xtream Codes input against the same backend.
type Source struct {
	Name   string  `yaml:"name"`
	Inputs []Input `yaml:"inputs"`

	Priority       int16 `yaml:"priority"`
	MaxConnections int   `yaml:"max_connections"`
	AliasOf        string `yaml:"alias_of,omitempty"`
}

// InputKind selects the wire format an Input speaks.
type InputKind string

const (
	InputM3U     InputKind = "m3u"
	InputXtream  InputKind = "xtream"
)

// Input is one fetchable endpoint of a Source.
type Input struct {
	Kind InputKind `yaml:"kind"`
	URL  string    `yaml:"url"`

	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// Env-substituted at load time: ${env:NAME} in URL/Username/Password.
}

// ApiProxyConfig is the third hot-reloadable artifact: locally-issued
// user credentials and their per-user limits and bouquet allowlist.
type ApiProxyConfig struct {
	Persistence PersistenceMode `yaml:"persistence"`
	UserDBPath  string          `yaml:"user_db_path,omitempty"`

	Users []ApiUser `yaml:"users,omitempty"`
}

// PersistenceMode selects where ApiProxyConfig.Users is the source of truth.
type PersistenceMode string

const (
	PersistenceEmbedded PersistenceMode = "embedded"
	PersistenceUserDB   PersistenceMode = "user_db"
)

// ApiUser is one locally-issued credential.
type ApiUser struct {
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	MaxConnections int      `yaml:"max_connections"`
	Bouquet        []string `yaml:"bouquet,omitempty"`
	Expires        *time.Time `yaml:"expires,omitempty"`
}

// MappingsConfig is the fourth hot-reloadable artifact: per-target output
// definitions and the filter/sort/rename/mapping hooks the ingestion
// pipeline applies, in that order.
type MappingsConfig struct {
	Targets []TargetDef `yaml:"targets"`
}

// TargetDef names a set of rules applied to one or more Sources.Inputs and
// the outputs produced from the result.
type TargetDef struct {
	Name    string   `yaml:"name"`
	Inputs  []string `yaml:"inputs"`
	Outputs []string `yaml:"outputs"`

	// Filter/Sort/Rename/Mapping are opaque DSL expressions. This pipeline
	// only threads them through to an external evaluator; it does not
	// parse or execute them itself.
	Filter  string `yaml:"filter,omitempty"`
	Sort    string `yaml:"sort,omitempty"`
	Rename  string `yaml:"rename,omitempty"`
	Mapping string `yaml:"mapping,omitempty"`
}
