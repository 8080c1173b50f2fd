// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package usermgr

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisFanout publishes every Delta as JSON on a Redis pub/sub channel for
// external dashboards. Purely observational: it is never consulted for
// admission decisions, preserving single-process admission authority.
// Connection setup sets DialTimeout and ReadTimeout/WriteTimeout and pings
// on construct.
type RedisFanout struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewRedisFanout dials addr and verifies connectivity with a ping before
// returning, so a misconfigured fan-out fails fast at startup rather than
// silently dropping every delta later.
func NewRedisFanout(addr, password string, db int, channel string, logger zerolog.Logger) (*RedisFanout, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisFanout{client: client, channel: channel, logger: logger}, nil
}

// Notify publishes d on the configured channel. Publish errors are logged
// and swallowed: a fan-out failure must never affect admission.
func (f *RedisFanout) Notify(d Delta) {
	payload, err := json.Marshal(struct {
		Username        string `json:"username"`
		ConnectionCount int    `json:"connection_count"`
		UserCount       int    `json:"user_count"`
	}{d.Username, d.ConnectionCount, d.UserCount})
	if err != nil {
		f.logger.Warn().Err(err).Str("event", "usermgr.fanout_marshal_failed").Msg("failed to marshal delta")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		f.logger.Warn().Err(err).Str("event", "usermgr.fanout_publish_failed").Msg("failed to publish delta")
	}
}

// Close releases the underlying Redis client.
func (f *RedisFanout) Close() error {
	return f.client.Close()
}
