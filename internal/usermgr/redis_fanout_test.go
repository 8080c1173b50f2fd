// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package usermgr

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func setupMiniRedisFanout(t *testing.T, channel string) (*miniredis.Miniredis, *RedisFanout) {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	if err := mr.Start(); err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	f, err := NewRedisFanout(mr.Addr(), "", 0, channel, zerolog.Nop())
	if err != nil {
		mr.Close()
		t.Fatalf("failed to dial miniredis fanout: %v", err)
	}

	return mr, f
}

func TestRedisFanout_NotifyPublishesDeltaJSON(t *testing.T) {
	mr, f := setupMiniRedisFanout(t, "usermgr.deltas")
	defer mr.Close()
	defer f.Close()

	ctx := context.Background()
	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer sub.Close()

	pubsub := sub.Subscribe(ctx, "usermgr.deltas")
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		t.Fatalf("failed to confirm subscription: %v", err)
	}

	f.Notify(Delta{Username: "alice", ConnectionCount: 2, UserCount: 5})

	select {
	case msg := <-pubsub.Channel():
		if msg.Payload == "" {
			t.Fatal("expected non-empty published payload")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published delta")
	}
}

func TestRedisFanout_NewRedisFanoutFailsFastOnBadAddr(t *testing.T) {
	_, err := NewRedisFanout("127.0.0.1:1", "", 0, "usermgr.deltas", zerolog.Nop())
	if err == nil {
		t.Fatal("expected dial to an unreachable address to fail")
	}
}

func TestRedisFanout_CloseReleasesClient(t *testing.T) {
	mr, f := setupMiniRedisFanout(t, "usermgr.deltas")
	defer mr.Close()

	if err := f.Close(); err != nil {
		t.Errorf("expected clean close, got: %v", err)
	}
}
