// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/xg2g/internal/config"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func freeListenAddr(t *testing.T) string {
	t.Helper()
	l := httptest.NewUnstartedServer(http.NotFoundHandler()).Listener
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestNewManager_RejectsMissingStreamHandler(t *testing.T) {
	_, err := NewManager(Deps{Logger: testLogger()})
	assert.ErrorIs(t, err, ErrMissingStreamHandler)
}

func TestManager_StartAndShutdown(t *testing.T) {
	cfg := config.DefaultMainConfig()
	cfg.Server.ListenAddr = freeListenAddr(t)

	mgr, err := NewManager(Deps{
		Logger:        testLogger(),
		Config:        cfg,
		StreamHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	})
	require.NoError(t, err)

	var hookCalled bool
	mgr.RegisterShutdownHook("test-hook", func(_ context.Context) error {
		hookCalled = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("manager did not shut down in time")
	}
	assert.True(t, hookCalled)
}

func TestManager_Shutdown_BeforeStartReturnsError(t *testing.T) {
	mgr, err := NewManager(Deps{
		Logger:        testLogger(),
		Config:        config.DefaultMainConfig(),
		StreamHandler: http.NotFoundHandler(),
	})
	require.NoError(t, err)

	err = mgr.Shutdown(context.Background())
	assert.ErrorIs(t, err, ErrManagerNotStarted)
}

func TestManager_Start_RejectsDoubleStart(t *testing.T) {
	cfg := config.DefaultMainConfig()
	cfg.Server.ListenAddr = freeListenAddr(t)

	mgr, err := NewManager(Deps{
		Logger:        testLogger(),
		Config:        cfg,
		StreamHandler: http.NotFoundHandler(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = mgr.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)

	err = mgr.Start(context.Background())
	assert.Error(t, err)
}
