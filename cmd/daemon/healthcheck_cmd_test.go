// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT
package main

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func serverPort(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	return port
}

func TestRunHealthcheckCLI_HealthyReturnsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/readyz", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(statusResponse{Status: "healthy"})
	}))
	defer srv.Close()

	port := serverPort(t, srv)
	code := runHealthcheckCLI([]string{"--port", port})
	require.Equal(t, 0, code)
}

func TestRunHealthcheckCLI_DegradedStillReturnsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(statusResponse{Status: "degraded"})
	}))
	defer srv.Close()

	port := serverPort(t, srv)
	code := runHealthcheckCLI([]string{"--port", port})
	require.Equal(t, 0, code)
}

func TestRunHealthcheckCLI_UnhealthyReturnsOne(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(statusResponse{Status: "unhealthy"})
	}))
	defer srv.Close()

	port := serverPort(t, srv)
	code := runHealthcheckCLI([]string{"--port", port})
	require.Equal(t, 1, code)
}

func TestRunHealthcheckCLI_NetworkErrorReturnsOne(t *testing.T) {
	code := runHealthcheckCLI([]string{"--port", "1", "--timeout", "100ms"})
	require.Equal(t, 1, code)
}

func TestRunHealthcheckCLI_LiveModeHitsHealthz(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/healthz"))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(statusResponse{Status: "healthy"})
	}))
	defer srv.Close()

	port := serverPort(t, srv)
	code := runHealthcheckCLI([]string{"--mode", "live", "--port", port})
	require.Equal(t, 0, code)
}
