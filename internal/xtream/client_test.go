// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package xtream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, responses map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alice", r.URL.Query().Get("username"))
		assert.Equal(t, "s3cr3t", r.URL.Query().Get("password"))

		action := r.URL.Query().Get("action")
		payload, ok := responses[action]
		require.True(t, ok, "unexpected action %q", action)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_LiveCategoriesAndStreams(t *testing.T) {
	srv := newTestServer(t, map[string]any{
		"get_live_categories": []Category{{CategoryID: "1", CategoryName: "News"}},
		"get_live_streams": []LiveStream{
			{StreamID: 10, Name: "Channel One", CategoryID: "1", StreamIcon: "http://x/icon.png"},
		},
	})

	c, err := New(srv.URL, Credentials{Username: "alice", Password: "s3cr3t"})
	require.NoError(t, err)

	cats, err := c.LiveCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "News", cats[0].CategoryName)

	streams, err := c.LiveStreams(context.Background())
	require.NoError(t, err)
	require.Len(t, streams, 1)
	assert.Equal(t, "Channel One", streams[0].Name)
}

func TestClient_SeriesInfo_PassesSeriesIDQueryParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "get_series_info", r.URL.Query().Get("action"))
		assert.Equal(t, "42", r.URL.Query().Get("series_id"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SeriesInfo{
			Episodes: map[string][]Episode{
				"1": {{ID: "e1", EpisodeNum: 1, Title: "Pilot"}},
			},
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL, Credentials{Username: "alice", Password: "s3cr3t"})
	require.NoError(t, err)
	info, err := c.SeriesInfo(context.Background(), 42)
	require.NoError(t, err)
	require.Contains(t, info.Episodes, "1")
	assert.Equal(t, "Pilot", info.Episodes["1"][0].Title)
}

func TestClient_NonOKStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(srv.URL, Credentials{Username: "alice", Password: "s3cr3t"})
	require.NoError(t, err)
	_, err = c.LiveCategories(context.Background())
	assert.Error(t, err)
}
