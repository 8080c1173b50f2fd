// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics collection.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// targetItemsTotal tracks the size of a target's catalog after its
	// last successful ingest.
	targetItemsTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "xg2g_target_items_total",
		Help: "Number of catalog items held per target after the last ingest",
	}, []string{"target"})

	// itemTypeCounts breaks a target's catalog down by item type.
	itemTypeCounts = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "xg2g_item_type_total",
		Help: "Number of catalog items by type after the last ingest",
	}, []string{"target", "type"}) // type=live|vod|series

	ingestFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xg2g_ingest_failures_total",
		Help: "Total number of failed target ingests",
	}, []string{"target"})

	// playlistFileValid reflects whether a target's on-disk catalog store
	// was written successfully on the last ingest attempt.
	playlistFileValid = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "xg2g_playlist_file_valid",
		Help: "Whether a target's catalog store is valid after the last ingest attempt (1=valid, 0=invalid)",
	}, []string{"target"})

	// activeStreams tracks currently open proxied streams by owning
	// provider, mirroring providermgr.Slot's own active-count bookkeeping
	// for external observability.
	activeStreams = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "xg2g_active_streams",
		Help: "Number of currently active proxied streams, by provider",
	}, []string{"provider"})
)

// RecordTargetItemCount records a target's catalog size after ingest.
func RecordTargetItemCount(target string, n int) {
	targetItemsTotal.WithLabelValues(target).Set(float64(n))
}

// RecordItemTypeCounts records a target's catalog composition by item type.
func RecordItemTypeCounts(target string, live, vod, series int) {
	itemTypeCounts.WithLabelValues(target, "live").Set(float64(live))
	itemTypeCounts.WithLabelValues(target, "vod").Set(float64(vod))
	itemTypeCounts.WithLabelValues(target, "series").Set(float64(series))
}

// IncIngestFailure increments the ingest failure counter for a target.
func IncIngestFailure(target string) {
	ingestFailuresTotal.WithLabelValues(target).Inc()
}

// RecordPlaylistFileValidity records whether a target's catalog store is valid.
func RecordPlaylistFileValidity(target string, valid bool) {
	v := 0.0
	if valid {
		v = 1.0
	}
	playlistFileValid.WithLabelValues(target).Set(v)
}

// IncActiveStreams increments the active stream gauge for a provider.
func IncActiveStreams(provider string) {
	activeStreams.WithLabelValues(provider).Inc()
}

// DecActiveStreams decrements the active stream gauge for a provider.
func DecActiveStreams(provider string) {
	activeStreams.WithLabelValues(provider).Dec()
}
