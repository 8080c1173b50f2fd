// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics for the xg2g admission subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AdmissionAdmitTotal counts successful provider-slot admissions.
	AdmissionAdmitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xg2g_admission_admit_total",
		Help: "Total number of admitted provider connection requests, by provider.",
	}, []string{"provider"})

	// AdmissionRejectTotal counts rejected provider-slot admissions by reason.
	AdmissionRejectTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xg2g_admission_reject_total",
		Help: "Total number of rejected provider connection requests, by provider and reason.",
	}, []string{"provider", "reason"})
)

// RecordAdmit increments the admission counter for a successfully granted
// provider connection slot.
func RecordAdmit(provider string) {
	AdmissionAdmitTotal.WithLabelValues(provider).Inc()
}

// RecordReject increments the rejection counter for a denied provider
// connection slot request.
func RecordReject(provider, reason string) {
	AdmissionRejectTotal.WithLabelValues(provider, reason).Inc()
}
