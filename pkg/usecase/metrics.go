package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octo_uc_sync_runs_total",
		Help: "Sync passes by result.",
	}, []string{"result"})

	syncRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octo_uc_sync_records_total",
		Help: "User records applied by outcome.",
	}, []string{"outcome"})

	syncRolesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "octo_uc_sync_roles_created_total",
		Help: "Roles created by sync.",
	})

	syncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "octo_uc_sync_duration_seconds",
		Help:    "Duration of sync passes.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	syncLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "octo_uc_sync_last_success_timestamp_seconds",
		Help: "Unix time of the last successful sync pass.",
	})
)
