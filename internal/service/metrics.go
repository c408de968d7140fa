package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "splitsight",
		Name:      "pipeline_duration_seconds",
		Help:      "Wall time of one full normalize-verify-analyze pass.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})

	recordsNormalized = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "splitsight",
		Name:      "records_normalized_total",
		Help:      "Raw records successfully normalized.",
	})

	recordsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "splitsight",
		Name:      "records_skipped_total",
		Help:      "Raw records dropped during lenient normalization.",
	})

	runsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "splitsight",
		Name:      "runs_total",
		Help:      "Completed analysis runs by verification outcome.",
	}, []string{"valid"})
)
