package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PassesSubmitted counts accepted gate-pass submissions.
	PassesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatepass_submitted_total",
		Help: "Total number of gate-pass requests submitted",
	})

	// PassDecisions counts admin decisions partitioned by outcome.
	PassDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatepass_decisions_total",
		Help: "Total number of admin decisions on gate-pass requests",
	}, []string{"status"})

	// WatchStreamsActive tracks currently attached live snapshot streams.
	WatchStreamsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gatepass_watch_streams_active",
		Help: "Number of live gate-pass watch streams currently attached",
	})
)
