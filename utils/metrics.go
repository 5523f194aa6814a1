package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uttt_matches_created_total",
		Help: "Total number of matches created",
	})

	MatchesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uttt_matches_started_total",
		Help: "Total number of matches that got a second player",
	})

	MovesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uttt_moves_total",
		Help: "Move attempts by resulting status",
	}, []string{"status"})

	BroadcastsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uttt_broadcast_deliveries_total",
		Help: "Match updates delivered to subscribers",
	})

	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "uttt_active_connections",
		Help: "Currently open client connections",
	})

	StaleEntriesEvicted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uttt_stale_entries_evicted_total",
		Help: "Codes evicted from the ongoing set or matchmaking queue, and pruned subscriptions",
	}, []string{"kind"})
)
