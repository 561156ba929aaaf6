// Package metrics exposes tick-loop health as read-only prometheus gauges
// and counters. Every metric is written from the tick thread only — there
// are no cross-thread writers to race with.
package metrics

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tickRateGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gridkeep_tick_rate",
		Help: "Configured ticks per second",
	})

	tickDurationGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gridkeep_tick_duration_seconds",
		Help: "Average tick processing duration over the last reporting window",
	})

	connectedPlayersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gridkeep_connected_players",
		Help: "Number of players currently in the world",
	})

	ActionsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridkeep_actions_dropped_total",
		Help: "Actions dropped because the action queue was full",
	})

	BytesIn = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridkeep_bytes_in_total",
		Help: "Total bytes read from all connections",
	})

	BytesOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridkeep_bytes_out_total",
		Help: "Total bytes written to all connections",
	})
)

// Mirrored as atomics so Snapshot (e.g. the console's "stats" command) can
// read the latest values without scraping the prometheus HTTP endpoint.
var (
	lastTickRate        atomic.Uint64 // math.Float64bits
	lastTickDuration     atomic.Uint64
	lastConnectedPlayers atomic.Int64
)

// ReportTick updates both the prometheus gauges and the Snapshot mirror.
// The rate is derived from the configured tick period, not measured.
// Called periodically from the tick thread.
func ReportTick(tickRate, avgTickDuration time.Duration, connectedPlayers int) {
	rate := float64(time.Second) / float64(tickRate)
	dur := avgTickDuration.Seconds()

	tickRateGauge.Set(rate)
	tickDurationGauge.Set(dur)
	connectedPlayersGauge.Set(float64(connectedPlayers))

	lastTickRate.Store(math.Float64bits(rate))
	lastTickDuration.Store(math.Float64bits(dur))
	lastConnectedPlayers.Store(int64(connectedPlayers))
}

// Snapshot is a point-in-time read of the gauges above.
type Snapshot struct {
	TickRate            float64
	TickDurationSeconds float64
	ConnectedPlayers    int64
	Timestamp           time.Time
}

// Read returns the latest reported values.
func Read() Snapshot {
	return Snapshot{
		TickRate:            math.Float64frombits(lastTickRate.Load()),
		TickDurationSeconds: math.Float64frombits(lastTickDuration.Load()),
		ConnectedPlayers:    lastConnectedPlayers.Load(),
		Timestamp:           time.Now(),
	}
}
