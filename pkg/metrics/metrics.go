// Package metrics exposes loom migrations and view broadcasts as Prometheus
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	loom "github.com/goliatone/go-loom"
	"github.com/goliatone/go-loom/pkg/viewsync"
)

const (
	OutcomeLoaded   = "loaded"
	OutcomeMigrated = "migrated"
)

// Collector counts migrations and broadcasts. It satisfies both
// loom.MigrationLogger and viewsync.Logger.
type Collector struct {
	migrations       *prometheus.CounterVec
	steps            *prometheus.CounterVec
	duration         prometheus.Histogram
	broadcasts       prometheus.Counter
	listenerFailures prometheus.Counter
}

var (
	_ loom.MigrationLogger = (*Collector)(nil)
	_ viewsync.Logger      = (*Collector)(nil)
)

// NewCollector registers the loom metrics with reg. A nil reg creates
// unregistered metrics.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		migrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loom_migrations_total",
			Help: "Loads by outcome: loaded, migrated, or the failure kind.",
		}, []string{"outcome"}),
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loom_migration_steps_total",
			Help: "Migration steps applied, by step name.",
		}, []string{"step"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "loom_migration_duration_seconds",
			Help:    "Time spent decoding, migrating and validating one payload.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		broadcasts: factory.NewCounter(prometheus.CounterOpts{
			Name: "loom_broadcasts_total",
			Help: "Saves broadcast to sibling views.",
		}),
		listenerFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "loom_listener_failures_total",
			Help: "Sibling views that failed to apply a broadcast.",
		}),
	}
}

// LogMigration implements loom.MigrationLogger.
func (c *Collector) LogMigration(event loom.MigrationLogEvent) {
	c.duration.Observe(event.Duration.Seconds())
	for _, step := range event.Steps {
		c.steps.WithLabelValues(step).Inc()
	}
	c.migrations.WithLabelValues(outcome(event)).Inc()
}

// LogSync implements viewsync.Logger.
func (c *Collector) LogSync(event viewsync.SyncLogEvent) {
	switch event.Kind {
	case viewsync.EventBroadcast:
		c.broadcasts.Inc()
	case viewsync.EventListenerFailed:
		c.listenerFailures.Inc()
	}
}

func outcome(event loom.MigrationLogEvent) string {
	if event.Err != nil {
		if kind, ok := loom.KindOf(event.Err); ok {
			return string(kind)
		}
		return "error"
	}
	if len(event.Steps) > 0 {
		return OutcomeMigrated
	}
	return OutcomeLoaded
}
