// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crelo_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// CacheLookups counts cache-aside lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crelo_cache_lookups_total",
		Help: "Cache-aside lookups by result",
	}, []string{"result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crelo_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ActivitiesEmitted counts feed activities created, by action.
	ActivitiesEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crelo_activities_emitted_total",
		Help: "Feed activities created by action",
	}, []string{"action"})

	// ActivitiesRetracted counts derived activities deleted, by action.
	ActivitiesRetracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crelo_activities_retracted_total",
		Help: "Derived feed activities retracted by action",
	}, []string{"action"})

	// PledgesCreated counts accepted pledges.
	PledgesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crelo_pledges_created_total",
		Help: "Total number of pledges created",
	})

	// PledgedAmount sums the amount of accepted pledges.
	PledgedAmount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crelo_pledged_amount_total",
		Help: "Sum of pledged amounts",
	})

	// ProjectViews counts non-owner project detail views.
	ProjectViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crelo_project_views_total",
		Help: "Total number of non-owner project detail views",
	})
)

const queryStartKey = "crelo:query_start"

// RegisterQueryMetrics installs GORM callbacks that record query latency
// per operation and table into DatabaseQueryLatency.
func RegisterQueryMetrics(db *gorm.DB) error {
	cb := db.Callback()

	steps := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, step := range steps {
		if err := step.before("crelo:metrics_before_"+step.op, startTimer); err != nil {
			return err
		}
		if err := step.after("crelo:metrics_after_"+step.op, observe(step.op)); err != nil {
			return err
		}
	}
	return nil
}

func startTimer(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func observe(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
