package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "crelo-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	ctx, finish := StartSpan(context.Background(), "unit")
	assert.NotNil(t, ctx)
	finish(errors.New("recorded"))
}

func TestRegisterQueryMetrics(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, RegisterQueryMetrics(db))

	type widget struct {
		ID   uint
		Name string
	}
	require.NoError(t, db.AutoMigrate(&widget{}))

	require.NoError(t, db.Create(&widget{Name: "a"}).Error)

	var got []widget
	require.NoError(t, db.Find(&got).Error)
	assert.Len(t, got, 1)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, mf := range families {
		if mf.GetName() != "crelo_database_query_latency_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["table"] == "widgets" {
				seen[labels["operation"]] = true
			}
		}
	}
	assert.True(t, seen["create"], "create latency recorded")
	assert.True(t, seen["query"], "query latency recorded")
}
