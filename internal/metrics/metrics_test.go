package metrics

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSearch(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSearch("posts", "page", "ok", 10*time.Millisecond)
	m.ObserveSearch("posts", "page", "ok", 20*time.Millisecond)
	m.ObserveSearch("posts", "around", "search_error", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.searchRequestsTotal.WithLabelValues("posts", "page", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searchRequestsTotal.WithLabelValues("posts", "around", "search_error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.searchRequestDuration))
}

func TestObserveParseCache(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveParseCache(false)
	m.ObserveParseCache(true)
	m.ObserveParseCache(true)

	expected := `
# HELP quarry_parse_cache_total Query parse cache lookups
# TYPE quarry_parse_cache_total counter
quarry_parse_cache_total{result="hit"} 2
quarry_parse_cache_total{result="miss"} 1
`
	require.NoError(t, testutil.CollectAndCompare(m.parseCacheTotal, strings.NewReader(expected)))
}

func TestUpdateDBStats(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.UpdateDBStats(sql.DBStats{MaxOpenConnections: 4, InUse: 1, Idle: 2})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.dbConnectionsInUse))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.dbConnectionsIdle))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.dbConnectionsMax))
}

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) }, "duplicate registration must fail loudly")
}
