package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pebblestore "github.com/hexboltmq/hexboltmq/internal/storage/pebble"
)

func TestCountersAndGauges(t *testing.T) {
	m := New()

	m.Produced.WithLabelValues("orders").Add(3)
	m.DeadLettered.WithLabelValues("orders").Inc()
	m.QueueSize.WithLabelValues("orders").Set(2)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Produced.WithLabelValues("orders")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeadLettered.WithLabelValues("orders")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.QueueSize.WithLabelValues("orders")))
}

func TestHandlerExposition(t *testing.T) {
	m := New()
	m.Consumed.WithLabelValues("orders").Inc()
	m.ObserveCommit(2*time.Millisecond, 128)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "hexboltmq_messages_consumed_total"))
	assert.True(t, strings.Contains(body, "hexboltmq_storage_commit_duration_seconds"))
}

func TestImplementsStorageHook(t *testing.T) {
	var _ pebblestore.MetricsHook = New()
}
