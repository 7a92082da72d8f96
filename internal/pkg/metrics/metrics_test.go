package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"workorders/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Run("should count deliveries by group kind and result", func(t *testing.T) {
		m := metrics.New(prometheus.NewRegistry())

		m.Delivery("worker-gender", metrics.ResultAccepted)
		m.Delivery("worker-gender", metrics.ResultAccepted)
		m.Delivery("client", metrics.ResultFailed)

		assert.InDelta(t, 2, testutil.ToFloat64(m.Deliveries.WithLabelValues("worker-gender", metrics.ResultAccepted)), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.Deliveries.WithLabelValues("client", metrics.ResultFailed)), 0)
	})

	t.Run("should track open connections", func(t *testing.T) {
		m := metrics.New(prometheus.NewRegistry())

		m.ConnectionOpened()
		m.ConnectionOpened()
		m.ConnectionClosed()

		assert.InDelta(t, 1, testutil.ToFloat64(m.Connections), 0)
	})

	t.Run("should ignore calls on nil metrics", func(t *testing.T) {
		var m *metrics.Metrics

		assert.NotPanics(t, func() {
			m.Delivery("client", metrics.ResultAccepted)
			m.ObserveRequest("GET /health", "200", 1)
			m.ConnectionOpened()
			m.Transition("pending", "paid")
			m.NotificationCreated("order_created")
			m.Redelivery("sent")
		})
	})

	t.Run("should expose registered metrics over HTTP", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.New(reg)
		m.Transition("pending", "paid")

		rec := httptest.NewRecorder()
		metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `workorders_order_transitions_total{from="pending",to="paid"} 1`)
	})
}
