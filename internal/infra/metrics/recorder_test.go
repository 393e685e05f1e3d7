package metrics

import (
	"net/http/httptest"
	"testing"

	"brightday_bot/internal/app"
	"brightday_bot/internal/domain/announcement"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()

	r.Announced(announcement.ProvenanceGenerated)
	r.Announced(announcement.ProvenanceGenerated)
	r.Announced(announcement.ProvenanceFallback)
	r.DeliveryFailed()
	r.ComposeRetried()
	r.LedgerFailed("write")
	r.RunCompleted(app.Summary{Handled: 3})

	require.Equal(t, 2.0, testutil.ToFloat64(r.announcements.WithLabelValues("generated")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.announcements.WithLabelValues("fallback")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.deliveryErrors))
	require.Equal(t, 1.0, testutil.ToFloat64(r.composeRetries))
	require.Equal(t, 1.0, testutil.ToFloat64(r.ledgerErrors.WithLabelValues("write")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.runs))
	require.Equal(t, 3.0, testutil.ToFloat64(r.lastRunHandled))
}

func TestRecorderHandlerExposesMetrics(t *testing.T) {
	r := NewRecorder()
	r.Announced(announcement.ProvenanceFallback)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), `brightday_announcer_announcements_total{provenance="fallback"} 1`)
}
