package metrics

import (
	"net/http"
	"time"

	"brightday_bot/internal/app"
	"brightday_bot/internal/domain/announcement"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "brightday"

// Recorder exports announcement pipeline metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	runs            prometheus.Counter
	announcements   *prometheus.CounterVec
	deliveryErrors  prometheus.Counter
	composeRetries  prometheus.Counter
	ledgerErrors    *prometheus.CounterVec
	lastRunHandled  prometheus.Gauge
	lastRunUnixTime prometheus.Gauge
}

var _ app.Observer = (*Recorder)(nil)

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "runs_total",
			Help:      "Number of completed daily runs.",
		}),
		announcements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "announcer",
			Name:      "announcements_total",
			Help:      "Number of delivered announcements grouped by provenance.",
		}, []string{"provenance"}),
		deliveryErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "announcer",
			Name:      "delivery_failures_total",
			Help:      "Number of announcements the chat backend rejected.",
		}),
		composeRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "composer",
			Name:      "validation_retries_total",
			Help:      "Number of corrective regeneration requests.",
		}),
		ledgerErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "errors_total",
			Help:      "Number of ledger failures grouped by operation.",
		}, []string{"op"}),
		lastRunHandled: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "last_run_handled",
			Help:      "Subjects handled by the most recent run.",
		}),
		lastRunUnixTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix timestamp of the most recent completed run.",
		}),
	}
}

func (r *Recorder) RunCompleted(summary app.Summary) {
	r.runs.Inc()
	r.lastRunHandled.Set(float64(summary.Handled))
	r.lastRunUnixTime.Set(float64(time.Now().Unix()))
}

func (r *Recorder) Announced(provenance announcement.Provenance) {
	r.announcements.WithLabelValues(string(provenance)).Inc()
}

func (r *Recorder) DeliveryFailed() { r.deliveryErrors.Inc() }

func (r *Recorder) ComposeRetried() { r.composeRetries.Inc() }

func (r *Recorder) LedgerFailed(op string) { r.ledgerErrors.WithLabelValues(op).Inc() }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
