package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder receives discovery activity counts. The daemon injects a
// Prometheus-backed recorder; everything else defaults to Noop so
// library code and tests never depend on a metrics registry.
type Recorder interface {
	// OfferReceived counts one inbound Offer entry for a tracked record.
	OfferReceived()

	// StopReceived counts one inbound StopOffer entry for a tracked record.
	StopReceived()

	// TTLExpired counts one liveness loss due to an unrefreshed TTL.
	TTLExpired()

	// StateTransition counts one record state change.
	StateTransition(from, to string)

	// ServiceAvailable / ServiceUnavailable adjust the gauge of records
	// currently observing an offered service.
	ServiceAvailable()
	ServiceUnavailable()
}

// Noop discards all recordings.
type Noop struct{}

func (Noop) OfferReceived()                  {}
func (Noop) StopReceived()                   {}
func (Noop) TTLExpired()                     {}
func (Noop) StateTransition(from, to string) {}
func (Noop) ServiceAvailable()               {}
func (Noop) ServiceUnavailable()             {}

// PrometheusRecorder exposes discovery activity as Prometheus metrics.
type PrometheusRecorder struct {
	offers      prometheus.Counter
	stops       prometheus.Counter
	expiries    prometheus.Counter
	transitions *prometheus.CounterVec
	available   prometheus.Gauge
}

// NewPrometheusRecorder registers the discovery metrics with reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		offers: factory.NewCounter(prometheus.CounterOpts{
			Name: "someip_sd_offers_total",
			Help: "Inbound OfferService entries for tracked records.",
		}),
		stops: factory.NewCounter(prometheus.CounterOpts{
			Name: "someip_sd_stops_total",
			Help: "Inbound StopOfferService entries for tracked records.",
		}),
		expiries: factory.NewCounter(prometheus.CounterOpts{
			Name: "someip_sd_ttl_expiries_total",
			Help: "Offers that lapsed without TTL renewal.",
		}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "someip_sd_state_transitions_total",
			Help: "Discovery record state transitions.",
		}, []string{"from", "to"}),
		available: factory.NewGauge(prometheus.GaugeOpts{
			Name: "someip_sd_services_available",
			Help: "Records currently observing an offered service.",
		}),
	}
}

func (r *PrometheusRecorder) OfferReceived() { r.offers.Inc() }
func (r *PrometheusRecorder) StopReceived()  { r.stops.Inc() }
func (r *PrometheusRecorder) TTLExpired()    { r.expiries.Inc() }

func (r *PrometheusRecorder) StateTransition(from, to string) {
	r.transitions.WithLabelValues(from, to).Inc()
}

func (r *PrometheusRecorder) ServiceAvailable()   { r.available.Inc() }
func (r *PrometheusRecorder) ServiceUnavailable() { r.available.Dec() }
