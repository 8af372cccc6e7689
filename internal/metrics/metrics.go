package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "airport_weather"

// Observation results used as the "result" label.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultUnknown  = "unknown_station"

	// ResultMalformed marks MQTT messages whose topic or payload could not
	// be decoded.
	ResultMalformed = "malformed"
)

// Recorder is the Prometheus view of the weather service.
type Recorder struct {
	registry *prometheus.Registry

	observations *prometheus.CounterVec
	queries      *prometheus.CounterVec
	queryRadius  prometheus.Histogram
	mqttMessages *prometheus.CounterVec
}

// NewRecorder builds a recorder on a private registry. stationCount backs the
// station gauge and may be nil.
func NewRecorder(stationCount func() int) *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		registry: registry,
		observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_total",
			Help:      "Submitted observations by kind and result.",
		}, []string{"kind", "result"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Weather queries by mode (exact or radius).",
		}, []string{"mode"}),
		queryRadius: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_radius_km",
			Help:      "Requested radius of weather queries.",
			Buckets:   []float64{0, 10, 50, 100, 200, 500, 1000, 5000},
		}),
		mqttMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mqtt_messages_total",
			Help:      "Collector messages received over MQTT by result.",
		}, []string{"result"}),
	}

	registry.MustRegister(r.observations, r.queries, r.queryRadius, r.mqttMessages)

	if stationCount != nil {
		registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations",
			Help:      "Number of known airports.",
		}, func() float64 { return float64(stationCount()) }))
	}

	return r
}

// Registry exposes the private registry for gathering outside the HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) RecordObservation(kind, result string) {
	r.observations.WithLabelValues(kind, result).Inc()
}

func (r *Recorder) RecordQuery(radius float64) {
	mode := "radius"
	if radius == 0 {
		mode = "exact"
	}
	r.queries.WithLabelValues(mode).Inc()
	r.queryRadius.Observe(radius)
}

func (r *Recorder) RecordMQTTMessage(result string) {
	r.mqttMessages.WithLabelValues(result).Inc()
}
