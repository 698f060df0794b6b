package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hugbridge",
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Number of generation requests waiting in the queue",
		},
	)

	requestsEnqueuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hugbridge",
			Subsystem: "queue",
			Name:      "enqueued_total",
			Help:      "Total generation requests accepted onto the queue",
		},
	)

	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hugbridge",
			Subsystem: "worker",
			Name:      "generations_total",
			Help:      "Total serviced generation requests by outcome",
		},
		[]string{"outcome"},
	)

	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "hugbridge",
			Subsystem: "worker",
			Name:      "generation_duration_seconds",
			Help:      "Duration of serviced generation requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(queueDepth, requestsEnqueuedTotal, generationsTotal, generationDuration)
}

// SetQueueDepth reports the current queue length.
func SetQueueDepth(depth int) {
	queueDepth.Set(float64(depth))
}

// RequestEnqueued counts one accepted generation request.
func RequestEnqueued() {
	requestsEnqueuedTotal.Inc()
}

// ObserveGeneration records one serviced request with its terminal outcome.
func ObserveGeneration(outcome string, seconds float64) {
	if outcome == "" {
		outcome = "unknown"
	}
	generationsTotal.WithLabelValues(outcome).Inc()
	generationDuration.Observe(seconds)
}
