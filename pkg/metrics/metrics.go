package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Driver-call metrics
	StartDetectionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "detect_start_detection_duration_seconds",
			Help:    "Time taken by StartDetection calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ContinueDetectionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "detect_continue_detection_duration_seconds",
			Help:    "Time taken by ContinueDetection calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detect_alerts_total",
			Help: "Total number of alerts raised, by direction",
		},
		[]string{"direction"},
	)

	EngineCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detect_engine_calls_total",
			Help: "Total number of inspection engine callback invocations, by engine and result",
		},
		[]string{"sm_list", "result"},
	)

	RecordsAppendedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detect_records_appended_total",
			Help: "Total number of Item/FlowItem records appended to a chunked store, by scope",
		},
		[]string{"scope"}, // "tx" or "flow"
	)

	RecordAppendFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "detect_record_append_failures_total",
			Help: "Total number of append attempts dropped due to allocation failure",
		},
	)

	FilestoreDisabledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "detect_filestore_disabled_total",
			Help: "Total number of transactions that had file storing disabled after all filestore candidates declined",
		},
	)

	CallbackFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "detect_callback_failures_total",
			Help: "Total number of submatcher callback failures that aborted a packet's stateful inspection",
		},
	)

	// ActiveFlows/StoredItems are gauges a Collector (see collector.go)
	// periodically sets from a StatsSource: the replay CLI's in-memory
	// flow table is one such source.
	ActiveFlows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "detect_active_flows",
			Help: "Number of flows currently tracked by the demo flow table",
		},
	)

	StoredItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "detect_stored_items",
			Help: "Total number of Item/FlowItem records currently live across tracked flows",
		},
	)
)

func init() {
	prometheus.MustRegister(StartDetectionDuration)
	prometheus.MustRegister(ContinueDetectionDuration)
	prometheus.MustRegister(AlertsTotal)
	prometheus.MustRegister(EngineCallsTotal)
	prometheus.MustRegister(RecordsAppendedTotal)
	prometheus.MustRegister(RecordAppendFailuresTotal)
	prometheus.MustRegister(FilestoreDisabledTotal)
	prometheus.MustRegister(CallbackFailuresTotal)
	prometheus.MustRegister(ActiveFlows)
	prometheus.MustRegister(StoredItems)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
