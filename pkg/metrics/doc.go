/*
Package metrics provides Prometheus metrics collection and HTTP health/readiness
endpoints for the detection core and its embedders.

# Architecture

	┌─────────────────────────────────────────────────────────────┐
	│                      pkg/detect Driver                      │
	│                                                               │
	│   StartDetection()          ContinueDetection()              │
	│        │ NewTimer()                │ NewTimer()               │
	│        ▼                           ▼                         │
	│   ObserveDuration(StartDetectionDuration)                     │
	│                        ObserveDuration(ContinueDetectionDuration)
	│        │                                                       │
	│        ├── AlertsTotal.WithLabelValues(dir).Inc()              │
	│        ├── EngineCallsTotal.WithLabelValues(list, result).Inc()│
	│        ├── RecordsAppendedTotal / RecordAppendFailuresTotal    │
	│        └── FilestoreDisabledTotal / CallbackFailuresTotal      │
	└─────────────────────────────────────────────────────────────┘
	                         │
	                         ▼
	              prometheus.DefaultRegisterer
	                         │
	                         ▼
	            metrics.Handler() → promhttp
	                         │
	                         ▼
	                /metrics   (scraped by Prometheus)

A second, independent path updates the two gauges on a timer instead of
inline: Collector polls a StatsSource (the replay CLI's in-memory flow
table, or any other embedder) every 15 seconds and sets ActiveFlows and
StoredItems from it. Counters and histograms are cheap enough to update
on every packet; gauges that require walking a flow table are not, so
they get the periodic-poll treatment instead.

# Metrics Catalog

Driver-call latency:

  - detect_start_detection_duration_seconds (histogram)
  - detect_continue_detection_duration_seconds (histogram)

Inspection outcomes:

  - detect_alerts_total{direction} (counter)
  - detect_engine_calls_total{sm_list,result} (counter)
  - detect_callback_failures_total (counter)

Chunked-store bookkeeping:

  - detect_records_appended_total{scope="tx"|"flow"} (counter)
  - detect_record_append_failures_total (counter)
  - detect_stored_items (gauge)

Filestore:

  - detect_filestore_disabled_total (counter)

Flow table:

  - detect_active_flows (gauge)

# Usage

The driver entry points wrap their own work in a Timer and observe it
against the matching histogram (pkg/detect's StartDetection does this):

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.StartDetectionDuration)

Counter updates happen next to the event they describe, not batched:

	metrics.EngineCallsTotal.WithLabelValues(smList, resultLabel).Inc()

The gauge path is wired once at startup:

	collector := metrics.NewCollector(flowTable)
	collector.Start()
	defer collector.Stop()

# Health and Readiness

health.go exposes the same RegisterComponent/UpdateComponent pattern the
rest of this package's embedders use for dependency health: the replay
CLI registers "engine_table" once signatures are loaded and "alert_sink"
once the alert writer is open. GetReadiness treats both as critical;
GetHealth reports every registered component regardless of criticality.
HealthHandler, ReadyHandler, and LivenessHandler back /health, /ready,
and /live respectively.

Beyond that one-shot registration, the driver feeds live detection
outcomes back into health: every StartDetection/ContinueDetection
callback failure calls RecordEngineFailure, which degrades engine_table
once degradedFailureThreshold consecutive failures pile up (a flaky
submatcher shows up in /health without a separate watchdog), and
RecordEngineRecovered clears that streak on the next successful call.
accountFilestore calls RecordFilestoreDisabled whenever a transaction's
filestore is disabled; this never flips readiness, it only annotates
alert_sink's health message with a running count.

# See Also

pkg/detect for the driver calls these metrics describe, and pkg/log for
the structured logging that accompanies the same call sites.
*/
package metrics
