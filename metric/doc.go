// Package metric provides the Prometheus registry and HTTP endpoint shared by
// buffers, worker pools and the streambuf command.
//
// # Registry
//
// MetricsRegistry wraps a private prometheus.Registry. It tracks every
// collector under a "service.metric" key, so two buffers cannot register
// under the same component label and a discarded buffer can release its
// series with UnregisterService:
//
//	registry := metric.NewMetricsRegistry()
//
//	queue, err := buffer.NewBoundedRingStore(1024,
//	    buffer.WithMetrics[Job](registry, "ingest"))
//
// Registering a key twice, or a collector Prometheus already knows, fails
// with an invalid-class error. Any other registration failure is fatal.
//
// # Core Metrics
//
// The registry always carries process-level metrics under the "streambuf"
// namespace, plus the Go runtime and process collectors:
//
//	streambuf_component_status{component}
//	streambuf_pipeline_items_produced_total{pipeline}
//	streambuf_pipeline_items_consumed_total{pipeline}
//	streambuf_pipeline_operation_duration_seconds{pipeline,operation}
//	streambuf_errors_total{component,class}
//	streambuf_retries_total{component}
//	streambuf_health_status{component}
//
// RecordError labels errors by their errors.Classify class.
//
// Buffer-level series (streambuf_buffer_*) are registered by the buffers
// themselves and labelled with their component name.
//
// # Server
//
// Server exposes the registry over HTTP:
//
//	server := metric.NewServer(9090, "/metrics", registry,
//	    metric.WithHealthMonitor(monitor, "streambuf"))
//	go func() {
//	    if err := server.Start(); err != nil {
//	        logger.Error("metrics server failed", "error", err)
//	    }
//	}()
//	defer server.Stop()
//
// With a health monitor, /health returns the aggregate status as JSON and
// answers 503 while it is unhealthy. Handler returns the mux for use with
// httptest.
package metric
