// Package health tracks the health of buffers, worker pools and the process
// that hosts them.
//
// # Health States
//
//   - Healthy: operating normally
//   - Degraded: operating, but close to a limit (a queue nearly full, a rising
//     overflow rate)
//   - Unhealthy: not able to do its job
//
// # Status
//
// Status is a value type. WithMetrics and WithSubStatus return copies, so a
// Status handed to a Monitor cannot be changed behind its back.
//
//	status := health.NewDegraded("ingest", "queue 85% full").
//	    WithMetrics(&health.Metrics{Utilization: 0.85})
//
// FromError turns an error into a status and sanitizes its message: URLs,
// file paths, IP addresses, ports and credentials are replaced with
// placeholders before anything reaches /health.
//
// # Buffer Health
//
// FromBufferStats grades a buffer from its statistics using Thresholds. The
// statistics are taken through the BufferStats interface, which
// *buffer.Statistics satisfies, so this package does not depend on the
// buffer package:
//
//	monitor.Register("ingest", func() health.Status {
//	    return health.FromBufferStats("ingest", queue.Stats(), queue.MaxSize(),
//	        health.DefaultThresholds())
//	})
//
// # Monitor
//
// Monitor holds the latest Status per component. Statuses are pushed with
// Update and its helpers, or pulled from registered checks by Poll. Run polls
// on an interval until its context is cancelled:
//
//	monitor := health.NewMonitor()
//	go monitor.Run(ctx, 5*time.Second)
//
//	system := monitor.AggregateHealth("streambuf")
//
// Aggregation is worst-case: any unhealthy component makes the aggregate
// unhealthy, otherwise any degraded component makes it degraded. The
// aggregate message names the offending components, e.g. "degraded: ingest".
//
// WithLogger makes the monitor log every state transition at Info.
//
// All Monitor methods are safe for concurrent use. Checks run without the
// monitor lock held.
package health
