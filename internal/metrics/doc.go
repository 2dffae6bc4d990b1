// Package metrics accumulates per-phase request outcomes and turns them into
// phase reports.
//
// # PhaseStats
//
// A [PhaseStats] is created when a phase starts and is shared by every worker
// admitted into that phase:
//
//	stats := metrics.NewPhaseStats(requests)
//	stats.Start()
//
//	stats.Record(metrics.Outcome{
//		Class:      metrics.Success,
//		Latency:    420 * time.Millisecond,
//		HasLatency: true,
//		Tokens:     128,
//	})
//
//	report := stats.Report(concurrency, requests, elapsed)
//
// Transport failures carry no latency: they count as failures but never
// contribute a latency sample.
//
// # Percentiles
//
// [Median] and [P95] operate on the exact recorded samples. P95 uses the
// exclusive quantile method over 20 partitions and is undefined below 20
// samples. [PhaseStats.Snapshot] additionally exposes histogram-approximated
// percentiles for live display while a phase is still running.
//
// # Thread Safety
//
// PhaseStats guards all state with a single mutex; Record, Snapshot and Report
// may be called from any goroutine.
package metrics
