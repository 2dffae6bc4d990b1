// Package runner provides the admission-controlled execution engine used by
// each sweep phase.
//
// A [Runner] executes exactly TotalRequests calls to a [Requester] while never
// allowing more than Concurrency of them to be in flight:
//
//	r := runner.New(runner.Options{
//		Concurrency:   16,
//		TotalRequests: 200,
//		Requester:     issuer,
//	})
//	result := r.Run(ctx)
//
// # Admission
//
// A scheduler goroutine hands out one permit per request into a channel that
// Concurrency worker goroutines drain. A worker takes the next permit as soon
// as its previous request resolves, so load is sustained at the cap instead of
// being issued in fixed-size batches. Failed requests release their slot the
// same way successful ones do.
//
// # Pacing
//
// RatePerSecond optionally paces the scheduler. [ArrivalModelUniform] waits on
// a golang.org/x/time/rate limiter. [ArrivalModelPoisson] sleeps for
// exponential gaps with mean 1/RatePerSecond. With RatePerSecond at zero every
// permit is available immediately, which is the default for a sweep phase.
//
// # Middleware
//
// [WithLogging] reports every failed request to a [FailureLogger]. The
// [HTTPError] type carries the status and a body snippet of non-success
// responses:
//
//	var httpErr *runner.HTTPError
//	if errors.As(err, &httpErr) {
//		fmt.Printf("Status: %d, Body: %s\n", httpErr.StatusCode, httpErr.Body)
//	}
package runner
