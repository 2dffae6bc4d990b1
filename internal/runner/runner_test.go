package runner_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/sweepfire/internal/runner"
)

// fakeRequester simulates performing a request with fixed latency and tracks
// how many calls are in flight at once.
type fakeRequester struct {
	latency     time.Duration
	calls       int64
	inFlight    int64
	maxInFlight int64
	failEvery   int64 // if >0, every failEvery-th call fails
}

func (f *fakeRequester) Do(ctx context.Context) error {
	n := atomic.AddInt64(&f.calls, 1)
	cur := atomic.AddInt64(&f.inFlight, 1)
	defer atomic.AddInt64(&f.inFlight, -1)
	for {
		prev := atomic.LoadInt64(&f.maxInFlight)
		if cur <= prev || atomic.CompareAndSwapInt64(&f.maxInFlight, prev, cur) {
			break
		}
	}
	select {
	case <-time.After(f.latency):
	case <-ctx.Done():
		return ctx.Err()
	}
	if f.failEvery > 0 && n%f.failEvery == 0 {
		return errors.New("boom")
	}
	return nil
}

// TestRunnerRespectsTotalRequests ensures exactly TotalRequests are executed.
func TestRunnerRespectsTotalRequests(t *testing.T) {
	req := &fakeRequester{latency: time.Millisecond}
	r := runner.New(runner.Options{
		Concurrency:   4,
		TotalRequests: 25,
		Requester:     req,
	})
	res := r.Run(context.Background())
	if res.Total != 25 {
		t.Fatalf("expected total 25, got %d", res.Total)
	}
	if req.calls != 25 {
		t.Fatalf("expected requester called 25 times, got %d", req.calls)
	}
}

// TestRunnerNeverExceedsConcurrency checks the admission cap.
func TestRunnerNeverExceedsConcurrency(t *testing.T) {
	for _, c := range []int{1, 3, 10} {
		req := &fakeRequester{latency: 2 * time.Millisecond}
		r := runner.New(runner.Options{
			Concurrency:   c,
			TotalRequests: 60,
			Requester:     req,
		})
		r.Run(context.Background())
		if got := atomic.LoadInt64(&req.maxInFlight); got > int64(c) {
			t.Fatalf("concurrency %d: observed %d in flight", c, got)
		}
		if c > 1 && atomic.LoadInt64(&req.maxInFlight) < 2 {
			t.Fatalf("concurrency %d: expected overlapping requests", c)
		}
	}
}

// TestRunnerRefillsSlotsImmediately ensures work is not issued in batches: a
// single slow request must not hold back the other slot.
func TestRunnerRefillsSlotsImmediately(t *testing.T) {
	var calls int64
	slow := make(chan struct{})
	req := requesterFunc(func(ctx context.Context) error {
		if atomic.AddInt64(&calls, 1) == 1 {
			<-slow
		}
		return nil
	})
	r := runner.New(runner.Options{Concurrency: 2, TotalRequests: 10, Requester: req})

	done := make(chan runner.Result)
	go func() { done <- r.Run(context.Background()) }()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt64(&calls) < 10 {
		select {
		case <-deadline:
			t.Fatalf("only %d calls started while first request was blocked", atomic.LoadInt64(&calls))
		case <-time.After(time.Millisecond):
		}
	}
	close(slow)
	res := <-done
	if res.Total != 10 {
		t.Fatalf("expected total 10, got %d", res.Total)
	}
}

// TestRunnerCountsErrorsWithoutStopping ensures failures release their slot.
func TestRunnerCountsErrorsWithoutStopping(t *testing.T) {
	req := &fakeRequester{failEvery: 2}
	r := runner.New(runner.Options{Concurrency: 3, TotalRequests: 20, Requester: req})
	res := r.Run(context.Background())
	if res.Total != 20 {
		t.Fatalf("expected total 20, got %d", res.Total)
	}
	if res.Errors != 10 {
		t.Fatalf("expected 10 errors, got %d", res.Errors)
	}
}

// TestRunnerDurationCoversSlowestRequest ensures the wall clock waits for all requests.
func TestRunnerDurationCoversSlowestRequest(t *testing.T) {
	req := &fakeRequester{latency: 30 * time.Millisecond}
	r := runner.New(runner.Options{Concurrency: 5, TotalRequests: 10, Requester: req})
	res := r.Run(context.Background())
	if res.Duration < 60*time.Millisecond {
		t.Fatalf("expected at least two waves of 30ms, got %s", res.Duration)
	}
}

func TestRunnerZeroRequests(t *testing.T) {
	req := &fakeRequester{}
	res := runner.New(runner.Options{Concurrency: 2, Requester: req}).Run(context.Background())
	if res.Total != 0 || req.calls != 0 {
		t.Fatalf("expected no requests, got total=%d calls=%d", res.Total, req.calls)
	}
}

func TestRunnerStopsAdmittingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int64
	req := requesterFunc(func(rctx context.Context) error {
		if atomic.AddInt64(&calls, 1) == 3 {
			cancel()
		}
		<-rctx.Done()
		return rctx.Err()
	})
	res := runner.New(runner.Options{Concurrency: 3, TotalRequests: 1000, Requester: req}).Run(ctx)
	if res.Total >= 1000 {
		t.Fatalf("expected admission to stop after cancel, got total %d", res.Total)
	}
	if res.Total != atomic.LoadInt64(&calls) {
		t.Fatalf("total %d does not match executed calls %d", res.Total, calls)
	}
}

// TestRateLimiterCapsThroughput ensures the limiter restricts RPS.
func TestRateLimiterCapsThroughput(t *testing.T) {
	req := &fakeRequester{}
	r := runner.New(runner.Options{
		Concurrency:    20,
		TotalRequests:  11,
		RatePerSecond:  100,
		Requester:      req,
		LimiterFactory: func(rps int) *rate.Limiter { return rate.NewLimiter(rate.Limit(rps), 1) },
	})
	res := r.Run(context.Background())
	// 11 permits at 100/s with burst 1 need at least 100ms.
	if res.Duration < 90*time.Millisecond {
		t.Fatalf("rate limiter not applied: %s", res.Duration)
	}
	if req.calls != res.Total {
		t.Fatalf("calls mismatch: %d vs %d", req.calls, res.Total)
	}
}

type countingLogger struct {
	mu   sync.Mutex
	errs []error
}

func (l *countingLogger) LogFailure(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func TestWithLoggingReportsFailures(t *testing.T) {
	logger := &countingLogger{}
	req := runner.WithLogging(&fakeRequester{failEvery: 1}, logger)
	if err := req.Do(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(logger.errs) != 1 {
		t.Fatalf("expected 1 logged failure, got %d", len(logger.errs))
	}

	plain := &fakeRequester{}
	if runner.WithLogging(plain, nil) != runner.Requester(plain) {
		t.Fatal("expected nil logger to return the requester unchanged")
	}
}

func TestHTTPErrorMessage(t *testing.T) {
	err := &runner.HTTPError{StatusCode: 503, Body: "overloaded"}
	if err.Error() != "HTTP 503: overloaded" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

type requesterFunc func(ctx context.Context) error

func (f requesterFunc) Do(ctx context.Context) error { return f(ctx) }
