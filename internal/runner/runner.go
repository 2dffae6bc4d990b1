package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Result captures execution summary.
type Result struct {
	Total    int64         // requests admitted and executed
	Errors   int64         // requests whose Requester returned an error
	Duration time.Duration // wall clock from scheduling the first permit until the last request resolved
}

// Runner executes a fixed number of requests while never allowing more than
// Concurrency of them to be in flight.
type Runner struct {
	opt   Options
	pacer pacer
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt, pacer: newPacer(opt)}
}

// Run issues TotalRequests requests and blocks until every admitted request
// has resolved. Cancelling ctx stops admission of further requests; requests
// already in flight observe the cancellation through their own context.
func (r *Runner) Run(ctx context.Context) Result {
	var total int64
	var errs int64

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	permits := make(chan struct{}, r.opt.Concurrency)

	start := time.Now()

	// Scheduler: hands out exactly TotalRequests permits. The channel buffer
	// plus the fixed worker count bound in-flight work at Concurrency.
	go func() {
		defer close(permits)
		for {
			if ctx.Err() != nil {
				return
			}
			current := atomic.LoadInt64(&total)
			if current >= int64(r.opt.TotalRequests) {
				return
			}
			if r.pacer != nil {
				if err := r.pacer.Wait(ctx); err != nil {
					return
				}
			}
			// Increment total before releasing permit so workers only execute allocated slots.
			atomic.AddInt64(&total, 1)
			select {
			case permits <- struct{}{}:
			case <-ctx.Done():
				atomic.AddInt64(&total, -1)
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(r.opt.Concurrency)
	for i := 0; i < r.opt.Concurrency; i++ {
		go func() {
			defer wg.Done()
			for range permits {
				if ctx.Err() != nil {
					// Admitted before cancellation but never started.
					atomic.AddInt64(&total, -1)
					continue
				}
				if r.opt.Requester != nil {
					if err := r.opt.Requester.Do(ctx); err != nil {
						atomic.AddInt64(&errs, 1)
					}
				}
			}
		}()
	}
	wg.Wait()

	return Result{
		Total:    atomic.LoadInt64(&total),
		Errors:   atomic.LoadInt64(&errs),
		Duration: time.Since(start),
	}
}
