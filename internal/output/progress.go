package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/torosent/sweepfire/internal/metrics"
)

// ProgressReporter prints the phase header and summary line for each phase
// and, while a phase runs, a live status line refreshed every interval.
// It implements sweep.Observer.
type ProgressReporter struct {
	writer   io.Writer
	interval time.Duration

	mu       sync.Mutex
	done     chan struct{}
	finished chan struct{}
	lastLen  int
}

// NewProgressReporter creates a reporter. A non-positive interval disables
// the live line and keeps only the header and summary lines.
func NewProgressReporter(writer io.Writer, interval time.Duration) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{writer: writer, interval: interval}
}

func (p *ProgressReporter) PhaseStarted(concurrency, requests int, stats *metrics.PhaseStats) {
	p.stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	PrintPhaseHeader(p.writer, concurrency)
	if p.interval <= 0 || stats == nil {
		return
	}
	p.done = make(chan struct{})
	p.finished = make(chan struct{})
	go p.run(stats, requests, p.done, p.finished)
}

func (p *ProgressReporter) PhaseFinished(report metrics.PhaseReport) {
	p.stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLine()
	PrintPhaseLine(p.writer, report)
}

// Stop halts the live line of a phase that never finished.
func (p *ProgressReporter) Stop() {
	p.stop()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLine()
}

func (p *ProgressReporter) stop() {
	p.mu.Lock()
	done, finished := p.done, p.finished
	p.done, p.finished = nil, nil
	p.mu.Unlock()

	if done == nil {
		return
	}
	close(done)
	<-finished
}

func (p *ProgressReporter) run(stats *metrics.PhaseStats, requests int, done <-chan struct{}, finished chan<- struct{}) {
	defer close(finished)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			line := progressLine(stats.Snapshot(), requests)
			p.mu.Lock()
			p.writeLine(line)
			p.mu.Unlock()
		case <-done:
			return
		}
	}
}

func progressLine(snap metrics.Snapshot, requests int) string {
	line := fmt.Sprintf("   %d/%d done | ok %d | fail %d | %.1f rps",
		snap.Completed, requests, snap.Successes, snap.Failures, snap.RequestsPerSec)
	if snap.Samples > 0 {
		line += fmt.Sprintf(" | p50 %s | p95 %s",
			snap.P50Latency.Round(time.Millisecond), snap.P95Latency.Round(time.Millisecond))
	}
	return line
}

// writeLine redraws the live line in place. Callers hold p.mu.
func (p *ProgressReporter) writeLine(line string) {
	pad := ""
	if n := p.lastLen - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprint(p.writer, "\r"+line+pad)
	p.lastLen = len(line)
}

func (p *ProgressReporter) clearLine() {
	if p.lastLen == 0 {
		return
	}
	fmt.Fprint(p.writer, "\r"+strings.Repeat(" ", p.lastLen)+"\r")
	p.lastLen = 0
}
