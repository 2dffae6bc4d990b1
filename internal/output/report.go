package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/torosent/sweepfire/internal/metrics"
	"github.com/torosent/sweepfire/internal/sweep"
)

// PrintPhaseHeader announces a phase before it starts.
func PrintPhaseHeader(w io.Writer, concurrency int) {
	fmt.Fprintf(w, "\n▶ Concurrency %d …\n", concurrency)
}

// PrintPhaseLine writes the one-line summary of a finished phase.
func PrintPhaseLine(w io.Writer, report metrics.PhaseReport) {
	rec := NewRecord(report)
	fmt.Fprintf(w, " ↳ %d/%d ok | median %ss | p95 %ss | %s rps | %s tps\n",
		rec.Success,
		rec.Requests,
		formatOptional(rec.MedianLatencyS),
		formatOptional(rec.P95LatencyS),
		formatFloat(rec.ThroughputRPS),
		formatFloat(rec.TokensPerSecond),
	)
}

// PrintSweepReport outputs a human-readable summary of every phase.
func PrintSweepReport(w io.Writer, report sweep.Report) {
	fmt.Fprintln(w, "\n--- Sweep Results ---")
	fmt.Fprintf(w, "Run ID:            %s\n", report.RunID)
	fmt.Fprintf(w, "Phases:            %d\n", len(report.Phases))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-12s %-9s %-9s %-6s %-10s %-10s %-10s %-10s\n",
		"Concurrency", "Requests", "Success", "Fail", "Median(s)", "P95(s)", "RPS", "Tokens/s")
	for _, phase := range report.Phases {
		rec := NewRecord(phase)
		fmt.Fprintf(w, "%-12d %-9d %-9d %-6d %-10s %-10s %-10s %-10s\n",
			rec.Concurrency,
			rec.Requests,
			rec.Success,
			rec.Fail,
			formatOptional(rec.MedianLatencyS),
			formatOptional(rec.P95LatencyS),
			formatFloat(rec.ThroughputRPS),
			formatFloat(rec.TokensPerSecond),
		)
	}

	for _, phase := range report.Phases {
		rows := metrics.FlattenErrors(phase.Errors)
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(w, "\nFailures at concurrency %d:\n", phase.Concurrency)
		for _, row := range rows {
			fmt.Fprintf(w, "  %s: %d\n", row.Label, row.Count)
		}
	}
}

// PrintJSONReport outputs the phase records as an indented JSON array.
func PrintJSONReport(w io.Writer, phases []metrics.PhaseReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewRecords(phases))
}

func formatOptional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
