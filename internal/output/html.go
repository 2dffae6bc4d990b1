package output

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/torosent/sweepfire/internal/metrics"
	"github.com/torosent/sweepfire/internal/sweep"
	"github.com/torosent/sweepfire/internal/threshold"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt      string
	RunID            string
	Metadata         ReportMetadata
	Phases           []HTMLPhase
	Totals           HTMLTotals
	ThresholdSummary *ThresholdSummary
	ChartJSON        string
}

// ReportMetadata describes the target of the sweep.
type ReportMetadata struct {
	TargetURL string
	Model     string
	Requests  int
}

// HTMLPhase is one table row.
type HTMLPhase struct {
	Record   PhaseRecord
	Duration time.Duration
	Errors   []metrics.ErrorBucket
}

// HTMLTotals sums every phase.
type HTMLTotals struct {
	Requests int
	Success  int64
	Fail     int64
	Tokens   int64
	Duration time.Duration
	PeakRPS  float64
	PeakTPS  float64
}

// ThresholdSummary groups threshold results for display.
type ThresholdSummary struct {
	Total   int
	Passed  int
	Failed  int
	Results []ThresholdResultJSON
}

// ThresholdResultJSON is the display form of one threshold result.
type ThresholdResultJSON struct {
	Threshold   string  `json:"threshold"`
	Concurrency int     `json:"concurrency"`
	Metric      string  `json:"metric"`
	Aggregate   string  `json:"aggregate"`
	Operator    string  `json:"operator"`
	Expected    float64 `json:"expected"`
	Actual      float64 `json:"actual"`
	Pass        bool    `json:"pass"`
}

// chartSeries is the column layout uPlot expects: x values then one
// array per series. Undefined latencies are encoded as null.
type chartSeries struct {
	Concurrency []int      `json:"concurrency"`
	RPS         []float64  `json:"rps"`
	TPS         []float64  `json:"tps"`
	Median      []*float64 `json:"median"`
	P95         []*float64 `json:"p95"`
}

// GenerateHTMLReport generates a standalone HTML report of a sweep with
// embedded per-level charts.
func GenerateHTMLReport(w io.Writer, report sweep.Report, thresholdResults []threshold.Result, metadata ReportMetadata) error {
	var thresholdSummary *ThresholdSummary
	if len(thresholdResults) > 0 {
		thresholdSummary = &ThresholdSummary{
			Total:   len(thresholdResults),
			Results: make([]ThresholdResultJSON, len(thresholdResults)),
		}
		for i, tr := range thresholdResults {
			thresholdSummary.Results[i] = ThresholdResultJSON{
				Threshold:   tr.Threshold.Raw,
				Concurrency: tr.Concurrency,
				Metric:      tr.Threshold.Metric,
				Aggregate:   tr.Threshold.Aggregate,
				Operator:    tr.Threshold.Operator,
				Expected:    tr.Threshold.Value,
				Actual:      tr.Actual,
				Pass:        tr.Pass,
			}
			if tr.Pass {
				thresholdSummary.Passed++
			} else {
				thresholdSummary.Failed++
			}
		}
	}

	var (
		phases = make([]HTMLPhase, 0, len(report.Phases))
		totals HTMLTotals
		chart  chartSeries
	)
	for _, p := range report.Phases {
		rec := NewRecord(p)
		phases = append(phases, HTMLPhase{Record: rec, Duration: p.Duration, Errors: metrics.FlattenErrors(p.Errors)})

		totals.Requests += p.Requests
		totals.Success += p.Success
		totals.Fail += p.Fail
		totals.Tokens += p.TotalTokens
		totals.Duration += p.Duration
		totals.PeakRPS = max(totals.PeakRPS, rec.ThroughputRPS)
		totals.PeakTPS = max(totals.PeakTPS, rec.TokensPerSecond)

		chart.Concurrency = append(chart.Concurrency, rec.Concurrency)
		chart.RPS = append(chart.RPS, rec.ThroughputRPS)
		chart.TPS = append(chart.TPS, rec.TokensPerSecond)
		chart.Median = append(chart.Median, rec.MedianLatencyS)
		chart.P95 = append(chart.P95, rec.P95LatencyS)
	}

	chartJSON, err := json.Marshal(chart)
	if err != nil {
		return fmt.Errorf("failed to marshal chart data: %w", err)
	}

	data := HTMLReportData{
		GeneratedAt:      time.Now().Format(time.RFC3339),
		RunID:            report.RunID,
		Metadata:         metadata,
		Phases:           phases,
		Totals:           totals,
		ThresholdSummary: thresholdSummary,
		ChartJSON:        string(chartJSON),
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatDuration": func(d time.Duration) string {
			return d.Round(time.Millisecond).String()
		},
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatSeconds": formatOptional,
		"formatPercent": func(part int64, total int) string {
			if total == 0 {
				return "0.0"
			}
			return fmt.Sprintf("%.1f", (float64(part)/float64(total))*100)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Sweepfire Concurrency Sweep Report</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 {
            font-size: 2rem;
            margin-bottom: 10px;
        }
        header .meta {
            opacity: 0.9;
            font-size: 0.9rem;
        }
        .content {
            padding: 40px;
        }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: #f8f9fa;
            border-radius: 8px;
            padding: 20px;
            border-left: 4px solid #667eea;
        }
        .card h3 {
            font-size: 0.9rem;
            color: #6c757d;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 10px;
        }
        .card .value {
            font-size: 2rem;
            font-weight: bold;
            color: #2c3e50;
        }
        .card .subvalue {
            font-size: 0.85rem;
            color: #6c757d;
            margin-top: 5px;
        }
        .card.success {
            border-left-color: #10b981;
        }
        .card.error {
            border-left-color: #ef4444;
        }
        .card.warning {
            border-left-color: #f59e0b;
        }
        .section {
            margin-bottom: 40px;
        }
        .section h2 {
            font-size: 1.5rem;
            margin-bottom: 20px;
            padding-bottom: 10px;
            border-bottom: 2px solid #e5e7eb;
        }
        .chart-container {
            background: white;
            border-radius: 8px;
            padding: 20px;
            margin-bottom: 30px;
            border: 1px solid #e5e7eb;
        }
        .chart-container h3 {
            font-size: 1.1rem;
            margin-bottom: 15px;
            color: #4b5563;
        }
        .chart {
            width: 100%;
            height: 300px;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            background: white;
        }
        th, td {
            text-align: left;
            padding: 12px;
            border-bottom: 1px solid #e5e7eb;
        }
        th {
            background: #f8f9fa;
            font-weight: 600;
            color: #4b5563;
            font-size: 0.9rem;
            text-transform: uppercase;
            letter-spacing: 0.5px;
        }
        tr:hover {
            background: #f8f9fa;
        }
        .badge {
            display: inline-block;
            padding: 4px 12px;
            border-radius: 12px;
            font-size: 0.85rem;
            font-weight: 600;
        }
        .badge-success {
            background: #d1fae5;
            color: #065f46;
        }
        .badge-error {
            background: #fee2e2;
            color: #991b1b;
        }
        .latency-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(150px, 1fr));
            gap: 15px;
            margin-top: 20px;
        }
        .latency-item {
            background: #f8f9fa;
            padding: 15px;
            border-radius: 6px;
            text-align: center;
        }
        .latency-item .label {
            font-size: 0.85rem;
            color: #6c757d;
            margin-bottom: 5px;
        }
        .latency-item .value {
            font-size: 1.3rem;
            font-weight: bold;
            color: #2c3e50;
        }
        .no-data {
            text-align: center;
            padding: 40px;
            color: #6c757d;
            font-style: italic;
        }
    </style>
    <script src="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.iife.min.js"></script>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.min.css">
</head>
<body>
    <div class="container">
        <header>
            <h1>🔥 Sweepfire Concurrency Sweep Report</h1>
            {{if .Metadata.TargetURL}}
            <div class="meta" style="margin-top: 5px;">Target: {{.Metadata.TargetURL}}{{if .Metadata.Model}} | Model: {{.Metadata.Model}}{{end}}</div>
            {{end}}
            <div class="meta">Run: {{.RunID}} | Generated: {{.GeneratedAt}} | Duration: {{formatDuration .Totals.Duration}}</div>
        </header>

        <div class="content">
            <div class="grid">
                <div class="card">
                    <h3>Total Requests</h3>
                    <div class="value">{{.Totals.Requests}}</div>
                    <div class="subvalue">{{len .Phases}} phases{{if .Metadata.Requests}}, {{.Metadata.Requests}} per phase{{end}}</div>
                </div>
                <div class="card success">
                    <h3>Successful</h3>
                    <div class="value">{{.Totals.Success}}</div>
                    <div class="subvalue">{{formatPercent .Totals.Success .Totals.Requests}}%</div>
                </div>
                <div class="card error">
                    <h3>Failed</h3>
                    <div class="value">{{.Totals.Fail}}</div>
                    <div class="subvalue">{{formatPercent .Totals.Fail .Totals.Requests}}%</div>
                </div>
                <div class="card">
                    <h3>Peak Throughput</h3>
                    <div class="value">{{formatFloat .Totals.PeakRPS}}</div>
                    <div class="subvalue">requests/sec</div>
                </div>
                <div class="card warning">
                    <h3>Peak Tokens/sec</h3>
                    <div class="value">{{formatFloat .Totals.PeakTPS}}</div>
                    <div class="subvalue">{{.Totals.Tokens}} tokens total</div>
                </div>
            </div>

            {{if .Phases}}
            <div class="section">
                <h2>Scaling by Concurrency</h2>

                <div class="chart-container">
                    <h3>Throughput</h3>
                    <div id="throughput-chart" class="chart"></div>
                </div>

                <div class="chart-container">
                    <h3>Latency (s)</h3>
                    <div id="latency-chart" class="chart"></div>
                </div>
            </div>

            <div class="section">
                <h2>Phases</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Concurrency</th>
                            <th>Requests</th>
                            <th>Success</th>
                            <th>Failed</th>
                            <th>Median (s)</th>
                            <th>P95 (s)</th>
                            <th>RPS</th>
                            <th>Tokens/s</th>
                            <th>Duration</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Phases}}
                        <tr>
                            <td><strong>{{.Record.Concurrency}}</strong></td>
                            <td>{{.Record.Requests}}</td>
                            <td>{{.Record.Success}}</td>
                            <td>{{.Record.Fail}}</td>
                            <td>{{formatSeconds .Record.MedianLatencyS}}</td>
                            <td>{{formatSeconds .Record.P95LatencyS}}</td>
                            <td>{{formatFloat .Record.ThroughputRPS}}</td>
                            <td>{{formatFloat .Record.TokensPerSecond}}</td>
                            <td>{{formatDuration .Duration}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{else}}
            <div class="no-data">No phases completed.</div>
            {{end}}

            {{if .ThresholdSummary}}
            <div class="section">
                <h2>Thresholds ({{.ThresholdSummary.Passed}}/{{.ThresholdSummary.Total}} Passed)</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Threshold</th>
                            <th>Concurrency</th>
                            <th>Expected</th>
                            <th>Actual</th>
                            <th>Status</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .ThresholdSummary.Results}}
                        <tr>
                            <td>{{.Threshold}}</td>
                            <td>{{.Concurrency}}</td>
                            <td>{{.Operator}} {{formatFloat .Expected}}</td>
                            <td>{{formatFloat .Actual}}</td>
                            <td>
                                {{if .Pass}}
                                <span class="badge badge-success">✓ PASS</span>
                                {{else}}
                                <span class="badge badge-error">✗ FAIL</span>
                                {{end}}
                            </td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            {{range .Phases}}{{if .Errors}}
            <div class="section">
                <h2>Failures at Concurrency {{.Record.Concurrency}}</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Error</th>
                            <th>Count</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Errors}}
                        <tr>
                            <td>{{.Label}}</td>
                            <td>{{.Count}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}{{end}}
        </div>
    </div>

    {{if .Phases}}
    <script>
        const chart = JSON.parse({{.ChartJSON}});

        new uPlot({
            title: "Throughput by Concurrency",
            width: document.getElementById('throughput-chart').offsetWidth,
            height: 300,
            scales: { x: { time: false } },
            series: [
                { label: "Concurrency" },
                { label: "RPS", stroke: "#667eea", width: 2 },
                { label: "Tokens/s", stroke: "#10b981", width: 2, scale: "tps" }
            ],
            axes: [
                { label: "Concurrency" },
                { label: "Requests/sec" },
                { label: "Tokens/sec", side: 1, scale: "tps" }
            ]
        }, [chart.concurrency, chart.rps, chart.tps], document.getElementById('throughput-chart'));

        new uPlot({
            title: "Latency by Concurrency",
            width: document.getElementById('latency-chart').offsetWidth,
            height: 300,
            scales: { x: { time: false } },
            series: [
                { label: "Concurrency" },
                { label: "Median", stroke: "#f59e0b", width: 2 },
                { label: "P95", stroke: "#ef4444", width: 2 }
            ],
            axes: [
                { label: "Concurrency" },
                { label: "Seconds" }
            ]
        }, [chart.concurrency, chart.median, chart.p95], document.getElementById('latency-chart'));
    </script>
    {{end}}
</body>
</html>
`
