// Package dashboard renders a live terminal view of a concurrency sweep.
package dashboard

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/torosent/sweepfire/internal/metrics"
)

const refreshInterval = 250 * time.Millisecond

// SweepInfo holds the sweep parameters shown in the header.
type SweepInfo struct {
	Target   string
	Model    string
	RunID    string
	Levels   []int
	Requests int
}

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	styleSubtle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleFail   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleBox    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("6")).Padding(0, 1)
)

type (
	phaseStartedMsg struct {
		concurrency int
		requests    int
		stats       *metrics.PhaseStats
	}
	phaseFinishedMsg struct{ report metrics.PhaseReport }
	sweepDoneMsg     struct{}
	tickMsg          time.Time
)

// Model is the bubbletea model behind the dashboard.
type Model struct {
	info     SweepInfo
	shutdown func()

	bar   progress.Model
	width int

	phase       int
	concurrency int
	requests    int
	stats       *metrics.PhaseStats
	snapshot    metrics.Snapshot
	finished    []metrics.PhaseReport

	done     bool
	quitting bool
}

// NewModel creates the dashboard model. shutdown is called when the user
// quits before the sweep ends.
func NewModel(info SweepInfo, shutdown func()) Model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40
	return Model{info: info, shutdown: shutdown, bar: bar}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if !m.done && m.shutdown != nil {
				m.shutdown()
			}
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-20, 10), 60)
	case tickMsg:
		if m.stats != nil {
			m.snapshot = m.stats.Snapshot()
		}
		if m.done {
			return m, nil
		}
		return m, tick()
	case phaseStartedMsg:
		m.phase++
		m.concurrency = msg.concurrency
		m.requests = msg.requests
		m.stats = msg.stats
		m.snapshot = metrics.Snapshot{}
	case phaseFinishedMsg:
		m.finished = append(m.finished, msg.report)
		if m.stats != nil {
			m.snapshot = m.stats.Snapshot()
		}
		m.stats = nil
	case sweepDoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("🔥 Sweepfire") + "\n")
	if m.info.Target != "" {
		b.WriteString(styleSubtle.Render(fmt.Sprintf("%s | %s", m.info.Target, m.info.Model)) + "\n")
	}
	if m.info.RunID != "" {
		b.WriteString(styleSubtle.Render("run "+m.info.RunID) + "\n")
	}
	b.WriteString("\n")

	if m.phase == 0 {
		b.WriteString("Waiting for first phase...\n")
	} else {
		b.WriteString(styleBox.Render(m.currentPhaseView()) + "\n")
	}

	if len(m.finished) > 0 {
		b.WriteString("\n" + styleHeader.Render("Completed phases") + "\n")
		b.WriteString(finishedTable(m.finished))
	}

	footer := "q: stop sweep"
	if m.done {
		footer = "sweep complete"
	}
	b.WriteString("\n" + styleSubtle.Render(footer) + "\n")
	return b.String()
}

func (m Model) currentPhaseView() string {
	var b strings.Builder
	total := len(m.info.Levels)
	if total > 0 {
		fmt.Fprintf(&b, "%s  (phase %d/%d)\n", styleHeader.Render(fmt.Sprintf("Concurrency %d", m.concurrency)), m.phase, total)
	} else {
		b.WriteString(styleHeader.Render(fmt.Sprintf("Concurrency %d", m.concurrency)) + "\n")
	}

	snap := m.snapshot
	percent := 0.0
	if m.requests > 0 {
		percent = min(float64(snap.Completed)/float64(m.requests), 1)
	}
	fmt.Fprintf(&b, "%s %d/%d\n", m.bar.ViewAs(percent), snap.Completed, m.requests)

	failures := fmt.Sprintf("fail %d", snap.Failures)
	if snap.Failures > 0 {
		failures = styleFail.Render(failures)
	}
	fmt.Fprintf(&b, "ok %d | %s | %.1f rps | %d tokens", snap.Successes, failures, snap.RequestsPerSec, snap.Tokens)
	if snap.Samples > 0 {
		fmt.Fprintf(&b, "\np50 %s | p95 %s", snap.P50Latency.Round(time.Millisecond), snap.P95Latency.Round(time.Millisecond))
	}
	return b.String()
}

func finishedTable(phases []metrics.PhaseReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-6s %-9s %-9s %-9s %-9s %-9s\n", "conc", "ok", "median", "p95", "rps", "tps")
	for _, p := range phases {
		fmt.Fprintf(&b, "%-6d %-9s %-9s %-9s %-9.2f %-9.2f\n",
			p.Concurrency,
			fmt.Sprintf("%d/%d", p.Success, p.Requests),
			seconds(p.MedianLatency),
			seconds(p.P95Latency),
			p.ThroughputRPS,
			p.TokensPerSecond,
		)
	}
	return b.String()
}

func seconds(d *time.Duration) string {
	if d == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// Dashboard runs the model in a bubbletea program and feeds it sweep
// events. It implements sweep.Observer.
type Dashboard struct {
	program *tea.Program
	wg      sync.WaitGroup
	once    sync.Once
	err     error
}

// New creates a dashboard. Extra program options are passed to bubbletea.
func New(info SweepInfo, shutdown func(), opts ...tea.ProgramOption) *Dashboard {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &Dashboard{program: tea.NewProgram(NewModel(info, shutdown), opts...)}
}

// Start runs the program in the background.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if _, err := d.program.Run(); err != nil {
			d.err = fmt.Errorf("dashboard: %w", err)
		}
	}()
}

func (d *Dashboard) PhaseStarted(concurrency, requests int, stats *metrics.PhaseStats) {
	d.program.Send(phaseStartedMsg{concurrency: concurrency, requests: requests, stats: stats})
}

func (d *Dashboard) PhaseFinished(report metrics.PhaseReport) {
	d.program.Send(phaseFinishedMsg{report: report})
}

// Stop ends the program and restores the terminal.
func (d *Dashboard) Stop() error {
	d.once.Do(func() {
		d.program.Send(sweepDoneMsg{})
		d.wg.Wait()
	})
	return d.err
}
