package runconsole

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"jiskefet/internal/bootstrap/logging"
	"jiskefet/internal/ports"
	"jiskefet/internal/usecase/logbook"
)

const defaultPageSize = 20

// RunSource is the read side of the run service the console polls.
type RunSource interface {
	ListRuns(ctx context.Context, input logbook.ListRunsInput) ([]ports.Run, int64, error)
	FindRun(ctx context.Context, runNumber int64) (logbook.RunDetail, error)
}

type Options struct {
	PageSize        int
	RefreshInterval time.Duration
}

type runModel struct {
	ctx             context.Context
	source          RunSource
	pageSize        int
	refreshInterval time.Duration

	runs          []ports.Run
	total         int64
	pageNumber    int
	ascending     bool
	selectedIndex int
	detail        logbook.RunDetail
	hasDetail     bool
	status        string
}

type runsLoadedMsg struct {
	items []ports.Run
	total int64
	err   error
}

type runDetailLoadedMsg struct {
	runNumber int64
	detail    logbook.RunDetail
	err       error
}

type tickMsg struct{}

func NewRunModel(ctx context.Context, source RunSource, options Options) tea.Model {
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &runModel{
		ctx:             logging.WithAttrs(ctx, slog.String("component", "console.runs")),
		source:          source,
		pageSize:        pageSize,
		refreshInterval: interval,
		pageNumber:      1,
		status:          "loading",
	}
}

func (m *runModel) Init() tea.Cmd {
	return tea.Batch(m.loadRunsCmd(), m.tickCmd())
}

func (m *runModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadRunsCmd(), m.tickCmd())
	case runsLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.runs = msg.items
		m.total = msg.total
		if len(m.runs) == 0 {
			m.selectedIndex = 0
			m.hasDetail = false
			m.status = "no runs"
			return m, nil
		}
		if m.selectedIndex >= len(m.runs) {
			m.selectedIndex = len(m.runs) - 1
		}
		m.status = fmt.Sprintf("refreshed, page %d/%d, %d runs total", m.pageNumber, m.lastPage(), m.total)
		return m, m.loadSelectedRunCmd()
	case runDetailLoadedMsg:
		selected, ok := m.selectedRun()
		if !ok || selected.RunNumber != msg.runNumber {
			return m, nil
		}
		if msg.err != nil {
			m.hasDetail = false
			m.status = "detail failed: " + msg.err.Error()
			return m, nil
		}
		m.detail = msg.detail
		m.hasDetail = true
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadRunsCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				return m, m.loadSelectedRunCmd()
			}
		case "down", "j":
			if m.selectedIndex < len(m.runs)-1 {
				m.selectedIndex++
				return m, m.loadSelectedRunCmd()
			}
		case "n", "right":
			if m.pageNumber < m.lastPage() {
				m.pageNumber++
				m.selectedIndex = 0
				return m, m.loadRunsCmd()
			}
		case "p", "left":
			if m.pageNumber > 1 {
				m.pageNumber--
				m.selectedIndex = 0
				return m, m.loadRunsCmd()
			}
		case "o":
			m.ascending = !m.ascending
			m.pageNumber = 1
			m.selectedIndex = 0
			return m, m.loadRunsCmd()
		}
	}
	return m, nil
}

func (m *runModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Run Logbook"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"page=%d/%d size=%d order=%s refresh=%s",
		m.pageNumber,
		m.lastPage(),
		m.pageSize,
		m.orderDirection(),
		m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Runs"))
	builder.WriteString("\n")
	if len(m.runs) == 0 {
		builder.WriteString(dimStyle.Render("- no runs"))
		builder.WriteString("\n\n")
	} else {
		for index, run := range m.runs {
			line := fmt.Sprintf(
				"#%d [%s] type=%s quality=%s flps=%d bytes=%s",
				run.RunNumber,
				runState(run),
				firstNonEmpty(run.RunType, "-"),
				firstNonEmpty(run.RunQuality, "-"),
				run.NumberOfFlps,
				formatBytes(run.BytesReadOut),
			)
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if !m.hasDetail {
		builder.WriteString(dimStyle.Render("- no detail"))
		builder.WriteString("\n\n")
	} else {
		run := m.detail.Run
		builder.WriteString(fmt.Sprintf("Run: #%d %s\n", run.RunNumber, runState(run)))
		builder.WriteString(fmt.Sprintf("Started: %s\n", run.TimeO2Start.UTC().Format(time.RFC3339)))
		if run.TimeO2End != nil {
			builder.WriteString(fmt.Sprintf("Ended: %s\n", run.TimeO2End.UTC().Format(time.RFC3339)))
		}
		builder.WriteString(fmt.Sprintf(
			"Totals: bytes=%s timeframes=%d subtimeframes=%d\n",
			formatBytes(run.BytesReadOut),
			run.NumberOfTimeframes,
			run.NumberOfSubtimeframes,
		))
		builder.WriteString(fmt.Sprintf("Last FLP report: %s\n", firstNonEmpty(m.detail.LastFlpReport, "-")))

		builder.WriteString("\nFLPs:\n")
		if len(m.detail.FlpRoles) == 0 {
			builder.WriteString("- none\n")
		}
		for _, role := range m.detail.FlpRoles {
			builder.WriteString(fmt.Sprintf(
				"- %s@%s bytes=%s stf=%d tf=%d\n",
				role.FlpName,
				firstNonEmpty(role.FlpHostname, "-"),
				formatBytes(role.Counters.BytesReadOut),
				role.Counters.NumberOfSubtimeframes,
				role.Counters.NumberOfTimeframes,
			))
		}

		builder.WriteString("\nDetectors:\n")
		if len(m.detail.Detectors) == 0 {
			builder.WriteString("- none\n")
		}
		for _, link := range m.detail.Detectors {
			builder.WriteString(fmt.Sprintf("- %s (%s)\n", link.Detector.DetectorName, link.RunQuality))
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	builder.WriteString(dimStyle.Render("Keys: ↑/k ↓/j move  n/p page  o order  g refresh  q quit"))
	return builder.String()
}

func (m *runModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *runModel) loadRunsCmd() tea.Cmd {
	input := logbook.ListRunsInput{
		PageSize:       m.pageSize,
		PageNumber:     m.pageNumber,
		OrderDirection: m.orderDirection(),
	}
	return func() tea.Msg {
		items, total, err := m.source.ListRuns(m.ctx, input)
		if err != nil {
			logging.Warn(m.ctx, "list runs failed", slog.String("err", err.Error()))
		}
		return runsLoadedMsg{items: items, total: total, err: err}
	}
}

func (m *runModel) loadSelectedRunCmd() tea.Cmd {
	selected, ok := m.selectedRun()
	if !ok {
		return nil
	}

	return func() tea.Msg {
		detail, err := m.source.FindRun(m.ctx, selected.RunNumber)
		return runDetailLoadedMsg{runNumber: selected.RunNumber, detail: detail, err: err}
	}
}

func (m *runModel) selectedRun() (ports.Run, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.runs) {
		return ports.Run{}, false
	}
	return m.runs[m.selectedIndex], true
}

func (m *runModel) lastPage() int {
	if m.total <= 0 {
		return 1
	}
	return int((m.total + int64(m.pageSize) - 1) / int64(m.pageSize))
}

func (m *runModel) orderDirection() string {
	if m.ascending {
		return "ASC"
	}
	return "DESC"
}

func runState(run ports.Run) string {
	if run.TimeO2End != nil {
		return "ended"
	}
	return "running"
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
