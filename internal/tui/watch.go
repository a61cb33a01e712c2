// Package tui renders the live tracking dashboard shown by `worktime watch`.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/output"
	"github.com/joescharf/worktime/internal/timeline"
	"github.com/joescharf/worktime/internal/wallclock"
)

// Source provides the data the dashboard polls.
type Source interface {
	Status(ctx context.Context) (*engine.Status, error)
	Timeline(ctx context.Context, start, end string) (*timeline.Timeline, error)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4A90E2")).
			Padding(0, 1).
			MarginBottom(1)

	trackingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 1).
			MarginBottom(1)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

const (
	minBarWidth  = 20
	laneNameCols = 16
)

type tickMsg time.Time

type dataMsg struct {
	status   *engine.Status
	timeline *timeline.Timeline
	err      error
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	src      Source
	interval time.Duration
	status   *engine.Status
	timeline *timeline.Timeline
	err      error
	width    int
	height   int
}

// New creates a dashboard polling src every interval.
func New(src Source, interval time.Duration) Model {
	if interval <= 0 {
		interval = time.Second
	}
	return Model{src: src, interval: interval}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchCmd() tea.Cmd {
	src := m.src
	timeout := m.interval
	if timeout < 2*time.Second {
		timeout = 2 * time.Second
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		st, err := src.Status(ctx)
		if err != nil {
			return dataMsg{err: err}
		}
		today := wallclock.Now().FormatDate()
		tl, err := src.Timeline(ctx, today, today)
		return dataMsg{status: st, timeline: tl, err: err}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		return m, tea.Batch(m.fetchCmd(), m.tickCmd())
	case dataMsg:
		m.err = msg.err
		if msg.status != nil {
			m.status = msg.status
		}
		if msg.timeline != nil {
			m.timeline = msg.timeline
		}
	}
	return m, nil
}

func (m Model) View() string {
	width := m.width
	if width == 0 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(headerStyle.Width(width).Render(
		fmt.Sprintf("worktime - %s", wallclock.Now().Time().Format("Mon 2 Jan 2006 15:04:05"))))
	b.WriteString("\n")

	b.WriteString(boxStyle.Width(width - 2).Render(m.statusView()))
	b.WriteString("\n")

	if m.timeline != nil {
		b.WriteString(boxStyle.Width(width - 2).Render(m.timelineView(width - 6)))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(idleStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("Press 'q' or Ctrl+C to quit"))
	return b.String()
}

func (m Model) statusView() string {
	st := m.status
	if st == nil {
		return "Connecting..."
	}
	if !st.IsTracking {
		line := dimStyle.Render("Not tracking")
		if st.PendingIdle != nil {
			line += "\n" + pendingLine(st.PendingIdle)
		}
		return line
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("%s %s", trackingStyle.Render("● TRACKING"), st.ProjectName))
	if st.ActivityType != nil {
		lines = append(lines, "Activity: "+*st.ActivityType)
	}
	lines = append(lines, "Elapsed:  "+output.Duration(st.ElapsedSeconds))
	if st.AppName != "" {
		lines = append(lines, "App:      "+st.AppName)
	}
	lines = append(lines, fmt.Sprintf("Idle threshold: %d min", st.IdleThresholdMinutes))
	if st.PendingIdle != nil {
		lines = append(lines, pendingLine(st.PendingIdle))
	}
	return strings.Join(lines, "\n")
}

func pendingLine(p *engine.PendingIdlePeriod) string {
	return idleStyle.Render(fmt.Sprintf("Idle %d min since %s awaiting attribution",
		p.Minutes, p.StartTime.Time().Format("15:04")))
}

func (m Model) timelineView(width int) string {
	tl := m.timeline
	if tl.Empty {
		return "Today\n\n" + dimStyle.Render("No sessions yet")
	}

	barWidth := width - laneNameCols - 10
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Today  %s\n\n", output.Duration(tl.TotalSeconds))
	b.WriteString(strings.Repeat(" ", laneNameCols+1))
	b.WriteString(markerRow(tl.Markers, barWidth))
	b.WriteString("\n")
	for _, lane := range tl.Lanes {
		fmt.Fprintf(&b, "%-*s %s %s\n", laneNameCols, truncate(lane.ProjectName, laneNameCols),
			laneBar(lane, barWidth), output.Duration(lane.TotalSeconds))
	}
	return strings.TrimRight(b.String(), "\n")
}

// laneBar draws each segment over its [StartPos, EndPos) share of the bar.
func laneBar(lane timeline.Lane, width int) string {
	cells := []rune(strings.Repeat("·", width))
	for _, seg := range lane.Segments {
		from := int(seg.StartPos * float64(width))
		to := int(seg.EndPos * float64(width))
		if to <= from {
			to = from + 1
		}
		for i := from; i < to && i < width; i++ {
			cells[i] = fill(seg.SessionType)
		}
	}
	return string(cells)
}

func fill(t models.SessionType) rune {
	switch t {
	case models.SessionTypeOffComputer:
		return '▒'
	case models.SessionTypeManual:
		return '░'
	default:
		return '█'
	}
}

// markerRow places marker labels at their positions, skipping overlaps.
func markerRow(markers []timeline.Marker, width int) string {
	row := []rune(strings.Repeat(" ", width))
	next := 0
	for _, mk := range markers {
		col := int(mk.Position * float64(width))
		label := []rune(mk.Label)
		if col < next || col+len(label) > width {
			continue
		}
		copy(row[col:], label)
		next = col + len(label) + 1
	}
	return string(row)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
