// Package tui hosts the calendar session in a terminal. The terminal has no
// native scroll containers, so the model plays both containers itself: it
// maps columns and lines to layout units, applies programmatic scrolls and
// reports them back as scroll events the way a browser would.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"calstrip/internal/calendar"
	"calstrip/internal/day"
	appLog "calstrip/internal/log"
	"calstrip/internal/window"
)

const (
	// cellWidth is the number of columns one strip cell occupies.
	cellWidth = 8
	// rowHeight is the number of lines one feed row occupies.
	rowHeight = 3
	// chromeLines: header, three strip lines, rule, help.
	chromeLines = 6

	maxEchoRounds = 4
)

// Model is the bubbletea model for the terminal calendar.
type Model struct {
	session *calendar.Session
	snap    calendar.Snapshot
	help    help.Model

	width, height int

	// cursor is the strip cell left/right move over; enter clicks it.
	cursor   int
	selected string
}

// New returns a model over session. Viewports are reported on the first
// tea.WindowSizeMsg.
func New(session *calendar.Session) Model {
	m := Model{
		session: session,
		help:    help.New(),
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, keys.Left):
			m.moveCursor(-1)
		case key.Matches(msg, keys.Right):
			m.moveCursor(1)
		case key.Matches(msg, keys.Enter):
			if err := m.session.ClickDay(m.cursor); err != nil {
				appLog.Debug("tui click ignored", "index", m.cursor, "reason", err.Error())
			}
		case key.Matches(msg, keys.Up):
			m.scrollFeed(-m.session.Extent())
		case key.Matches(msg, keys.Down):
			m.scrollFeed(m.session.Extent())
		case key.Matches(msg, keys.PageUp):
			m.scrollFeed(-m.snap.Feed.Viewport)
		case key.Matches(msg, keys.PageDown):
			m.scrollFeed(m.snap.Feed.Viewport)
		case key.Matches(msg, keys.Today):
			if err := m.session.SelectDay(m.session.Today()); err != nil {
				appLog.Error("tui select today failed", err)
			}
		default:
			return m, nil
		}
	default:
		return m, nil
	}

	m.refresh()
	return m, nil
}

// resize reports both viewports in layout units.
func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width

	extent := m.session.Extent()
	m.session.Resize(window.Horizontal, (width/cellWidth)*extent)
	m.session.Resize(window.Vertical, (max(height-chromeLines, 0)/rowHeight)*extent)
}

// refresh collects pending programmatic scrolls, applies them and echoes
// them back until the session settles.
func (m *Model) refresh() {
	snap := m.session.Snapshot()
	for i := 0; i < maxEchoRounds && (snap.Strip.ScrollTo != nil || snap.Feed.ScrollTo != nil); i++ {
		if off := snap.Strip.ScrollTo; off != nil {
			m.session.ScrollStrip(*off)
		}
		if off := snap.Feed.ScrollTo; off != nil {
			m.session.ScrollFeed(*off)
		}
		snap = m.session.Snapshot()
	}
	m.snap = snap

	if snap.SelectedDay != m.selected {
		m.selected = snap.SelectedDay
		m.cursor = day.DaysBetween(m.session.Today(), m.session.SelectedDay())
	}
}

func (m *Model) dayCount() int {
	extent := m.session.Extent()
	if extent <= 0 {
		return 0
	}
	return m.snap.Strip.TotalExtent / extent
}

// moveCursor moves the strip cursor and scrolls the strip just enough to
// keep it visible. That scroll is a user scroll.
func (m *Model) moveCursor(delta int) {
	count := m.dayCount()
	if count == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), count-1)

	p := m.snap.Strip.Pane
	if p.Viewport <= 0 {
		return
	}
	extent := m.session.Extent()
	start := m.cursor * extent
	switch {
	case start < p.Offset:
		m.session.ScrollStrip(start)
	case start+extent > p.Offset+p.Viewport:
		m.session.ScrollStrip(start + extent - p.Viewport)
	}
}

func (m *Model) scrollFeed(delta int) {
	if delta == 0 {
		return
	}
	m.session.ScrollFeed(m.snap.Feed.Offset + delta)
}

func (m Model) View() string {
	if m.width == 0 {
		return "loading...\n"
	}

	header := headerStyle.Width(m.width).Render("calstrip  " + m.snap.SelectedLabel)
	rule := dimStyle.Render(strings.Repeat("─", m.width))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.renderStrip(),
		rule,
		m.renderFeed(),
		m.help.View(keys),
	)
}

func (m Model) renderStrip() string {
	var cells []string
	for _, c := range m.snap.Strip.Cells {
		if !c.Visible {
			continue
		}
		style := cellStyle
		switch {
		case c.Selected:
			style = selectedCellStyle
		case c.Today:
			style = todayCellStyle
		}
		if c.Index == m.cursor {
			style = style.Underline(true)
		}
		cells = append(cells, style.Render(c.Weekday+"\n"+c.DayNum+"\n"+c.Month))
	}
	if len(cells) == 0 {
		return dimStyle.Render("\n(no days)\n")
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(
		lipgloss.JoinHorizontal(lipgloss.Top, cells...),
	)
}

func (m Model) renderFeed() string {
	lines := max(m.height-chromeLines, 0)
	var rows []string
	for _, r := range m.snap.Feed.Rows {
		if !r.Visible {
			continue
		}
		rows = append(rows,
			titleStyle.Render(r.Title),
			metaStyle.Render(r.Date+" · "+r.Time),
			dimStyle.Render(r.Description),
		)
	}
	if len(rows) == 0 {
		rows = append(rows, dimStyle.Render("No events"))
	}
	return lipgloss.NewStyle().
		MaxWidth(m.width).
		Height(lines).
		MaxHeight(lines).
		Render(strings.Join(rows, "\n"))
}
