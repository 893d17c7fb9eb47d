package reporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"devcleaner/internal/events"
	"devcleaner/pkg/utils"
)

const maxBarWidth = 60

type phase int

const (
	phaseScanning phase = iota
	phaseDeleting
	phaseDone
)

// messages
type eventMsg events.Event
type finishMsg struct{}

type model struct {
	root string
	sp   spinner.Model
	bar  progress.Model
	now  func() time.Time

	ph phase

	// scan counters
	scanned    int
	matched    int
	scanErrors int

	// deletion counters
	total     int
	done      int
	removed   int
	failed    int
	gone      int
	startedAt time.Time

	// latest status line
	last    string
	lastBad bool

	termW    int
	quitting bool
}

func newModel(root string) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = maxBarWidth / 2
	return model{
		root: root,
		sp:   sp,
		bar:  bar,
		now:  time.Now,
		ph:   phaseScanning,
	}
}

func (m model) Init() tea.Cmd {
	return m.sp.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termW = msg.Width
		m.bar.Width = msg.Width / 2
		if m.bar.Width > maxBarWidth {
			m.bar.Width = maxBarWidth
		}
		return m, nil

	case spinner.TickMsg:
		if m.quitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.sp, cmd = m.sp.Update(msg)
		return m, cmd

	case eventMsg:
		m.apply(events.Event(msg))
		return m, nil

	case finishMsg:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) apply(ev events.Event) {
	switch ev.Kind {
	case events.KindScanProgress, events.KindScanDone:
		m.scanned, m.matched = ev.Scanned, ev.Matched
		if ev.Kind == events.KindScanDone {
			m.setLast(ev.String(), false)
		}
	case events.KindScanError:
		m.scanErrors++
		m.setLast(ev.String(), true)
	case events.KindDeleteStart:
		m.ph = phaseDeleting
		m.total = ev.Total
		m.startedAt = m.now()
	case events.KindNothingToDelete:
		m.ph = phaseDone
		m.setLast(ev.String(), false)
	case events.KindTrashFailed:
		m.setLast(ev.String(), true)
	case events.KindOutcome:
		// workers finish out of order
		if ev.Done > m.done {
			m.done = ev.Done
		}
		if ev.Removed > m.removed {
			m.removed = ev.Removed
		}
		switch ev.Outcome {
		case events.Failed:
			m.failed++
		case events.Gone:
			m.gone++
		}
		m.setLast(ev.String(), ev.Outcome == events.Failed)
	case events.KindDeleteDone:
		m.ph = phaseDone
		m.done, m.removed, m.failed, m.gone = ev.Total, ev.Removed, ev.Failed, ev.Gone
		m.setLast(ev.String(), false)
	}
}

func (m *model) setLast(s string, bad bool) {
	m.last, m.lastBad = s, bad
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	switch m.ph {
	case phaseScanning:
		fmt.Fprintf(&b, "%s Scanning %s  %s\n", m.sp.View(), headerStyle.Render(m.root),
			countStyle.Render(fmt.Sprintf("Scanned: %d | Matched: %d", m.scanned, m.matched)))
	case phaseDeleting, phaseDone:
		var ratio float64
		if m.total > 0 {
			ratio = float64(m.done) / float64(m.total)
		}
		elapsed := m.now().Sub(m.startedAt)
		fmt.Fprintf(&b, "%s %s %d/%d [%s] eta %s\n", m.sp.View(), m.bar.ViewAs(ratio), m.done, m.total,
			utils.FormatClock(elapsed), utils.FormatClock(utils.ETA(elapsed, m.done, m.total)))
	}

	if m.last != "" {
		style := logStyle
		if m.lastBad {
			style = errorStyle
		}
		if m.termW > 0 {
			style = style.MaxWidth(m.termW)
		}
		b.WriteString(style.Render(m.last))
		b.WriteString("\n")
	}
	return b.String()
}
