package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/christopherklint97/redlog/internal/delivery"
)

const maxListed = 10

type statusMsg delivery.Status

type busyMsg bool

type queueMsg struct {
	items []delivery.QueuedItem
	err   error
}

type drainDoneMsg struct{}

// Monitor shows the engine's status, a spinner while it is busy and the
// offline queue. "r" drains the queue.
type Monitor struct {
	ctx     context.Context
	engine  *delivery.Engine
	online  func() bool
	spinner spinner.Model

	status delivery.Status
	busy   bool
	items  []delivery.QueuedItem
	errMsg string
}

// NewMonitor builds the model. online may be nil when no watcher runs.
func NewMonitor(ctx context.Context, engine *delivery.Engine, online func() bool) *Monitor {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return &Monitor{
		ctx:     ctx,
		engine:  engine,
		online:  online,
		spinner: s,
		status:  engine.Status().Get(),
		busy:    engine.Busy().Get(),
	}
}

// Attach forwards engine changes into p. Call it before p.Run; the
// returned func detaches.
func (m *Monitor) Attach(p *tea.Program) func() {
	skipStatus, skipBusy := true, true
	stopStatus := m.engine.Status().Subscribe(func(s delivery.Status) {
		if skipStatus {
			skipStatus = false
			return
		}
		p.Send(statusMsg(s))
	})
	stopBusy := m.engine.Busy().Subscribe(func(b bool) {
		if skipBusy {
			skipBusy = false
			return
		}
		p.Send(busyMsg(b))
	})
	return func() {
		stopStatus()
		stopBusy()
	}
}

func (m *Monitor) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadQueue)
}

func (m *Monitor) loadQueue() tea.Msg {
	items, err := m.engine.Pending()
	return queueMsg{items: items, err: err}
}

func (m *Monitor) drain() tea.Msg {
	m.engine.Drain(m.ctx)
	return drainDoneMsg{}
}

func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "r":
			if m.busy {
				return m, nil
			}
			return m, m.drain
		}
	case statusMsg:
		m.status = delivery.Status(msg)
		return m, m.loadQueue
	case busyMsg:
		m.busy = bool(msg)
		if !m.busy {
			return m, m.loadQueue
		}
	case drainDoneMsg:
		return m, m.loadQueue
	case queueMsg:
		m.items = msg.items
		m.errMsg = ""
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Monitor) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("redlog — offline queue"))
	b.WriteString("\n")

	if m.online != nil {
		if m.online() {
			b.WriteString(successStyle.Render("● Redmine reachable"))
		} else {
			b.WriteString(warningStyle.Render("○ Redmine unreachable"))
		}
		b.WriteString("\n")
	}

	line := RenderStatus(m.status)
	if m.status.Message == "" {
		line = dimStyle.Render("Idle")
	}
	if m.busy {
		line = m.spinner.View() + " " + line
	}
	b.WriteString(line)
	b.WriteString("\n\n")

	b.WriteString(m.queueView())

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.errMsg))
	}

	b.WriteString(helpStyle.Render("r: retry queue • q: quit"))
	return b.String()
}

func (m *Monitor) queueView() string {
	if len(m.items) == 0 {
		return dimStyle.Render("Queue is empty.") + "\n"
	}

	var rows []string
	for i, it := range m.items {
		if i == maxListed {
			rows = append(rows, dimStyle.Render(fmt.Sprintf("… and %d more", len(m.items)-maxListed)))
			break
		}
		rows = append(rows, fmt.Sprintf("%d. Issue #%d  %s  %gh  %s",
			i+1, it.Entry.IssueID, it.Entry.SpentOn, it.Entry.Hours, dimStyle.Render(queuedAge(it.QueuedAt))))
	}
	header := highlightStyle.Render(fmt.Sprintf("%d queued", len(m.items)))
	return boxStyle.Render(header+"\n"+strings.Join(rows, "\n")) + "\n"
}

func queuedAge(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2 15:04")
}
