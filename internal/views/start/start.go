package start

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robertguss/steershaft-checklist/internal/domain"
	"github.com/robertguss/steershaft-checklist/internal/keys"
	"github.com/robertguss/steershaft-checklist/internal/messages"
	"github.com/robertguss/steershaft-checklist/internal/theme"
	"github.com/robertguss/steershaft-checklist/internal/wizard"
)

// Focus identifies the field receiving keys
type Focus int

const (
	FocusOperator Focus = iota
	FocusScan
	FocusList
)

// StartBlockedHint is shown when the operator tries to start too early
const StartBlockedHint = "Enter your name and scan at least one work order to start"

// Model is the Start screen: operator name, work-order scanning and the
// list of scanned work orders.
type Model struct {
	width  int
	height int

	operator   textinput.Model
	scan       textinput.Model
	focus      Focus
	cursor     int
	terminator func(key string) bool

	snapshot wizard.Snapshot
	keys     keys.KeyMap
	styles   theme.Styles
}

// New creates the Start view. isTerminator reports whether a key ends a
// scanned work order; a nil func accepts only enter.
func New(isTerminator func(key string) bool) Model {
	if isTerminator == nil {
		isTerminator = func(key string) bool { return key == "enter" }
	}

	op := textinput.New()
	op.Placeholder = "Operator name"
	op.CharLimit = 64
	op.Prompt = "Name: "

	scan := textinput.New()
	scan.Placeholder = "Scan or type a work order"
	scan.CharLimit = 128
	scan.Prompt = "Scan: "

	m := Model{
		operator:   op,
		scan:       scan,
		terminator: isTerminator,
		keys:       keys.Default(),
		styles:     theme.NewStyles(),
	}
	m.setFocus(FocusOperator)
	return m
}

// Init starts the cursor blinking
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize sets the available content area
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetSnapshot syncs the view with the session
func (m *Model) SetSnapshot(snap wizard.Snapshot) {
	m.snapshot = snap
	if m.operator.Value() != snap.Session.Operator {
		m.operator.SetValue(snap.Session.Operator)
	}
	if n := snap.Session.WorkOrders.Len(); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	if m.focus == FocusList && snap.Session.WorkOrders.Len() == 0 {
		m.setFocus(FocusScan)
	}
}

// Help returns the key help for the status bar
func (m Model) Help() string {
	return keys.Help(m.keys.NextItem, m.keys.Start, m.keys.Quit)
}

// Update handles messages for the Start view
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case messages.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case FocusOperator:
		m.operator, cmd = m.operator.Update(msg)
	case FocusScan:
		m.scan, cmd = m.scan.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	// A scanner terminator may also be a navigation key such as tab
	if m.focus == FocusScan && m.terminator(msg.String()) {
		raw := m.scan.Value()
		m.scan.Reset()
		if strings.TrimSpace(raw) == "" {
			return m, nil
		}
		return m, messages.Do(domain.AddWorkOrder{Raw: raw})
	}

	switch {
	case key.Matches(msg, m.keys.Start):
		if !m.snapshot.CanStart {
			return m, messages.Status(StartBlockedHint, false)
		}
		return m, messages.Do(domain.StartChecklist{})

	case key.Matches(msg, m.keys.NextItem):
		return m, m.setFocus(m.nextFocus(1))

	case key.Matches(msg, m.keys.PrevItem):
		return m, m.setFocus(m.nextFocus(-1))
	}

	switch m.focus {
	case FocusOperator:
		if msg.String() == "enter" {
			return m, m.setFocus(FocusScan)
		}
		before := m.operator.Value()
		var cmd tea.Cmd
		m.operator, cmd = m.operator.Update(msg)
		if v := m.operator.Value(); v != before {
			return m, tea.Batch(cmd, messages.Do(domain.SetOperator{Operator: v}))
		}
		return m, cmd

	case FocusScan:
		var cmd tea.Cmd
		m.scan, cmd = m.scan.Update(msg)
		return m, cmd

	case FocusList:
		wos := m.snapshot.Session.WorkOrders
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < wos.Len()-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Remove):
			if m.cursor < wos.Len() {
				return m, messages.Do(domain.RemoveWorkOrder{WorkOrder: wos[m.cursor]})
			}
		}
	}
	return m, nil
}

func (m Model) nextFocus(delta int) Focus {
	n := 2
	if m.snapshot.Session.WorkOrders.Len() > 0 {
		n = 3
	}
	return Focus((int(m.focus) + delta + n) % n)
}

func (m *Model) setFocus(f Focus) tea.Cmd {
	m.focus = f
	m.operator.Blur()
	m.scan.Blur()
	switch f {
	case FocusOperator:
		return m.operator.Focus()
	case FocusScan:
		return m.scan.Focus()
	}
	return nil
}

// View renders the Start view
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Start"))
	b.WriteString("\n\n")
	b.WriteString(m.operator.View())
	b.WriteString("\n")
	b.WriteString(m.scan.View())
	b.WriteString("\n\n")

	wos := m.snapshot.Session.WorkOrders
	b.WriteString(m.styles.Subtitle.Render(fmt.Sprintf("Work orders (%d)", wos.Len())))
	b.WriteString("\n")
	if wos.Len() == 0 {
		b.WriteString(m.styles.Muted.Render("  No work orders scanned yet"))
		b.WriteString("\n")
	}
	for i, wo := range wos {
		line := "  " + wo
		if m.focus == FocusList && i == m.cursor {
			line = m.styles.Cursor.Render("> "+wo) + m.styles.Muted.Render("  x remove")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.snapshot.CanStart {
		b.WriteString(m.styles.Button.Render("Start checklist (ctrl+s)"))
	} else {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left,
			m.styles.ButtonDisabled.Render("Start checklist (ctrl+s)"),
			m.styles.Muted.Render(StartBlockedHint),
		))
	}

	return m.styles.Content.Render(b.String())
}
