package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/robertguss/steershaft-checklist/internal/domain"
	"github.com/robertguss/steershaft-checklist/internal/keys"
	"github.com/robertguss/steershaft-checklist/internal/messages"
	"github.com/robertguss/steershaft-checklist/internal/theme"
	ctrl "github.com/robertguss/steershaft-checklist/internal/wizard"
)

// NoneSelectedWarning is shown when no work order passes the current step
const NoneSelectedWarning = "No work orders selected: every work order will be recorded as failing this step"

// Model is the per-step checklist screen. Row 0 is "Select all"; rows
// 1..n are the work orders.
type Model struct {
	width  int
	height int

	cursor    int
	comment   textinput.Model
	editing   bool
	stepIndex int

	snapshot ctrl.Snapshot
	keys     keys.KeyMap
	styles   theme.Styles
}

// New creates the wizard view
func New() Model {
	ti := textinput.New()
	ti.Placeholder = "Optional comment"
	ti.CharLimit = 500
	ti.Prompt = "Comment: "

	return Model{
		comment:   ti,
		stepIndex: -1,
		keys:      keys.Default(),
		styles:    theme.NewStyles(),
	}
}

// SetSize sets the available content area
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.comment.Width = max(width-16, 20)
}

// SetSnapshot syncs the view with the session. Moving to another step
// resets the cursor and loads that step's comment.
func (m *Model) SetSnapshot(snap ctrl.Snapshot) {
	m.snapshot = snap
	s := snap.Session
	if s.Screen != domain.ScreenWizard {
		m.stepIndex = -1
		m.editing = false
		m.comment.Blur()
		return
	}
	if s.StepIndex != m.stepIndex {
		m.stepIndex = s.StepIndex
		m.cursor = 0
		m.editing = false
		m.comment.Blur()
	}
	if answer, ok := s.CurrentAnswer(); ok && m.comment.Value() != answer.Comment {
		m.comment.SetValue(answer.Comment)
	}
	if m.cursor > s.WorkOrders.Len() {
		m.cursor = s.WorkOrders.Len()
	}
}

// Help returns the key help for the status bar
func (m Model) Help() string {
	if m.editing {
		return keys.Help(m.keys.Confirm, m.keys.Cancel)
	}
	return keys.Help(m.keys.Toggle, m.keys.SelectAll, m.keys.Comment, m.keys.Back, m.keys.Next)
}

// Update handles messages for the wizard view
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.handleCommentKey(msg)
		}
		return m.handleKeyMsg(msg)
	case messages.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	}

	if m.editing {
		var cmd tea.Cmd
		m.comment, cmd = m.comment.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleCommentKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Confirm, m.keys.Cancel) {
		m.editing = false
		m.comment.Blur()
		return m, nil
	}

	before := m.comment.Value()
	var cmd tea.Cmd
	m.comment, cmd = m.comment.Update(msg)
	if v := m.comment.Value(); v != before {
		return m, tea.Batch(cmd, messages.Do(domain.SetComment{Comment: v}))
	}
	return m, cmd
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	wos := m.snapshot.Session.WorkOrders

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < wos.Len() {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if m.cursor == 0 {
			return m, messages.Do(domain.SetSelectAll{Checked: !m.snapshot.AllSelected})
		}
		return m, messages.Do(domain.ToggleWorkOrder{WorkOrder: wos[m.cursor-1]})
	case key.Matches(msg, m.keys.SelectAll):
		return m, messages.Do(domain.SetSelectAll{Checked: !m.snapshot.AllSelected})
	case key.Matches(msg, m.keys.Comment):
		m.editing = true
		return m, m.comment.Focus()
	case key.Matches(msg, m.keys.Next):
		return m, messages.Do(domain.Next{})
	case key.Matches(msg, m.keys.Back):
		return m, messages.Do(domain.Back{})
	}
	return m, nil
}

// View renders the wizard view
func (m Model) View() string {
	s := m.snapshot.Session
	step, ok := s.CurrentStep()
	if !ok {
		return m.styles.Content.Render(m.styles.Muted.Render("No step"))
	}
	answer, _ := s.CurrentAnswer()
	total := s.WorkOrders.Len()

	var b strings.Builder
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("Step %d / %d", s.StepIndex+1, len(s.Steps))))
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("   Work orders: %d", total)))
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("   Selected %d/%d", m.snapshot.SelectedCount, total)))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Title.Render(step.Name))
	b.WriteString("\n")
	if step.Description != "" {
		b.WriteString(m.styles.Muted.Render(step.Description))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Muted.Render("Selected work orders pass this step; unselected ones fail it."))
	b.WriteString("\n\n")

	b.WriteString(m.row(0, checkbox(m.snapshot.AllSelected)+" Select all", false))
	for i, wo := range s.WorkOrders {
		selected := answer.IsSelected(wo)
		b.WriteString(m.row(i+1, checkbox(selected)+" "+wo, !selected))
	}

	if m.snapshot.NoneSelected {
		b.WriteString("\n")
		b.WriteString(m.styles.Warning.Render("⚠ " + NoneSelectedWarning))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.comment.View())
	b.WriteString("\n\n")

	next := "Next"
	if m.snapshot.IsLastStep {
		next = "Review"
	}
	b.WriteString(m.styles.ButtonDisabled.Render("Back"))
	b.WriteString("  ")
	b.WriteString(m.styles.Button.Render(next))

	return m.styles.Content.Render(b.String())
}

func (m Model) row(i int, label string, notSelected bool) string {
	if notSelected {
		label += "  " + m.styles.Tag.Render("NOT SELECTED")
	}
	if i == m.cursor && !m.editing {
		return m.styles.Cursor.Render("> ") + label + "\n"
	}
	return "  " + label + "\n"
}

func checkbox(checked bool) string {
	if checked {
		return "[x]"
	}
	return "[ ]"
}
