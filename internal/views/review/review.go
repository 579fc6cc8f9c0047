package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/robertguss/steershaft-checklist/internal/domain"
	"github.com/robertguss/steershaft-checklist/internal/keys"
	"github.com/robertguss/steershaft-checklist/internal/messages"
	"github.com/robertguss/steershaft-checklist/internal/theme"
	"github.com/robertguss/steershaft-checklist/internal/wizard"
)

// Model shows the per-step summary before submission
type Model struct {
	width  int
	height int

	spinner    spinner.Model
	submitting bool

	snapshot wizard.Snapshot
	keys     keys.KeyMap
	styles   theme.Styles
}

// New creates the review view
func New() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = theme.NewStyles().Info

	return Model{
		spinner: s,
		keys:    keys.Default(),
		styles:  theme.NewStyles(),
	}
}

// SetSize sets the available content area
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetSnapshot syncs the view with the session
func (m *Model) SetSnapshot(snap wizard.Snapshot) {
	m.snapshot = snap
	m.submitting = snap.Submitting
}

// StartSubmitting shows the spinner until the next snapshot
func (m *Model) StartSubmitting() tea.Cmd {
	m.submitting = true
	return m.spinner.Tick
}

// Submitting reports whether the spinner is showing
func (m Model) Submitting() bool {
	return m.submitting
}

// Help returns the key help for the status bar
func (m Model) Help() string {
	return keys.Help(m.keys.Back, m.keys.Submit)
}

// Update handles messages for the review view
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Submit):
			return m, func() tea.Msg { return messages.SubmitMsg{} }
		case key.Matches(msg, m.keys.Back):
			return m, messages.Do(domain.Back{})
		}

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case messages.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	}
	return m, nil
}

// View renders the review view
func (m Model) View() string {
	s := m.snapshot.Session

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Review"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Operator: %s\n", m.styles.Bold.Render(strings.TrimSpace(s.Operator))))
	b.WriteString(fmt.Sprintf("Work orders (%d): %s\n\n", s.WorkOrders.Len(), strings.Join(s.WorkOrders.List(), ", ")))

	for _, sum := range m.snapshot.Summary {
		badge := m.styles.BadgePass.Render("PASS")
		if !sum.AllPassed() {
			badge = m.styles.BadgeFail.Render("FAIL")
		}
		b.WriteString(fmt.Sprintf("%s %s  %s\n",
			badge,
			m.styles.Bold.Render(sum.StepName),
			m.styles.Muted.Render(fmt.Sprintf("%d pass / %d fail", sum.PassCount, sum.FailCount)),
		))
		if len(sum.Failed) > 0 {
			b.WriteString(m.styles.Error.Render("    Failed: " + strings.Join(sum.Failed, ", ")))
			b.WriteString("\n")
		}
		if sum.Comment != "" {
			b.WriteString(m.styles.Muted.Render("    Comment: " + sum.Comment))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	if s.SubmitError != "" {
		b.WriteString(m.styles.Notice.Render(s.SubmitError))
		b.WriteString("\n\n")
	}

	if m.submitting {
		b.WriteString(m.spinner.View() + " Submitting...")
	} else {
		b.WriteString(m.styles.ButtonDisabled.Render("Back"))
		b.WriteString("  ")
		b.WriteString(m.styles.Button.Render("Submit"))
	}

	return m.styles.Content.Render(b.String())
}
