package done

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/robertguss/steershaft-checklist/internal/domain"
	"github.com/robertguss/steershaft-checklist/internal/keys"
	"github.com/robertguss/steershaft-checklist/internal/messages"
	"github.com/robertguss/steershaft-checklist/internal/theme"
	"github.com/robertguss/steershaft-checklist/internal/wizard"
)

// Model confirms a successful submission
type Model struct {
	snapshot wizard.Snapshot
	keys     keys.KeyMap
	styles   theme.Styles
}

// New creates the done view
func New() Model {
	return Model{
		keys:   keys.Default(),
		styles: theme.NewStyles(),
	}
}

// SetSnapshot syncs the view with the session
func (m *Model) SetSnapshot(snap wizard.Snapshot) {
	m.snapshot = snap
}

// Help returns the key help for the status bar
func (m Model) Help() string {
	return keys.Help(m.keys.StartNew, m.keys.Quit)
}

// Update handles messages for the done view
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.StartNew) {
		return m, messages.Do(domain.Reset{})
	}
	return m, nil
}

// View renders the done view
func (m Model) View() string {
	count := 0
	id := ""
	if r := m.snapshot.Session.Receipt; r != nil {
		count = r.Count()
		id = r.SubmissionID
	}

	var b strings.Builder
	b.WriteString(m.styles.Success.Render("✓ Checklist submitted"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%d sheet(s) created.\n", count))
	if id != "" {
		b.WriteString(m.styles.Muted.Render("Submission " + id))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Button.Render("Start new (enter)"))

	return m.styles.Content.Render(b.String())
}
