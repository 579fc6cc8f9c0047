package statusbar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robertguss/steershaft-checklist/internal/theme"
)

const defaultHint = "Ctrl+C to quit"

// Model shows who is working, how many work orders are registered and the
// last transient message.
type Model struct {
	width      int
	operator   string
	workOrders int
	message    string
	isError    bool
	hint       string
	styles     theme.Styles
}

// New creates a new status bar model
func New() Model {
	return Model{
		hint:   defaultHint,
		styles: theme.NewStyles(),
	}
}

// SetWidth sets the status bar width
func (m *Model) SetWidth(width int) {
	m.width = width
}

// SetSession sets the operator and work-order count
func (m *Model) SetSession(operator string, workOrders int) {
	m.operator = strings.TrimSpace(operator)
	m.workOrders = workOrders
}

// SetHint sets the key help shown when there is no message
func (m *Model) SetHint(hint string) {
	if hint == "" {
		hint = defaultHint
	}
	m.hint = hint
}

// SetMessage sets a temporary status message
func (m *Model) SetMessage(msg string, isError bool) {
	m.message = msg
	m.isError = isError
}

// ClearMessage clears the status message
func (m *Model) ClearMessage() {
	m.message = ""
	m.isError = false
}

// Message returns the current message
func (m Model) Message() string {
	return m.message
}

// View renders the status bar
func (m Model) View() string {
	operator := m.operator
	if operator == "" {
		operator = "-"
	}
	left := fmt.Sprintf("Operator: %s | WOs: %s",
		m.styles.Info.Render(operator),
		m.styles.Bold.Render(fmt.Sprintf("%d", m.workOrders)),
	)

	var right string
	switch {
	case m.message != "" && m.isError:
		right = m.styles.Error.Render(m.message)
	case m.message != "":
		right = m.styles.Warning.Render(m.message)
	default:
		right = m.styles.Muted.Render(m.hint)
	}

	content := left + "  " + right
	if gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4; gap > 2 {
		content = left + strings.Repeat(" ", gap) + right
	}

	border := lipgloss.NewStyle().
		Foreground(theme.Current.Border).
		Render(strings.Repeat("─", max(m.width, 0)))
	bar := m.styles.StatusBar.Width(m.width).Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, border, bar)
}
