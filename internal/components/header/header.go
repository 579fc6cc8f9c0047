package header

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robertguss/steershaft-checklist/internal/domain"
	"github.com/robertguss/steershaft-checklist/internal/theme"
)

// Title is shown at the left of the header
const Title = "Steershaft QC Checklist"

// Model renders the title and the screen breadcrumb
type Model struct {
	width     int
	screen    domain.Screen
	checklist string
	styles    theme.Styles
}

// New creates a new header model
func New() Model {
	return Model{
		screen: domain.ScreenStart,
		styles: theme.NewStyles(),
	}
}

// SetWidth sets the header width
func (m *Model) SetWidth(width int) {
	m.width = width
}

// SetScreen sets the screen highlighted in the breadcrumb
func (m *Model) SetScreen(screen domain.Screen) {
	m.screen = screen
}

// SetChecklist sets the checklist name shown at the right
func (m *Model) SetChecklist(name string) {
	m.checklist = name
}

// View renders the header
func (m Model) View() string {
	title := m.styles.Title.Render(Title)

	crumbs := make([]string, 0, len(domain.AllScreens()))
	for _, s := range domain.AllScreens() {
		if s == m.screen {
			crumbs = append(crumbs, m.styles.CrumbActive.Render(s.String()))
		} else {
			crumbs = append(crumbs, m.styles.Crumb.Render(s.String()))
		}
	}
	nav := strings.Join(crumbs, m.styles.Muted.Render("›"))

	right := ""
	if m.checklist != "" {
		right = m.styles.Muted.Render("checklist: " + m.checklist)
	}

	used := lipgloss.Width(title) + lipgloss.Width(nav) + lipgloss.Width(right) + 4
	content := title + "  " + nav
	if m.width > used {
		content = title + strings.Repeat(" ", (m.width-used)/2) + nav +
			strings.Repeat(" ", m.width-used-(m.width-used)/2) + right
	}

	bar := m.styles.Header.Width(m.width).Render(content)
	border := lipgloss.NewStyle().
		Foreground(theme.Current.Border).
		Render(strings.Repeat("─", max(m.width, 0)))

	return lipgloss.JoinVertical(lipgloss.Left, bar, border)
}
