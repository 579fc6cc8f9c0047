package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robertguss/steershaft-checklist/internal/components/header"
	"github.com/robertguss/steershaft-checklist/internal/components/statusbar"
	"github.com/robertguss/steershaft-checklist/internal/config"
	"github.com/robertguss/steershaft-checklist/internal/domain"
	"github.com/robertguss/steershaft-checklist/internal/keys"
	"github.com/robertguss/steershaft-checklist/internal/messages"
	"github.com/robertguss/steershaft-checklist/internal/preflight"
	"github.com/robertguss/steershaft-checklist/internal/theme"
	"github.com/robertguss/steershaft-checklist/internal/views/done"
	"github.com/robertguss/steershaft-checklist/internal/views/review"
	"github.com/robertguss/steershaft-checklist/internal/views/start"
	wizardview "github.com/robertguss/steershaft-checklist/internal/views/wizard"
	"github.com/robertguss/steershaft-checklist/internal/wizard"
)

// Reloader re-reads the active checklist definition
type Reloader func() (name string, steps []domain.Step, err error)

// Model is the root Bubble Tea model. It owns no session state of its own:
// every change goes through the controller and comes back as a snapshot.
type Model struct {
	width  int
	height int
	ready  bool

	config     *config.Config
	controller *wizard.Controller
	reload     Reloader
	ctx        context.Context
	preflight  *preflight.Results

	// checklist name waiting for its steps to be applied
	pendingChecklist string

	snapshot wizard.Snapshot

	header    header.Model
	statusbar statusbar.Model

	start  start.Model
	wizard wizardview.Model
	review review.Model
	done   done.Model

	keys   keys.KeyMap
	styles theme.Styles
}

// Option configures the root model
type Option func(*Model)

// WithReloader sets how the checklist is re-read when its file changes
func WithReloader(r Reloader) Option {
	return func(m *Model) {
		m.reload = r
	}
}

// WithContext sets the context used for submissions
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.ctx = ctx
	}
}

// WithPreflight sets startup check results to surface on launch
func WithPreflight(results *preflight.Results) Option {
	return func(m *Model) {
		m.preflight = results
	}
}

// New creates the root model around controller
func New(cfg *config.Config, controller *wizard.Controller, opts ...Option) Model {
	m := Model{
		config:     cfg,
		controller: controller,
		ctx:        context.Background(),
		header:     header.New(),
		statusbar:  statusbar.New(),
		start:      start.New(cfg.IsScanTerminator),
		wizard:     wizardview.New(),
		review:     review.New(),
		done:       done.New(),
		keys:       keys.Default(),
		styles:     theme.NewStyles(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.header.SetChecklist(cfg.ActiveChecklist)
	m.setSnapshot(controller.Snapshot())
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.start.Init()}
	if m.preflight != nil {
		if failed := m.preflight.FailedChecks(); len(failed) > 0 {
			check := failed[0]
			cmds = append(cmds, messages.Status(check.Name+": "+check.Error, !check.Warning))
		}
	}
	return tea.Batch(cmds...)
}

// Snapshot returns the last snapshot the model rendered
func (m Model) Snapshot() wizard.Snapshot {
	return m.snapshot
}

// setSnapshot fans the snapshot out to every component
func (m *Model) setSnapshot(snap wizard.Snapshot) {
	m.snapshot = snap
	if m.pendingChecklist != "" && !snap.PendingSteps {
		m.header.SetChecklist(m.pendingChecklist)
		m.pendingChecklist = ""
	}
	m.header.SetScreen(snap.Session.Screen)
	m.statusbar.SetSession(snap.Session.Operator, snap.Session.WorkOrders.Len())
	m.start.SetSnapshot(snap)
	m.wizard.SetSnapshot(snap)
	m.review.SetSnapshot(snap)
	m.done.SetSnapshot(snap)
	m.statusbar.SetHint(m.help())
}

func (m Model) help() string {
	switch m.snapshot.Session.Screen {
	case domain.ScreenWizard:
		return m.wizard.Help()
	case domain.ScreenReview:
		return m.review.Help()
	case domain.ScreenDone:
		return m.done.Help()
	default:
		return m.start.Help()
	}
}

// View renders the application
func (m Model) View() string {
	if !m.ready {
		return "\n  Starting " + header.Title + "..."
	}

	var content string
	switch m.snapshot.Session.Screen {
	case domain.ScreenWizard:
		content = m.wizard.View()
	case domain.ScreenReview:
		content = m.review.View()
	case domain.ScreenDone:
		content = m.done.View()
	default:
		content = m.start.View()
	}

	// Keep the status bar at the bottom
	contentHeight := m.height - lipgloss.Height(m.header.View()) - lipgloss.Height(m.statusbar.View())
	content = lipgloss.NewStyle().Height(max(contentHeight, 0)).Render(content)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		content,
		m.statusbar.View(),
	)
}
