package app

// handlers.go holds the Update loop and its per-message handlers

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/robertguss/steershaft-checklist/internal/domain"
	"github.com/robertguss/steershaft-checklist/internal/logging"
	"github.com/robertguss/steershaft-checklist/internal/messages"
	"github.com/robertguss/steershaft-checklist/internal/watcher"
	"github.com/robertguss/steershaft-checklist/internal/wizard"
)

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case messages.ActionMsg:
		return m.handleAction(msg.Action)

	case messages.SubmitMsg:
		return m.handleSubmit()

	case messages.SubmitResultMsg:
		return m.handleSubmitResult(msg)

	case messages.StatusMsg:
		m.statusbar.SetMessage(msg.Text, msg.IsError)
		return m, nil

	case watcher.RefreshMsg:
		return m.handleReload()

	case watcher.ErrorMsg:
		m.statusbar.SetMessage(fmt.Sprintf("Watch error: %v", msg.Error), true)
		return m, nil
	}

	return m.forward(msg)
}

// handleKeyMsg routes keys to the view for the current screen
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	m.statusbar.ClearMessage()
	return m.forward(msg)
}

// forward hands msg to the active view
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.snapshot.Session.Screen {
	case domain.ScreenStart:
		m.start, cmd = m.start.Update(msg)
	case domain.ScreenWizard:
		m.wizard, cmd = m.wizard.Update(msg)
		m.statusbar.SetHint(m.wizard.Help())
	case domain.ScreenReview:
		m.review, cmd = m.review.Update(msg)
	case domain.ScreenDone:
		m.done, cmd = m.done.Update(msg)
	}
	return m, cmd
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	m.header.SetWidth(msg.Width)
	m.statusbar.SetWidth(msg.Width)

	sizeMsg := messages.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4} // header(2) + statusbar(2)
	m.start, _ = m.start.Update(sizeMsg)
	m.wizard, _ = m.wizard.Update(sizeMsg)
	m.review, _ = m.review.Update(sizeMsg)
	return m, nil
}

// handleAction dispatches a view's action through the controller
func (m Model) handleAction(a domain.Action) (tea.Model, tea.Cmd) {
	snap, err := m.controller.Dispatch(a)
	m.setSnapshot(snap)

	switch {
	case err == nil:
	case errors.Is(err, wizard.ErrSubmitInFlight):
		m.statusbar.SetMessage("Submission in progress", false)
	case errors.Is(err, domain.ErrCannotStart):
		m.statusbar.SetMessage("Enter your name and scan at least one work order", false)
	default:
		logging.Logger.Debug("Action ignored", "action", a.Name(), "error", err)
	}
	return m, nil
}

// handleSubmit runs the submission off the update loop
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	if m.snapshot.Session.Screen != domain.ScreenReview || m.review.Submitting() {
		return m, nil
	}

	tick := m.review.StartSubmitting()
	ctrl, ctx := m.controller, m.ctx
	submit := func() tea.Msg {
		snap, err := ctrl.Submit(ctx)
		return messages.SubmitResultMsg{Snapshot: snap, Err: err}
	}
	return m, tea.Batch(tick, submit)
}

func (m Model) handleSubmitResult(msg messages.SubmitResultMsg) (tea.Model, tea.Cmd) {
	m.setSnapshot(msg.Snapshot)

	switch {
	case msg.Err == nil:
		m.statusbar.SetMessage("Checklist submitted", false)
	case errors.Is(msg.Err, wizard.ErrSubmitFailed):
		m.statusbar.SetMessage(msg.Snapshot.Session.SubmitError, true)
	case errors.Is(msg.Err, wizard.ErrSubmitInFlight):
	default:
		m.statusbar.SetMessage(msg.Err.Error(), true)
	}
	return m, nil
}

// handleReload re-reads the checklist after its file changed
func (m Model) handleReload() (tea.Model, tea.Cmd) {
	if m.reload == nil {
		return m, nil
	}

	name, steps, err := m.reload()
	if err != nil {
		logging.Logger.Warn("Checklist reload failed", "error", err)
		m.statusbar.SetMessage(fmt.Sprintf("Checklist not reloaded: %v", err), true)
		return m, nil
	}

	applied := m.controller.ReplaceSteps(steps)
	if applied {
		m.header.SetChecklist(name)
		m.pendingChecklist = ""
	} else {
		m.pendingChecklist = name
	}
	m.setSnapshot(m.controller.Snapshot())
	if applied {
		m.statusbar.SetMessage(fmt.Sprintf("Checklist %q reloaded (%d steps)", name, len(steps)), false)
	} else {
		m.statusbar.SetMessage(fmt.Sprintf("Checklist %q updated; applies when you return to Start", name), false)
	}
	return m, nil
}
