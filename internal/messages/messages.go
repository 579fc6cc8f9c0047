// Package messages defines the Bubble Tea messages shared by the root
// model and its views.
package messages

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/robertguss/steershaft-checklist/internal/domain"
	"github.com/robertguss/steershaft-checklist/internal/wizard"
)

// ActionMsg asks the root model to dispatch an action through the
// controller. Views never change the session themselves.
type ActionMsg struct {
	Action domain.Action
}

// SubmitMsg asks the root model to submit the session
type SubmitMsg struct{}

// SubmitResultMsg is sent when a submission attempt finishes
type SubmitResultMsg struct {
	Snapshot wizard.Snapshot
	Err      error
}

// StatusMsg shows a transient message in the status bar
type StatusMsg struct {
	Text    string
	IsError bool
}

// WindowSizeMsg is the content area available to a view
type WindowSizeMsg struct {
	Width  int
	Height int
}

// Do returns a command that emits a for the root model to dispatch
func Do(a domain.Action) tea.Cmd {
	return func() tea.Msg {
		return ActionMsg{Action: a}
	}
}

// Status returns a command that shows text in the status bar
func Status(text string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return StatusMsg{Text: text, IsError: isError}
	}
}
