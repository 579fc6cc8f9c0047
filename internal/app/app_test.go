package app

import (
	"errors"
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertguss/steershaft-checklist/internal/checklist"
	"github.com/robertguss/steershaft-checklist/internal/domain"
	"github.com/robertguss/steershaft-checklist/internal/messages"
	"github.com/robertguss/steershaft-checklist/internal/preflight"
	"github.com/robertguss/steershaft-checklist/internal/submit"
	"github.com/robertguss/steershaft-checklist/internal/testutil"
	"github.com/robertguss/steershaft-checklist/internal/watcher"
	"github.com/robertguss/steershaft-checklist/internal/wizard"
)

// settle runs cmd and feeds the messages it produces back into m. Blink and
// spinner ticks never finish within the wait and are dropped.
func settle(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()

	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}

		done := make(chan tea.Msg, 1)
		go func() { done <- c() }()

		var msg tea.Msg
		select {
		case msg = <-done:
		case <-time.After(50 * time.Millisecond):
			continue
		}

		switch msg := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case messages.ActionMsg, messages.SubmitMsg, messages.StatusMsg:
			var next tea.Cmd
			m, next = m.Update(msg)
			queue = append(queue, next)
		case messages.SubmitResultMsg:
			m, _ = m.Update(msg)
		}
	}
	return m
}

func press(t *testing.T, m tea.Model, keys ...tea.KeyMsg) tea.Model {
	t.Helper()
	for _, k := range keys {
		var cmd tea.Cmd
		m, cmd = m.Update(k)
		m = settle(t, m, cmd)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	ctrlS = tea.KeyMsg{Type: tea.KeyCtrlS}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func newModel(t *testing.T, submitter submit.Submitter) (tea.Model, *wizard.Controller) {
	t.Helper()
	cfg := testutil.NewTestConfig(t)
	ctrl := wizard.New(testutil.Steps(), submitter)
	var m tea.Model = New(cfg, ctrl)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, ctrl
}

// fillStart types an operator and scans work orders
func fillStart(t *testing.T, m tea.Model, operator string, wos ...string) tea.Model {
	t.Helper()
	m = press(t, m, runes(operator), enter)
	for _, wo := range wos {
		m = press(t, m, runes(wo), enter)
	}
	return m
}

func TestModel_StartScreen(t *testing.T) {
	t.Run("typing and scanning update the session", func(t *testing.T) {
		m, ctrl := newModel(t, nil)
		m = fillStart(t, m, "Jane", "WO-1", " WO-2 ", "WO-1")

		s := ctrl.Snapshot().Session
		assert.Equal(t, "Jane", s.Operator)
		assert.Equal(t, []string{"WO-1", "WO-2"}, s.WorkOrders.List())
		assert.Contains(t, m.View(), "WO-2")
	})

	t.Run("start is blocked without work orders", func(t *testing.T) {
		m, ctrl := newModel(t, nil)
		m = press(t, m, runes("Jane"), ctrlS)

		assert.Equal(t, domain.ScreenStart, ctrl.Snapshot().Session.Screen)
		assert.Contains(t, m.View(), "scan at least one work order")
	})

	t.Run("removing from the list", func(t *testing.T) {
		m, ctrl := newModel(t, nil)
		m = fillStart(t, m, "Jane", "WO-1", "WO-2")
		m = press(t, m, tab, down, runes("x"))

		assert.Equal(t, []string{"WO-1"}, ctrl.Snapshot().Session.WorkOrders.List())
	})

	t.Run("configured scan terminator confirms a work order", func(t *testing.T) {
		cfg := testutil.NewTestConfig(t)
		cfg.ScanTerminators = []string{"tab"}
		ctrl := wizard.New(testutil.Steps(), nil)
		var m tea.Model = New(cfg, ctrl)
		m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

		m = press(t, m, runes("Jane"), enter, runes("WO-7"), enter)
		assert.Zero(t, ctrl.Snapshot().Session.WorkOrders.Len(), "enter is not a terminator here")

		press(t, m, tab)
		assert.Equal(t, []string{"WO-7"}, ctrl.Snapshot().Session.WorkOrders.List())
	})

	t.Run("ctrl+s starts the checklist", func(t *testing.T) {
		m, ctrl := newModel(t, nil)
		m = fillStart(t, m, "Jane", "WO-1")
		m = press(t, m, ctrlS)

		snap := ctrl.Snapshot()
		assert.Equal(t, domain.ScreenWizard, snap.Session.Screen)
		assert.Contains(t, m.View(), "Step 1 / 2")
	})
}

func TestModel_Wizard(t *testing.T) {
	start := func(t *testing.T) (tea.Model, *wizard.Controller) {
		m, ctrl := newModel(t, nil)
		m = fillStart(t, m, "Jane", "WO-1", "WO-2")
		m = press(t, m, ctrlS)
		return m, ctrl
	}

	t.Run("space toggles the row under the cursor", func(t *testing.T) {
		m, ctrl := start(t)
		m = press(t, m, down, space)

		answer, _ := ctrl.Snapshot().Session.CurrentAnswer()
		assert.Equal(t, []string{"WO-2"}, answer.SelectedWorkOrders)
		assert.Contains(t, m.View(), "NOT SELECTED")
	})

	t.Run("select-all row clears and restores", func(t *testing.T) {
		m, ctrl := start(t)
		m = press(t, m, space)
		assert.True(t, ctrl.Snapshot().NoneSelected)
		assert.Contains(t, m.View(), "No work orders selected")

		press(t, m, space)
		assert.True(t, ctrl.Snapshot().AllSelected)
	})

	t.Run("comment is recorded on the current step", func(t *testing.T) {
		m, ctrl := start(t)
		m = press(t, m, runes("c"), runes("scratch"), enter)

		answer, _ := ctrl.Snapshot().Session.CurrentAnswer()
		assert.Equal(t, "scratch", answer.Comment)

		// keys go back to the list once the comment is confirmed
		press(t, m, runes("n"))
		assert.Equal(t, 1, ctrl.Snapshot().Session.StepIndex)
	})

	t.Run("next then back", func(t *testing.T) {
		m, ctrl := start(t)
		m = press(t, m, runes("n"))
		assert.Contains(t, m.View(), "Step 2 / 2")
		assert.Contains(t, m.View(), "Review")

		m = press(t, m, esc, esc)
		assert.Equal(t, domain.ScreenStart, ctrl.Snapshot().Session.Screen)
	})
}

func TestModel_Submit(t *testing.T) {
	toReview := func(t *testing.T, m tea.Model) tea.Model {
		m = fillStart(t, m, "Jane", "WO-1")
		return press(t, m, ctrlS, runes("n"), runes("n"))
	}

	t.Run("success shows the created-sheet count", func(t *testing.T) {
		srv := testutil.NewSubmissionServer(t)
		m, ctrl := newModel(t, submit.NewClient(srv.URL))
		m = toReview(t, m)
		require.Equal(t, domain.ScreenReview, ctrl.Snapshot().Session.Screen)

		m = press(t, m, runes("s"))

		assert.Equal(t, domain.ScreenDone, ctrl.Snapshot().Session.Screen)
		assert.Contains(t, m.View(), "2 sheet(s) created")
		require.Len(t, srv.Received(), 1)
		assert.Equal(t, "Jane", srv.Received()[0].Payload.Operator)

		press(t, m, enter)
		s := ctrl.Snapshot().Session
		assert.Equal(t, domain.ScreenStart, s.Screen)
		assert.Empty(t, s.Operator)
		assert.Zero(t, s.WorkOrders.Len())
	})

	t.Run("failure stays on review with the message", func(t *testing.T) {
		srv := testutil.NewSubmissionServer(t)
		srv.Respond(http.StatusOK, `{"ok":false,"error":"Sheet locked"}`)
		m, ctrl := newModel(t, submit.NewClient(srv.URL))
		m = toReview(t, m)

		m = press(t, m, runes("s"))

		snap := ctrl.Snapshot()
		assert.Equal(t, domain.ScreenReview, snap.Session.Screen)
		assert.Equal(t, "Submit failed: Sheet locked", snap.Session.SubmitError)
		assert.Contains(t, m.View(), "Sheet locked")
	})
}

func TestModel_Reload(t *testing.T) {
	replacement := []domain.Step{{ID: "X", Name: "X Check"}}

	t.Run("applies on start", func(t *testing.T) {
		cfg := testutil.NewTestConfig(t)
		ctrl := wizard.New(testutil.Steps(), nil)
		var m tea.Model = New(cfg, ctrl, WithReloader(func() (string, []domain.Step, error) {
			return "default", replacement, nil
		}))

		m, _ = m.Update(watcher.RefreshMsg{Path: "default.yaml"})
		assert.Equal(t, replacement, ctrl.Steps())
	})

	t.Run("header keeps the old name while steps are pending", func(t *testing.T) {
		cfg := testutil.NewTestConfig(t)
		ctrl := wizard.New(testutil.Steps(), nil)
		var m tea.Model = New(cfg, ctrl, WithReloader(func() (string, []domain.Step, error) {
			return "bracket", replacement, nil
		}))
		m, _ = m.Update(tea.WindowSizeMsg{Width: 200, Height: 40})
		m = fillStart(t, m, "Jane", "WO-1")
		m = press(t, m, ctrlS)
		require.Equal(t, domain.ScreenWizard, ctrl.Snapshot().Session.Screen)

		m, _ = m.Update(watcher.RefreshMsg{Path: "bracket.yaml"})
		assert.True(t, ctrl.Snapshot().PendingSteps)
		assert.NotContains(t, m.(Model).header.View(), "bracket")

		m = press(t, m, esc)
		require.Equal(t, domain.ScreenStart, ctrl.Snapshot().Session.Screen)
		assert.Equal(t, replacement, ctrl.Steps())
		assert.Contains(t, m.(Model).header.View(), "checklist: bracket")
	})

	t.Run("reports reload errors", func(t *testing.T) {
		cfg := testutil.NewTestConfig(t)
		ctrl := wizard.New(testutil.Steps(), nil)
		var m tea.Model = New(cfg, ctrl, WithReloader(func() (string, []domain.Step, error) {
			return "", nil, errors.New("bad yaml")
		}))
		m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

		m, _ = m.Update(watcher.RefreshMsg{})
		assert.Contains(t, m.View(), "bad yaml")
		assert.Equal(t, testutil.Steps(), ctrl.Steps())
	})
}

func TestModel_Quit(t *testing.T) {
	m, _ := newModel(t, nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_InitShowsPreflightFailure(t *testing.T) {
	cfg := testutil.NewTestConfig(t)
	cfg.SubmitURL = ""
	ctrl := wizard.New(testutil.Steps(), nil)

	var m tea.Model = New(cfg, ctrl, WithPreflight(preflight.RunAll(cfg, checklist.Default())))
	m = settle(t, m, m.Init())

	assert.Contains(t, m.(Model).statusbar.Message(), "Submit Endpoint")
}
