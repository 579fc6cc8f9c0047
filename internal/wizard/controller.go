// Package wizard owns the single active checklist session and serialises
// every change to it.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/robertguss/steershaft-checklist/internal/domain"
	"github.com/robertguss/steershaft-checklist/internal/logging"
	"github.com/robertguss/steershaft-checklist/internal/submit"
)

var (
	// ErrSubmitInFlight is returned for any change requested while a
	// submission is waiting on the service.
	ErrSubmitInFlight = errors.New("submission in progress")

	// ErrSubmitFailed wraps the submitter's error when the service did not
	// accept the payload. The session stays on Review with SubmitError set.
	ErrSubmitFailed = errors.New("submit failed")
)

// Snapshot is a read-only view of the session plus derived state
type Snapshot struct {
	Session       domain.Session       `json:"session"`
	CanStart      bool                 `json:"canStart"`
	AllSelected   bool                 `json:"allSelected"`
	NoneSelected  bool                 `json:"noneSelected"`
	SelectedCount int                  `json:"selectedCount"`
	IsLastStep    bool                 `json:"isLastStep"`
	CurrentStep   *domain.Step         `json:"currentStep,omitempty"`
	Summary       []domain.StepSummary `json:"summary"`
	Submitting    bool                 `json:"submitting"`
	PendingSteps  bool                 `json:"pendingSteps"`
}

// Controller applies actions to the session one at a time
type Controller struct {
	mu         sync.Mutex
	session    domain.Session
	submitter  submit.Submitter
	submitting bool

	pending    []domain.Step
	hasPending bool

	subscribers map[int]func(Snapshot)
	nextSubID   int

	logger *slog.Logger
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger replaces the package logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// New creates a controller with an empty session for steps
func New(steps []domain.Step, submitter submit.Submitter, opts ...Option) *Controller {
	c := &Controller{
		session:     domain.NewSession(steps),
		submitter:   submitter,
		subscribers: make(map[int]func(Snapshot)),
		logger:      logging.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Steps returns the steps of the current session
func (c *Controller) Steps() []domain.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.session.Steps)
}

// Dispatch applies a to the session
func (c *Controller) Dispatch(a domain.Action) (Snapshot, error) {
	c.mu.Lock()
	if c.submitting {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, ErrSubmitInFlight
	}

	next, err := domain.Apply(c.session, a)
	if err != nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.logger.Debug("Action rejected", "action", a.Name(), "screen", string(snap.Session.Screen), "error", err)
		return snap, err
	}

	from := c.session.Screen
	c.session = next
	c.applyPendingLocked()
	snap := c.snapshotLocked()
	subs := c.subscribersLocked()
	c.mu.Unlock()

	c.logger.Debug("Action applied",
		"action", a.Name(),
		"from", string(from),
		"to", string(snap.Session.Screen),
		"step_index", snap.Session.StepIndex,
	)
	notify(subs, snap)
	return snap, nil
}

// Submit sends the session payload once. On failure the session stays on
// Review with SubmitError set and the returned error wraps ErrSubmitFailed.
func (c *Controller) Submit(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.submitting {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, ErrSubmitInFlight
	}
	started, err := domain.Apply(c.session, domain.SubmitStarted{})
	if err != nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}
	c.session = started
	c.submitting = true
	payload := c.session.Payload()
	snap := c.snapshotLocked()
	subs := c.subscribersLocked()
	c.mu.Unlock()

	notify(subs, snap)
	c.logger.Info("Submitting checklist",
		"operator", payload.Operator,
		"work_orders", len(payload.WorkOrders),
		"steps", len(payload.Answers),
	)

	var receipt domain.Receipt
	if c.submitter == nil {
		err = submit.ErrNoEndpoint
	} else {
		receipt, err = c.submitter.Submit(ctx, payload)
	}

	c.mu.Lock()
	c.submitting = false
	var result domain.Action = domain.SubmitSucceeded{Receipt: receipt}
	if err != nil {
		result = domain.SubmitFailed{Message: "Submit failed: " + err.Error()}
	}
	// Nothing else can change the screen while submitting, so this applies.
	if next, applyErr := domain.Apply(c.session, result); applyErr == nil {
		c.session = next
	}
	c.applyPendingLocked()
	snap = c.snapshotLocked()
	subs = c.subscribersLocked()
	c.mu.Unlock()

	notify(subs, snap)

	if err != nil {
		c.logger.Warn("Submission failed", "error", err)
		return snap, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	c.logger.Info("Submission accepted",
		"submission_id", receipt.SubmissionID,
		"sheets_created", receipt.Count(),
	)
	return snap, nil
}

// ReplaceSteps swaps in a new step sequence. It applies immediately when
// the session is on the Start screen and reports true; otherwise the steps
// are held until the session next returns to Start.
func (c *Controller) ReplaceSteps(steps []domain.Step) bool {
	c.mu.Lock()
	c.pending = slices.Clone(steps)
	c.hasPending = true
	applied := c.applyPendingLocked()
	snap := c.snapshotLocked()
	subs := c.subscribersLocked()
	c.mu.Unlock()

	if applied {
		c.logger.Info("Checklist steps replaced", "steps", len(steps))
		notify(subs, snap)
	} else {
		c.logger.Info("Checklist steps pending until next start", "steps", len(steps))
	}
	return applied
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned function removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

func (c *Controller) applyPendingLocked() bool {
	if !c.hasPending || c.submitting || c.session.Screen != domain.ScreenStart {
		return false
	}
	next, err := domain.WithSteps(c.session, c.pending)
	if err != nil {
		return false
	}
	c.session = next
	c.pending = nil
	c.hasPending = false
	return true
}

func (c *Controller) snapshotLocked() Snapshot {
	s := c.session.Clone()
	snap := Snapshot{
		Session:      s,
		CanStart:     s.CanStart() && len(s.Steps) > 0,
		Summary:      domain.Summarize(s.Answers, s.WorkOrders),
		Submitting:   c.submitting,
		PendingSteps: c.hasPending,
	}
	if s.Screen == domain.ScreenWizard {
		if step, ok := s.CurrentStep(); ok {
			snap.CurrentStep = &step
		}
		snap.AllSelected = s.AllSelected()
		snap.NoneSelected = s.NoneSelected()
		snap.SelectedCount = s.SelectedCount()
		snap.IsLastStep = s.IsLastStep()
	}
	return snap
}

func (c *Controller) subscribersLocked() []func(Snapshot) {
	subs := make([]func(Snapshot), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
