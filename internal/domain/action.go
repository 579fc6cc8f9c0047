package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrWrongScreen is returned when an action is not available on the
	// session's current screen.
	ErrWrongScreen = errors.New("action not available on this screen")

	// ErrCannotStart is returned when starting without an operator name or
	// without any work order.
	ErrCannotStart = errors.New("operator name and at least one work order are required")

	// ErrUnknownAction is returned for action types Apply does not handle
	ErrUnknownAction = errors.New("unknown action")
)

// Action is an operator intent applied to a session
type Action interface {
	Name() string
}

// SetOperator replaces the operator name (Start screen)
type SetOperator struct{ Operator string }

// AddWorkOrder registers a scanned work order (Start screen)
type AddWorkOrder struct{ Raw string }

// RemoveWorkOrder unregisters a work order and drops it from every answer
type RemoveWorkOrder struct{ WorkOrder string }

// StartChecklist moves from Start to the first step with every work order
// passing every step.
type StartChecklist struct{}

// Next advances one step, or to Review from the last step
type Next struct{}

// Back goes one step back, to Start from the first step, or from Review
// back into the wizard.
type Back struct{}

// ToggleWorkOrder flips one work order on the current step
type ToggleWorkOrder struct{ WorkOrder string }

// SetSelectAll selects every work order, or none, on the current step
type SetSelectAll struct{ Checked bool }

// SetComment replaces the current step's comment
type SetComment struct{ Comment string }

// SubmitStarted clears the previous failure before a new attempt
type SubmitStarted struct{}

// SubmitSucceeded records the receipt and moves to Done
type SubmitSucceeded struct{ Receipt Receipt }

// SubmitFailed records the failure and stays on Review
type SubmitFailed struct{ Message string }

// Reset clears the session after a submission
type Reset struct{}

func (SetOperator) Name() string     { return "set-operator" }
func (AddWorkOrder) Name() string    { return "add-work-order" }
func (RemoveWorkOrder) Name() string { return "remove-work-order" }
func (StartChecklist) Name() string  { return "start-checklist" }
func (Next) Name() string            { return "next" }
func (Back) Name() string            { return "back" }
func (ToggleWorkOrder) Name() string { return "toggle-work-order" }
func (SetSelectAll) Name() string    { return "set-select-all" }
func (SetComment) Name() string      { return "set-comment" }
func (SubmitStarted) Name() string   { return "submit-started" }
func (SubmitSucceeded) Name() string { return "submit-succeeded" }
func (SubmitFailed) Name() string    { return "submit-failed" }
func (Reset) Name() string           { return "reset" }

// Apply returns the session that results from applying a to s.
// s itself is never modified. On error the returned session equals s.
func Apply(s Session, a Action) (Session, error) {
	next := s.Clone()

	switch a := a.(type) {
	case SetOperator:
		if next.Screen != ScreenStart {
			return s, wrongScreen(a, s.Screen)
		}
		next.Operator = a.Operator

	case AddWorkOrder:
		if next.Screen != ScreenStart {
			return s, wrongScreen(a, s.Screen)
		}
		next.WorkOrders, _ = next.WorkOrders.Add(a.Raw)

	case RemoveWorkOrder:
		if next.Screen != ScreenStart {
			return s, wrongScreen(a, s.Screen)
		}
		var removed bool
		next.WorkOrders, removed = next.WorkOrders.Remove(a.WorkOrder)
		if removed {
			for i := range next.Answers {
				next.Answers[i] = next.Answers[i].without(a.WorkOrder)
			}
		}

	case StartChecklist:
		if next.Screen != ScreenStart {
			return s, wrongScreen(a, s.Screen)
		}
		if !next.CanStart() || len(next.Steps) == 0 {
			return s, ErrCannotStart
		}
		next.Answers = NewAnswers(next.Steps, next.WorkOrders)
		next.StepIndex = 0
		next.Screen = ScreenWizard

	case Next:
		if next.Screen != ScreenWizard {
			return s, wrongScreen(a, s.Screen)
		}
		if next.StepIndex < len(next.Steps)-1 {
			next.StepIndex++
		} else {
			next.Screen = ScreenReview
		}

	case Back:
		switch next.Screen {
		case ScreenWizard:
			if next.StepIndex > 0 {
				next.StepIndex--
			} else {
				next.Screen = ScreenStart
			}
		case ScreenReview:
			next.Screen = ScreenWizard
		default:
			return s, wrongScreen(a, s.Screen)
		}

	case ToggleWorkOrder:
		if next.Screen != ScreenWizard {
			return s, wrongScreen(a, s.Screen)
		}
		if !next.WorkOrders.Contains(a.WorkOrder) {
			return s, nil
		}
		i := next.StepIndex
		next.Answers[i] = next.Answers[i].toggled(a.WorkOrder, next.WorkOrders)

	case SetSelectAll:
		if next.Screen != ScreenWizard {
			return s, wrongScreen(a, s.Screen)
		}
		if a.Checked {
			next.Answers[next.StepIndex].SelectedWorkOrders = next.WorkOrders.List()
		} else {
			next.Answers[next.StepIndex].SelectedWorkOrders = []string{}
		}

	case SetComment:
		if next.Screen != ScreenWizard {
			return s, wrongScreen(a, s.Screen)
		}
		next.Answers[next.StepIndex].Comment = a.Comment

	case SubmitStarted:
		if next.Screen != ScreenReview {
			return s, wrongScreen(a, s.Screen)
		}
		next.SubmitError = ""

	case SubmitSucceeded:
		if next.Screen != ScreenReview {
			return s, wrongScreen(a, s.Screen)
		}
		receipt := a.Receipt
		if receipt.SubmittedAt.IsZero() {
			receipt.SubmittedAt = time.Now()
		}
		next.Receipt = &receipt
		next.SubmitError = ""
		next.Screen = ScreenDone

	case SubmitFailed:
		if next.Screen != ScreenReview {
			return s, wrongScreen(a, s.Screen)
		}
		next.SubmitError = a.Message

	case Reset:
		if next.Screen != ScreenDone {
			return s, wrongScreen(a, s.Screen)
		}
		next = NewSession(next.Steps)

	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}

	return next, nil
}

// WithSteps returns the session rebuilt for a new step sequence. Only valid
// on the Start screen, where answers are re-initialised by StartChecklist
// anyway.
func WithSteps(s Session, steps []Step) (Session, error) {
	if s.Screen != ScreenStart {
		return s, fmt.Errorf("replace steps: %w", ErrWrongScreen)
	}
	next := s.Clone()
	next.Steps = append([]Step(nil), steps...)
	next.Answers = NewAnswers(next.Steps, nil)
	next.StepIndex = 0
	return next, nil
}

func wrongScreen(a Action, screen Screen) error {
	return fmt.Errorf("%s on %s screen: %w", a.Name(), screen, ErrWrongScreen)
}
