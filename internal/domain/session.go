package domain

import (
	"slices"
	"strings"
	"time"
)

// Receipt is the confirmation returned by the sheet-generation service
type Receipt struct {
	SubmissionID  string    `json:"submissionId"`
	SheetsCreated []string  `json:"sheetsCreated"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// Count returns the number of sheets created downstream
func (r Receipt) Count() int {
	return len(r.SheetsCreated)
}

// Session is the full in-memory state of one checklist run
type Session struct {
	Operator   string       `json:"operator"`
	WorkOrders WorkOrders   `json:"workOrders"`
	Steps      []Step       `json:"steps"`
	Answers    []StepAnswer `json:"answers"`
	Screen     Screen       `json:"screen"`
	StepIndex  int          `json:"stepIndex"`

	// Submission bookkeeping
	SubmitError string   `json:"submitError,omitempty"`
	Receipt     *Receipt `json:"receipt,omitempty"`
}

// NewSession creates an empty session on the Start screen with one empty
// answer per step.
func NewSession(steps []Step) Session {
	steps = slices.Clone(steps)
	return Session{
		Operator:   "",
		WorkOrders: WorkOrders{},
		Steps:      steps,
		Answers:    NewAnswers(steps, nil),
		Screen:     ScreenStart,
		StepIndex:  0,
	}
}

// Clone returns a deep copy that shares no mutable state with s
func (s Session) Clone() Session {
	c := s
	c.WorkOrders = WorkOrders(s.WorkOrders.List())
	c.Steps = slices.Clone(s.Steps)
	c.Answers = make([]StepAnswer, len(s.Answers))
	for i, a := range s.Answers {
		c.Answers[i] = a.clone()
	}
	if s.Receipt != nil {
		r := *s.Receipt
		r.SheetsCreated = slices.Clone(s.Receipt.SheetsCreated)
		c.Receipt = &r
	}
	return c
}

// CanStart reports whether the checklist may be started: an operator name
// and at least one work order are required.
func (s Session) CanStart() bool {
	return strings.TrimSpace(s.Operator) != "" && s.WorkOrders.Len() > 0
}

// CurrentStep returns the step at StepIndex
func (s Session) CurrentStep() (Step, bool) {
	if s.StepIndex < 0 || s.StepIndex >= len(s.Steps) {
		return Step{}, false
	}
	return s.Steps[s.StepIndex], true
}

// CurrentAnswer returns the answer for the current step
func (s Session) CurrentAnswer() (StepAnswer, bool) {
	if s.StepIndex < 0 || s.StepIndex >= len(s.Answers) {
		return StepAnswer{}, false
	}
	return s.Answers[s.StepIndex], true
}

// IsLastStep reports whether the current step is the final one
func (s Session) IsLastStep() bool {
	return s.StepIndex == len(s.Steps)-1
}

// AllSelected is true when every registered work order passes the current
// step. It is false when no work orders are registered.
func (s Session) AllSelected() bool {
	if s.WorkOrders.Len() == 0 {
		return false
	}
	answer, _ := s.CurrentAnswer()
	for _, wo := range s.WorkOrders {
		if !answer.IsSelected(wo) {
			return false
		}
	}
	return true
}

// NoneSelected is true when nothing passes the current step. This means
// every work order fails it; front-ends warn but do not block.
func (s Session) NoneSelected() bool {
	answer, _ := s.CurrentAnswer()
	return len(answer.SelectedWorkOrders) == 0
}

// SelectedCount returns how many work orders pass the current step
func (s Session) SelectedCount() int {
	answer, _ := s.CurrentAnswer()
	return answer.PassCount()
}

// Payload returns the submission body for this session
func (s Session) Payload() Payload {
	c := s.Clone()
	return Payload{
		Operator:   strings.TrimSpace(c.Operator),
		WorkOrders: c.WorkOrders.List(),
		Answers:    c.Answers,
	}
}

// Payload is the snapshot delivered to the sheet-generation service
type Payload struct {
	Operator   string       `json:"operator"`
	WorkOrders []string     `json:"workOrders"`
	Answers    []StepAnswer `json:"answers"`
}
