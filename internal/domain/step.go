package domain

import "slices"

// Step is one fixed inspection criterion of a checklist
type Step struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// StepAnswer records which work orders pass a step, plus a free-text comment.
// A work order that is not selected fails the step.
type StepAnswer struct {
	StepID             string   `json:"stepId"`
	StepName           string   `json:"stepName"`
	SelectedWorkOrders []string `json:"selectedWorkOrders"`
	Comment            string   `json:"comment"`
}

// NewAnswers creates one answer per step, in step order, each with the
// given selection.
func NewAnswers(steps []Step, selected WorkOrders) []StepAnswer {
	answers := make([]StepAnswer, len(steps))
	for i, s := range steps {
		answers[i] = StepAnswer{
			StepID:             s.ID,
			StepName:           s.Name,
			SelectedWorkOrders: selected.List(),
			Comment:            "",
		}
	}
	return answers
}

// IsSelected reports whether wo passes this step
func (a StepAnswer) IsSelected(wo string) bool {
	return slices.Contains(a.SelectedWorkOrders, wo)
}

// PassCount is the number of selected work orders
func (a StepAnswer) PassCount() int {
	return len(a.SelectedWorkOrders)
}

func (a StepAnswer) clone() StepAnswer {
	a.SelectedWorkOrders = slices.Clone(a.SelectedWorkOrders)
	if a.SelectedWorkOrders == nil {
		a.SelectedWorkOrders = []string{}
	}
	return a
}

// without drops wo from the selection
func (a StepAnswer) without(wo string) StepAnswer {
	selected := make([]string, 0, len(a.SelectedWorkOrders))
	for _, x := range a.SelectedWorkOrders {
		if x != wo {
			selected = append(selected, x)
		}
	}
	a.SelectedWorkOrders = selected
	return a
}

// toggled flips wo. Re-selected work orders are placed back in registry
// order so a double toggle restores the original slice exactly.
func (a StepAnswer) toggled(wo string, registry WorkOrders) StepAnswer {
	if a.IsSelected(wo) {
		return a.without(wo)
	}
	selected := make([]string, 0, len(a.SelectedWorkOrders)+1)
	for _, x := range registry {
		if x == wo || a.IsSelected(x) {
			selected = append(selected, x)
		}
	}
	a.SelectedWorkOrders = selected
	return a
}
