package domain

// StepSummary is the aggregated result of one step for the Review screen
type StepSummary struct {
	StepID    string   `json:"stepId"`
	StepName  string   `json:"stepName"`
	PassCount int      `json:"passCount"`
	FailCount int      `json:"failCount"`
	Comment   string   `json:"comment,omitempty"`
	Failed    []string `json:"failed"`
}

// AllPassed reports whether no work order failed the step
func (s StepSummary) AllPassed() bool {
	return s.FailCount == 0
}

// Summarize computes pass/fail counts per answer. Work orders that are
// registered but not selected are listed as failed, in registry order.
func Summarize(answers []StepAnswer, workOrders WorkOrders) []StepSummary {
	summaries := make([]StepSummary, 0, len(answers))
	for _, a := range answers {
		pass := a.PassCount()
		failed := make([]string, 0)
		for _, wo := range workOrders {
			if !a.IsSelected(wo) {
				failed = append(failed, wo)
			}
		}
		summaries = append(summaries, StepSummary{
			StepID:    a.StepID,
			StepName:  a.StepName,
			PassCount: pass,
			FailCount: workOrders.Len() - pass,
			Comment:   a.Comment,
			Failed:    failed,
		})
	}
	return summaries
}
