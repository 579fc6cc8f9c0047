package domain

func testSteps() []Step {
	return []Step{
		{ID: "BOM", Name: "Correct parts supplied (BOM)"},
		{ID: "T1", Name: "Tube cut length T1 within spec"},
	}
}

// startedSession returns a session on the first wizard step for the given
// operator and work orders.
func startedSession(operator string, wos ...string) Session {
	s := NewSession(testSteps())
	s.Operator = operator
	for _, wo := range wos {
		s.WorkOrders, _ = s.WorkOrders.Add(wo)
	}
	s, err := Apply(s, StartChecklist{})
	if err != nil {
		panic(err)
	}
	return s
}

func mustApply(s Session, actions ...Action) Session {
	for _, a := range actions {
		var err error
		s, err = Apply(s, a)
		if err != nil {
			panic(err)
		}
	}
	return s
}
