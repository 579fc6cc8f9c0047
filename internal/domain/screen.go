package domain

// Screen is the wizard screen the session is currently on
type Screen string

const (
	ScreenStart  Screen = "start"
	ScreenWizard Screen = "wizard"
	ScreenReview Screen = "review"
	ScreenDone   Screen = "done"
)

// AllScreens returns the screens in flow order
func AllScreens() []Screen {
	return []Screen{ScreenStart, ScreenWizard, ScreenReview, ScreenDone}
}

// String returns the display name of the screen
func (s Screen) String() string {
	switch s {
	case ScreenStart:
		return "Start"
	case ScreenWizard:
		return "Checklist"
	case ScreenReview:
		return "Review"
	case ScreenDone:
		return "Done"
	default:
		return "Unknown"
	}
}
