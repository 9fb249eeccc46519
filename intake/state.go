package intake

const (
	FirstStep = 1
	LastStep  = 3
)

// State описывает одну анкету на странице.
type State struct {
	Step      int
	SessionID string
	Fields    FormFields
}

func NewState() State {
	return State{Step: FirstStep}
}

func (s State) HasSession() bool {
	return s.SessionID != ""
}

func clampStep(step int) int {
	return max(FirstStep, min(step, LastStep))
}
