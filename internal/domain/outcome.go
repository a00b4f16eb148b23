package domain

// Outcome is the final state of a single test case
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// IsValid reports whether o is one of the known outcomes
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomePassed, OutcomeFailed, OutcomeSkipped:
		return true
	}
	return false
}

// IsFailure reports whether the outcome should trigger failure diagnostics
func (o Outcome) IsFailure() bool {
	return o == OutcomeFailed
}
