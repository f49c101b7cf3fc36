package onboarding

import (
	"encoding/json"
	"fmt"
)

// Step is one screen of the wizard.
type Step int

// Wizard steps in order.
const (
	StepWelcome Step = iota
	StepGenre
	StepBooks
	StepPurpose
	StepStyle
	StepMood
	StepTheme
	StepAnalyzing
	StepSubmitting
)

// TotalSteps is the denominator of the progress metric.
const TotalSteps = 7

var stepNames = [...]string{
	StepWelcome:    "welcome",
	StepGenre:      "genre",
	StepBooks:      "books",
	StepPurpose:    "purpose",
	StepStyle:      "style",
	StepMood:       "mood",
	StepTheme:      "theme",
	StepAnalyzing:  "analyzing",
	StepSubmitting: "submitting",
}

func (s Step) String() string {
	if s < StepWelcome || s > StepSubmitting {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// ParseStep returns the step with the given wire name.
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("unknown step %q", name)
}

// Ordinal is the progress number of the step. Submitting shares Analyzing's.
func (s Step) Ordinal() int {
	if s >= StepAnalyzing {
		return int(StepAnalyzing)
	}
	return int(s)
}

// Progress returns completion as a percentage.
func (s Step) Progress() float64 {
	return float64(s.Ordinal()) / TotalSteps * 100
}

// IsCategory reports whether the step collects a preference facet.
func (s Step) IsCategory() bool {
	switch s {
	case StepGenre, StepPurpose, StepStyle, StepMood, StepTheme:
		return true
	}
	return false
}

// MarshalJSON encodes the step by name.
func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a step name.
func (s *Step) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	step, err := ParseStep(name)
	if err != nil {
		return err
	}
	*s = step
	return nil
}
