package navigation

// StepAction is the five-symbol vocabulary understood by guidance devices.
type StepAction string

const (
	StepStraight     StepAction = "straight"
	StepLeft         StepAction = "left"
	StepRight        StepAction = "right"
	StepTakeElevator StepAction = "take-elevator"
	StepExitElevator StepAction = "exit-elevator"
)

// IsValid reports whether a is one of the five device actions.
func (a StepAction) IsValid() bool {
	switch a {
	case StepStraight, StepLeft, StepRight, StepTakeElevator, StepExitElevator:
		return true
	}
	return false
}

// Step is a normalized movement primitive. Only straight steps carry a non-zero distance.
type Step struct {
	Action   StepAction `json:"action"`
	Distance float64    `json:"distance"`
}

// TotalDistance sums the walking distance of steps.
func TotalDistance(steps []Step) float64 {
	var total float64
	for _, s := range steps {
		total += s.Distance
	}
	return total
}
