package navigation

import "math"

// Normalizer converts a raw mapping-engine route into device steps.
//
// Each Turn expands to the straight approach followed by a zero-distance pivot.
// Leading and trailing straight steps are kept, including zero-length ones.
type Normalizer struct {
	// RoundDistances rounds every distance to the nearest whole unit.
	RoundDistances bool
}

// Normalize maps instructions in order. It never fails; an empty route yields an empty, non-nil slice.
func (n Normalizer) Normalize(instructions []RawInstruction) []Step {
	steps := make([]Step, 0, len(instructions)+len(instructions)/2)
	for _, in := range instructions {
		steps = n.appendSteps(steps, in)
	}
	return steps
}

func (n Normalizer) appendSteps(steps []Step, in RawInstruction) []Step {
	switch in.Action {
	case ActionTurn:
		straight := Step{Action: StepStraight, Distance: n.distance(in.Distance)}
		pivot, ok := turnAction(in.Bearing)
		if !ok {
			return append(steps, straight)
		}
		return append(steps, straight, Step{Action: pivot})
	case ActionTakeConnection:
		return append(steps, Step{Action: StepTakeElevator})
	case ActionExitConnection:
		return append(steps, Step{Action: StepExitElevator})
	default:
		return append(steps, Step{Action: StepStraight, Distance: n.distance(in.Distance)})
	}
}

// turnAction is the closed bearing table. Bearings outside it do not produce a pivot.
func turnAction(b Bearing) (StepAction, bool) {
	switch b {
	case BearingLeft, BearingSlightLeft:
		return StepLeft, true
	case BearingRight, BearingSlightRight:
		return StepRight, true
	default:
		return "", false
	}
}

func (n Normalizer) distance(d float64) float64 {
	if math.IsNaN(d) || d <= 0 {
		return 0
	}
	if n.RoundDistances {
		return math.Round(d)
	}
	return d
}
