package navigation

import (
	"encoding/json"
	"strings"
)

// ActionType is the kind of a raw navigation instruction emitted by the mapping engine.
type ActionType string

const (
	ActionDeparture      ActionType = "Departure"
	ActionTurn           ActionType = "Turn"
	ActionTakeConnection ActionType = "TakeConnection"
	ActionExitConnection ActionType = "ExitConnection"
	ActionArrival        ActionType = "Arrival"
	// ActionOther stands in for any type the engine may add later.
	ActionOther ActionType = "Other"
)

// ParseActionType maps an engine tag onto a known action. Matching ignores case; unknown tags become ActionOther.
func ParseActionType(s string) ActionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "departure":
		return ActionDeparture
	case "turn":
		return ActionTurn
	case "takeconnection":
		return ActionTakeConnection
	case "exitconnection":
		return ActionExitConnection
	case "arrival":
		return ActionArrival
	default:
		return ActionOther
	}
}

// UnmarshalJSON accepts any engine spelling of the action tag.
func (a *ActionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a = ParseActionType(s)
	return nil
}

// Bearing is the direction of a Turn.
type Bearing string

const (
	BearingNone        Bearing = ""
	BearingStraight    Bearing = "Straight"
	BearingLeft        Bearing = "Left"
	BearingRight       Bearing = "Right"
	BearingSlightLeft  Bearing = "SlightLeft"
	BearingSlightRight Bearing = "SlightRight"
	BearingBack        Bearing = "Back"
)

// ParseBearing maps an engine bearing onto a known value, ignoring case.
// Unknown values are kept verbatim and normalize as straight-only.
func ParseBearing(s string) Bearing {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return BearingNone
	case "straight":
		return BearingStraight
	case "left":
		return BearingLeft
	case "right":
		return BearingRight
	case "slightleft":
		return BearingSlightLeft
	case "slightright":
		return BearingSlightRight
	case "back":
		return BearingBack
	default:
		return Bearing(s)
	}
}

// UnmarshalJSON accepts any engine spelling of the bearing.
func (b *Bearing) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*b = ParseBearing(s)
	return nil
}

// RawInstruction is one segment of a route as produced by the mapping engine.
// Distance covers the approach to the instruction's point, not the action itself.
type RawInstruction struct {
	Action   ActionType `json:"action"`
	Bearing  Bearing    `json:"bearing,omitempty"`
	Distance float64    `json:"distance"`
}
