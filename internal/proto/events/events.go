package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/navigation"
)

// Topics.
const (
	TopicNavigationEvents = "navigation.events"
	TopicDialogueEvents   = "dialogue.events"
)

// Event types.
const (
	NavigationRouteComputed     = "navigation.route.computed"
	NavigationRouteUnresolved   = "navigation.route.unresolved"
	DialogueDestinationRecorded = "dialogue.destination.recorded"
)

// RouteComputedEvent is published after a route's steps are persisted.
type RouteComputedEvent struct {
	RouteID       uuid.UUID         `json:"route_id"`
	Start         string            `json:"start"`
	Destination   string            `json:"destination"`
	Accessible    bool              `json:"accessible"`
	Steps         []navigation.Step `json:"steps"`
	TotalDistance float64           `json:"total_distance"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// RouteUnresolvedEvent is published when a start or destination name matches no map entity,
// or the engine finds no path.
type RouteUnresolvedEvent struct {
	Start       string    `json:"start"`
	Destination string    `json:"destination"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// DestinationRecordedEvent is emitted by the dialogue engine integration when it resolves a destination.
type DestinationRecordedEvent struct {
	Destination string    `json:"destination"`
	SessionID   string    `json:"session_id,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}
