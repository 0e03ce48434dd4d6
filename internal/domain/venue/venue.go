package venue

import (
	"context"
	"strings"

	"github.com/wayfinder-labs/service-wayfinding/internal/domain/navigation"
)

// Kind is the class of an addressable map entity.
type Kind string

const (
	KindSpace Kind = "space"
	KindPOI   Kind = "point-of-interest"
)

// Entity is a named location in the mapping engine's dataset.
type Entity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Directions is a route computed by the mapping engine.
type Directions struct {
	Distance     float64                     `json:"distance"`
	Instructions []navigation.RawInstruction `json:"instructions"`
}

// DirectionsOptions tunes route computation.
type DirectionsOptions struct {
	Accessible bool
}

// Engine is the mapping engine contract.
type Engine interface {
	// Entities lists every addressable space and point of interest.
	Entities(ctx context.Context) ([]Entity, error)

	// Directions computes a route from one entity to another. A nil result means no route exists.
	Directions(ctx context.Context, from, to Entity, opts DirectionsOptions) (*Directions, error)
}

// NormalizeName folds case and collapses whitespace so spoken and stored names compare equal.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// MatchName finds the entity whose name equals name after normalization.
// Spaces take precedence over points of interest with the same name.
func MatchName(entities []Entity, name string) (Entity, bool) {
	want := NormalizeName(name)
	if want == "" {
		return Entity{}, false
	}

	var poi *Entity
	for i := range entities {
		if NormalizeName(entities[i].Name) != want {
			continue
		}
		if entities[i].Kind == KindSpace {
			return entities[i], true
		}
		if poi == nil {
			poi = &entities[i]
		}
	}
	if poi != nil {
		return *poi, true
	}
	return Entity{}, false
}
