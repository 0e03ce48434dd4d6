package venue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchName(t *testing.T) {
	entities := []Entity{
		{ID: "p1", Name: "Food Court", Kind: KindPOI},
		{ID: "s1", Name: "RBC Oasis Tent", Kind: KindSpace},
		{ID: "s2", Name: "Food  Court", Kind: KindSpace},
		{ID: "p2", Name: "Info Desk", Kind: KindPOI},
	}

	tests := []struct {
		name   string
		query  string
		wantID string
		found  bool
	}{
		{name: "exact", query: "RBC Oasis Tent", wantID: "s1", found: true},
		{name: "case and spacing", query: "  rbc   oasis TENT ", wantID: "s1", found: true},
		{name: "space beats poi", query: "food court", wantID: "s2", found: true},
		{name: "poi only", query: "info desk", wantID: "p2", found: true},
		{name: "no match", query: "Parking", found: false},
		{name: "empty", query: "   ", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchName(entities, tt.query)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}
