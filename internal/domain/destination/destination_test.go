package destination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDestination(t *testing.T) {
	at := time.Date(2024, 8, 28, 10, 0, 0, 0, time.FixedZone("EDT", -4*3600))
	d, err := NewDestination("  Food Court ", "session-1", at)
	require.NoError(t, err)

	assert.Equal(t, "Food Court", d.Name())
	assert.Equal(t, "session-1", d.SessionID())
	assert.Equal(t, time.UTC, d.CreatedAt().Location())
	assert.True(t, at.Equal(d.CreatedAt()))
}

func TestNewDestination_RequiresName(t *testing.T) {
	_, err := NewDestination("   ", "", time.Time{})
	assert.Error(t, err)
}
