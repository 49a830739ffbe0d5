package bills

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, Pending, s)

	s, err = ParseStatus("Paid")
	require.NoError(t, err)
	assert.Equal(t, Paid, s)

	_, err = ParseStatus("paid")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{Pending, Pending, true},
		{Pending, Paid, true},
		{Pending, Overdue, true},
		{Overdue, Paid, true},
		{Overdue, Overdue, true},
		{Overdue, Pending, false},
		{Paid, Paid, true},
		{Paid, Pending, false},
		{Paid, Overdue, false},
	}
	for _, tt := range tests {
		err := Transition(tt.from, tt.to)
		if tt.ok {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", tt.from, tt.to)
		}
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)

	assert.True(t, IsOverdue(Pending, now.AddDate(0, 0, -1), now))
	assert.False(t, IsOverdue(Pending, time.Date(2026, 5, 10, 1, 0, 0, 0, time.UTC), now), "due today")
	assert.False(t, IsOverdue(Pending, now.AddDate(0, 0, 3), now))
	assert.False(t, IsOverdue(Paid, now.AddDate(0, 0, -30), now))
	assert.False(t, IsOverdue(Pending, time.Time{}, now))
}
