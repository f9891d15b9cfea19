package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_TransitionTable(t *testing.T) {
	legal := map[[2]Status]bool{
		{StatusPending, StatusConfirmed}:   true,
		{StatusPending, StatusCancelled}:   true,
		{StatusConfirmed, StatusPreparing}: true,
		{StatusConfirmed, StatusCancelled}: true,
		{StatusPreparing, StatusReady}:     true,
		{StatusPreparing, StatusCancelled}: true,
		{StatusReady, StatusDelivered}:     true,
	}

	for _, from := range Statuses() {
		for _, to := range Statuses() {
			want := legal[[2]Status{from, to}]
			assert.Equalf(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)

			err := CheckTransition(from, to)
			if want {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrIllegalTransition)
			}
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, Status("archived").Terminal())
	assert.Empty(t, StatusDelivered.Next())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("ready")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, s)

	_, err = ParseStatus("shipped")
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestCheckTransition_DeliveredToCancelled(t *testing.T) {
	err := CheckTransition(StatusDelivered, StatusCancelled)

	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StatusDelivered, te.From)
	assert.Equal(t, StatusCancelled, te.To)
	assert.Contains(t, err.Error(), "from delivered to cancelled")
}
