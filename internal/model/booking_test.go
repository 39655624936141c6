package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPending))
	assert.True(t, ValidStatus(StatusPaid))
	assert.True(t, ValidStatus(StatusCanceled))
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("PENDING"))
	assert.False(t, ValidStatus("refunded"))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusPaid))
	assert.True(t, CanTransition(StatusPending, StatusCanceled))

	// paid and canceled are terminal
	for _, terminal := range []string{StatusPaid, StatusCanceled} {
		assert.False(t, CanTransition(terminal, StatusPending))
		assert.False(t, CanTransition(terminal, StatusPaid))
		assert.False(t, CanTransition(terminal, StatusCanceled))
	}

	// a booking never transitions back to pending
	assert.False(t, CanTransition(StatusPending, StatusPending))
}
