package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsTxConflict(t *testing.T) {
	assert.True(t, IsTxConflict(&mysql.MySQLError{Number: 1213}))
	assert.True(t, IsTxConflict(&mysql.MySQLError{Number: 1205}))
	assert.False(t, IsTxConflict(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsTxConflict(errors.New("plain error")))
	assert.False(t, IsTxConflict(nil))

	// wrapped driver errors are still recognized
	wrapped := fmt.Errorf("allocate: %w", &mysql.MySQLError{Number: 1213})
	assert.True(t, IsTxConflict(wrapped))
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1213}))
	assert.False(t, isDuplicateKey(errors.New("nope")))
}

func TestInsufficientSeatsErrorMessage(t *testing.T) {
	err := &InsufficientSeatsError{TicketTypeID: 7, Requested: 3, Available: 1}
	assert.Contains(t, err.Error(), "ticket type 7")
	assert.Contains(t, err.Error(), "requested 3")
	assert.Contains(t, err.Error(), "available 1")

	var target *InsufficientSeatsError
	assert.True(t, errors.As(fmt.Errorf("wrap: %w", err), &target))
	assert.Equal(t, uint64(7), target.TicketTypeID)
}

func TestInvalidTransitionErrorMessage(t *testing.T) {
	err := &InvalidTransitionError{BookingID: 4, Current: "paid", Target: "canceled"}
	assert.Equal(t, "booking 4 is paid and cannot transition to canceled", err.Error())
}
