// Package repository defines error values shared across repositories.
// These sentinel and typed errors let handlers distinguish failure
// scenarios without inspecting SQL errors: for example ErrConflict maps
// to HTTP 409 while an InsufficientSeatsError maps to HTTP 400 and names
// the ticket type that ran short.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they may not access. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as deleting a seat that is held by an active
// booking. Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrTicketTypeNotFound is returned when a ticket type lookup yields no rows.
var ErrTicketTypeNotFound = errors.New("ticket type not found")

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// ErrBookingNotFound is returned when a booking lookup yields no rows.
var ErrBookingNotFound = errors.New("booking not found")

// ErrNameExists is returned when a ticket type name is already taken.
var ErrNameExists = errors.New("ticket type name already exists")

// InsufficientSeatsError reports that a ticket type did not have enough
// available seats to satisfy an allocation request. The whole request is
// rolled back when this occurs; no seats of any type are reserved.
type InsufficientSeatsError struct {
	TicketTypeID uint64
	Requested    int
	Available    int
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("not enough available seats for ticket type %d (requested %d, available %d)",
		e.TicketTypeID, e.Requested, e.Available)
}

// InvalidTransitionError reports a booking status transition rejected by
// the lifecycle guard. Current carries the booking's actual status so the
// caller can see why the transition was refused.
type InvalidTransitionError struct {
	BookingID uint64
	Current   string
	Target    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking %d is %s and cannot transition to %s", e.BookingID, e.Current, e.Target)
}

// IsTxConflict reports whether err is a MySQL serialization failure
// (deadlock or lock wait timeout). Two allocations racing for the same
// seats surface as one of these on the losing side; the caller may retry
// the whole request.
func IsTxConflict(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1213 || me.Number == 1205
	}
	return false
}

// isDuplicateKey reports whether err is a MySQL duplicate-entry error.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return false
}
