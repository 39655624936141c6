package model

import "time"

// Booking statuses. A booking starts out pending and moves to exactly one
// of the two terminal states.
const (
	StatusPending  = "pending"
	StatusPaid     = "paid"
	StatusCanceled = "canceled"
)

// ValidStatus reports whether s is one of the three booking statuses.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusPaid || s == StatusCanceled
}

// CanTransition reports whether the normal booking lifecycle permits moving
// from one status to another. Only pending bookings may change state;
// paid and canceled are terminal.
func CanTransition(from, to string) bool {
	if from != StatusPending {
		return false
	}
	return to == StatusPaid || to == StatusCanceled
}

// Booking records a user's request for a set of seats. The seats
// themselves are tracked as BookingLineItem rows; a booking aggregates
// them under a single status.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who created the booking.
//  Status    – state of the booking (pending, paid, canceled).
//  CreatedAt – creation timestamp (UTC).
type Booking struct {
	ID        uint64    // bookings.id
	UserID    uint64    // bookings.user_id
	Status    string    // bookings.status
	CreatedAt time.Time // bookings.created_at
}

// BookingLineItem assigns exactly one seat to a booking. The ticket type
// is denormalized from the seat at allocation time so that the priced
// category of a line item is stable even if the seat is later recategorized.
//
// Fields:
//  ID           – primary key identifier.
//  BookingID    – parent booking.
//  SeatID       – the reserved seat.
//  TicketTypeID – ticket type the seat was sold under.
type BookingLineItem struct {
	ID           uint64 // booking_line_items.id
	BookingID    uint64 // booking_line_items.booking_id
	SeatID       uint64 // booking_line_items.seat_id
	TicketTypeID uint64 // booking_line_items.ticket_type_id
}
