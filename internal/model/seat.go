package model

// Seat describes a single bookable seat. Its ticket type is fixed at
// creation; only the availability flag changes during normal operation,
// and only through allocation and cancellation.
//
// Fields:
//  ID           – primary key identifier.
//  TicketTypeID – ticket type this seat is sold under.
//  IsAvailable  – false while exactly one active booking holds the seat.
type Seat struct {
	ID           uint64 `json:"id"`             // seats.id
	TicketTypeID uint64 `json:"ticket_type_id"` // seats.ticket_type_id
	IsAvailable  bool   `json:"is_available"`   // seats.is_available
}
