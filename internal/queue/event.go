// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingEvent is published on every booking lifecycle change (created,
// paid, canceled). It carries enough information for downstream consumers
// to write audit records or trigger notifications without querying the
// primary database.
type BookingEvent struct {
	BookingID   uint64   `json:"booking_id"`
	UserID      uint64   `json:"user_id"`
	Status      string   `json:"status"`
	SeatIDs     []uint64 `json:"seat_ids"`
	TotalAmount float64  `json:"total_amount"`
	OccurredAt  string   `json:"occurred_at"`
}
