package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// SeatRepo provides methods to work with seats in the database. Seat
// availability is the one hot shared-mutable resource in the system:
// normal flips happen only inside the allocation and cancellation
// transactions via the Tx-suffixed methods, which lock the rows they
// touch. The plain Update method is an administrative trapdoor for
// corrections and must not be used by the booking flow.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// Create inserts a single seat record. On success the seat's ID is populated.
func (r *SeatRepo) Create(ctx context.Context, s *model.Seat) error {
	const q = `INSERT INTO seats (ticket_type_id, is_available) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.TicketTypeID, s.IsAvailable)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// List returns seats ordered by id. When ticketTypeID is non-zero the
// listing is restricted to that type; availableOnly further restricts the
// result to seats not held by an active booking.
func (r *SeatRepo) List(ctx context.Context, ticketTypeID uint64, availableOnly bool) ([]model.Seat, error) {
	query := `SELECT id, ticket_type_id, is_available FROM seats`
	conds := make([]string, 0, 2)
	args := make([]interface{}, 0, 1)
	if ticketTypeID != 0 {
		conds = append(conds, "ticket_type_id = ?")
		args = append(args, ticketTypeID)
	}
	if availableOnly {
		conds = append(conds, "is_available = 1")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.TicketTypeID, &s.IsAvailable); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID retrieves a seat by its id.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT id, ticket_type_id, is_available FROM seats WHERE id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.TicketTypeID, &s.IsAvailable)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// TicketTypeSeatCount summarizes availability for one ticket type.
type TicketTypeSeatCount struct {
	TicketTypeID   uint64 `json:"ticket_type_id"`
	TicketTypeName string `json:"ticket_type_name"`
	Total          int    `json:"total_seats"`
	Available      int    `json:"available_seats"`
	NotAvailable   int    `json:"not_available_seats"`
}

// SeatCounts aggregates availability across the whole inventory and per
// ticket type.
type SeatCounts struct {
	Total        int                   `json:"total_seats"`
	Available    int                   `json:"available_seats"`
	NotAvailable int                   `json:"not_available_seats"`
	PerType      []TicketTypeSeatCount `json:"ticket_type_counts"`
}

// Counts computes total/available/unavailable seat counts, broken down by
// ticket type. A single grouped query keeps the numbers from one snapshot.
func (r *SeatRepo) Counts(ctx context.Context) (*SeatCounts, error) {
	const q = `SELECT t.id, t.name, COUNT(s.id), COALESCE(SUM(s.is_available), 0)
	           FROM ticket_types t
	           LEFT JOIN seats s ON s.ticket_type_id = t.id
	           GROUP BY t.id, t.name
	           ORDER BY t.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := &SeatCounts{PerType: make([]TicketTypeSeatCount, 0)}
	for rows.Next() {
		var c TicketTypeSeatCount
		if err := rows.Scan(&c.TicketTypeID, &c.TicketTypeName, &c.Total, &c.Available); err != nil {
			return nil, err
		}
		c.NotAvailable = c.Total - c.Available
		counts.Total += c.Total
		counts.Available += c.Available
		counts.PerType = append(counts.PerType, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	counts.NotAvailable = counts.Total - counts.Available
	return counts, nil
}

// SeatPatch lists the fields an administrative update may change. Nil
// fields are left untouched.
type SeatPatch struct {
	TicketTypeID *uint64
	IsAvailable  *bool
}

// UpdateFields applies a partial administrative update to a seat. This
// bypasses the lifecycle service on purpose (corrections only).
func (r *SeatRepo) UpdateFields(ctx context.Context, id uint64, patch SeatPatch) error {
	sets := make([]string, 0, 2)
	args := make([]interface{}, 0, 3)
	if patch.TicketTypeID != nil {
		sets = append(sets, "ticket_type_id = ?")
		args = append(args, *patch.TicketTypeID)
	}
	if patch.IsAvailable != nil {
		sets = append(sets, "is_available = ?")
		args = append(args, *patch.IsAvailable)
	}
	if len(sets) == 0 {
		return nil
	}
	query := "UPDATE seats SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a seat. A seat held by an active booking cannot be
// deleted; the attempt fails with ErrConflict.
func (r *SeatRepo) Delete(ctx context.Context, id uint64) error {
	seat, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !seat.IsAvailable {
		return ErrConflict
	}
	// Guard against a booking landing between the check and the delete.
	res, err := r.db.ExecContext(ctx, `DELETE FROM seats WHERE id = ? AND is_available = 1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// SelectAvailableForUpdateTx locks and returns up to limit available seat
// IDs of the given ticket type, in ascending id order. The FOR UPDATE
// lock makes the selection part of the caller's atomic unit: a concurrent
// allocation cannot read these rows until the transaction ends, so two
// requests can never pick the same seat.
func (r *SeatRepo) SelectAvailableForUpdateTx(ctx context.Context, tx *sql.Tx, ticketTypeID uint64, limit int) ([]uint64, error) {
	const q = `SELECT id FROM seats
	           WHERE ticket_type_id = ? AND is_available = 1
	           ORDER BY id ASC
	           LIMIT ?
	           FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, ticketTypeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uint64, 0, limit)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetAvailabilityTx flips the availability flag for the given seats within
// the caller's transaction. Passing an empty slice has no effect.
func (r *SeatRepo) SetAvailabilityTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64, available bool) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `UPDATE seats SET is_available = ? WHERE id IN (`
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, available)
	for i, id := range seatIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
