package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// BookingRepo provides access to bookings and their line items. Writes
// happen through Tx-suffixed methods inside a transaction owned by the
// caller; reads that feed responses run as single queries (or a read
// transaction) so they observe one consistent snapshot.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a new booking within the scope of an existing
// transaction. It populates the generated ID on the provided record.
// The caller must commit or rollback the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, status, created_at) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.UserID, b.Status, b.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// CreateLineItemsBulkTx inserts multiple booking_line_items rows in a
// single statement. The caller must supply the booking ID in each record.
// Passing an empty slice has no effect and returns nil.
func (r *BookingRepo) CreateLineItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.BookingLineItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO booking_line_items (booking_id, seat_id, ticket_type_id) VALUES `
	args := make([]interface{}, 0, len(items)*3)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, it.BookingID, it.SeatID, it.TicketTypeID)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a booking by its id.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT id, user_id, status, created_at FROM bookings WHERE id = ?`
	var b model.Booking
	err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.UserID, &b.Status, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// GetForUpdateTx loads a booking and locks its row for the duration of
// the transaction. Status transitions read the current status through
// this method so the guard and the write form one atomic step.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	const q = `SELECT id, user_id, status, created_at FROM bookings WHERE id = ? FOR UPDATE`
	var b model.Booking
	err := tx.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.UserID, &b.Status, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// UpdateStatusTx writes a booking's status within the caller's
// transaction. Guards must already have been checked against the row
// locked by GetForUpdateTx.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, status, id)
	return err
}

// SeatIDsTx returns the seat IDs referenced by a booking's line items,
// within the caller's transaction.
func (r *BookingRepo) SeatIDsTx(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]uint64, error) {
	const q = `SELECT seat_id FROM booking_line_items WHERE booking_id = ?`
	rows, err := tx.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
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

// DeleteLineItemsTx removes all line items of a booking within the
// caller's transaction. Used by cancellation: voiding the line items
// frees the per-seat uniqueness constraint so the seats can be rebooked.
func (r *BookingRepo) DeleteLineItemsTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM booking_line_items WHERE booking_id = ?`, bookingID)
	return err
}

// AggregatedLine is one priced category within a booking, with the number
// of seats allocated to it. Quantity is always derived by counting line
// items, never stored.
type AggregatedLine struct {
	TicketType model.TicketType `json:"ticket_type"`
	Quantity   int              `json:"quantity"`
}

// AggregatedLines groups a booking's line items by ticket type and counts
// them. The single grouped query reflects one snapshot of the join.
func (r *BookingRepo) AggregatedLines(ctx context.Context, bookingID uint64) ([]AggregatedLine, error) {
	const q = `SELECT li.ticket_type_id, t.name, t.price, COUNT(li.id)
	           FROM booking_line_items li
	           JOIN ticket_types t ON t.id = li.ticket_type_id
	           WHERE li.booking_id = ?
	           GROUP BY li.ticket_type_id, t.name, t.price
	           ORDER BY li.ticket_type_id`
	rows, err := r.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]AggregatedLine, 0)
	for rows.Next() {
		var l AggregatedLine
		if err := rows.Scan(&l.TicketType.ID, &l.TicketType.Name, &l.TicketType.Price, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// AdminBookingSummary is one row of the admin booking list.
type AdminBookingSummary struct {
	ID          uint64    `json:"id"`
	UserName    string    `json:"user_name"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// AdminList returns every booking with the owner's display name and the
// computed total (sum of the line items' ticket type prices). Canceled
// bookings have no line items left and report a zero total.
func (r *BookingRepo) AdminList(ctx context.Context) ([]AdminBookingSummary, error) {
	const q = `SELECT b.id, u.name, COALESCE(SUM(t.price), 0), b.status, b.created_at
	           FROM bookings b
	           JOIN users u ON u.id = b.user_id
	           LEFT JOIN booking_line_items li ON li.booking_id = b.id
	           LEFT JOIN ticket_types t ON t.id = li.ticket_type_id
	           GROUP BY b.id, u.name, b.status, b.created_at
	           ORDER BY b.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]AdminBookingSummary, 0)
	for rows.Next() {
		var s AdminBookingSummary
		if err := rows.Scan(&s.ID, &s.UserName, &s.TotalAmount, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// TicketBreakdown is one category line of the admin detail view.
type TicketBreakdown struct {
	TicketType string  `json:"ticket_type"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
}

// AdminBookingDetail extends the summary with the owner's contact and the
// per-category ticket breakdown.
type AdminBookingDetail struct {
	ID          uint64            `json:"id"`
	UserName    string            `json:"user_name"`
	UserEmail   string            `json:"user_email"`
	TotalAmount float64           `json:"total_amount"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	Tickets     []TicketBreakdown `json:"tickets"`
}

// AdminDetail returns the full admin view of one booking. Both queries run
// inside one read transaction so the header and the breakdown come from
// the same snapshot.
func (r *BookingRepo) AdminDetail(ctx context.Context, bookingID uint64) (*AdminBookingDetail, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	const q = `SELECT b.id, u.name, u.email, COALESCE(SUM(t.price), 0), b.status, b.created_at
	           FROM bookings b
	           JOIN users u ON u.id = b.user_id
	           LEFT JOIN booking_line_items li ON li.booking_id = b.id
	           LEFT JOIN ticket_types t ON t.id = li.ticket_type_id
	           WHERE b.id = ?
	           GROUP BY b.id, u.name, u.email, b.status, b.created_at`
	var det AdminBookingDetail
	err = tx.QueryRowContext(ctx, q, bookingID).Scan(
		&det.ID, &det.UserName, &det.UserEmail, &det.TotalAmount, &det.Status, &det.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	const breakdownQ = `SELECT t.name, COUNT(li.id), t.price
	                    FROM booking_line_items li
	                    JOIN ticket_types t ON t.id = li.ticket_type_id
	                    WHERE li.booking_id = ?
	                    GROUP BY t.name, t.price
	                    ORDER BY t.name`
	rows, err := tx.QueryContext(ctx, breakdownQ, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	det.Tickets = make([]TicketBreakdown, 0)
	for rows.Next() {
		var tb TicketBreakdown
		if err := rows.Scan(&tb.TicketType, &tb.Quantity, &tb.Price); err != nil {
			return nil, err
		}
		det.Tickets = append(det.Tickets, tb)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &det, nil
}
