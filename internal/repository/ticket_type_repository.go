package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// TicketTypeRepo provides access to the 'ticket_types' table. Ticket types
// are read-mostly: updates are rare administrative actions and never race
// with allocation in a way that matters, so methods here run outside the
// allocation transaction.
type TicketTypeRepo struct {
	db *sql.DB
}

// NewTicketTypeRepo constructs a TicketTypeRepo with the given DB handle.
func NewTicketTypeRepo(db *sql.DB) *TicketTypeRepo {
	return &TicketTypeRepo{db: db}
}

// TicketTypeAvailability pairs a ticket type with the number of its seats
// that are currently available. Used by the catalog listing.
type TicketTypeAvailability struct {
	model.TicketType
	AvailableQuantity int `json:"available_quantity"`
}

// List returns all ticket types with their current available seat count.
func (r *TicketTypeRepo) List(ctx context.Context) ([]TicketTypeAvailability, error) {
	const q = `SELECT t.id, t.name, t.price, COALESCE(SUM(s.is_available), 0)
	           FROM ticket_types t
	           LEFT JOIN seats s ON s.ticket_type_id = t.id
	           GROUP BY t.id, t.name, t.price
	           ORDER BY t.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]TicketTypeAvailability, 0)
	for rows.Next() {
		var tt TicketTypeAvailability
		if err := rows.Scan(&tt.ID, &tt.Name, &tt.Price, &tt.AvailableQuantity); err != nil {
			return nil, err
		}
		result = append(result, tt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID retrieves a ticket type by its id.
func (r *TicketTypeRepo) GetByID(ctx context.Context, id uint64) (*model.TicketType, error) {
	const q = `SELECT id, name, price FROM ticket_types WHERE id = ?`
	var tt model.TicketType
	err := r.db.QueryRowContext(ctx, q, id).Scan(&tt.ID, &tt.Name, &tt.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketTypeNotFound
		}
		return nil, err
	}
	return &tt, nil
}

// Create inserts a ticket type. The name must be unique; a duplicate
// yields ErrNameExists. On success the ID is populated.
func (r *TicketTypeRepo) Create(ctx context.Context, tt *model.TicketType) error {
	const q = `INSERT INTO ticket_types (name, price) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, tt.Name, tt.Price)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrNameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tt.ID = uint64(id)
	return nil
}

// TicketTypePatch lists the fields an update may change. Nil fields are
// left untouched; this is the whole whitelist, nothing is patched by
// reflection.
type TicketTypePatch struct {
	Name  *string
	Price *float64
}

// UpdateFields applies a partial update. Returns ErrTicketTypeNotFound
// when no row matches and ErrNameExists when the new name is taken.
func (r *TicketTypeRepo) UpdateFields(ctx context.Context, id uint64, patch TicketTypePatch) error {
	sets := make([]string, 0, 2)
	args := make([]interface{}, 0, 3)
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *patch.Price)
	}
	if len(sets) == 0 {
		return nil
	}
	query := "UPDATE ticket_types SET " + sets[0]
	for _, s := range sets[1:] {
		query += ", " + s
	}
	query += " WHERE id = ?"
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrNameExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is also zero for a no-op update; confirm existence.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a ticket type together with its seats. The delete is
// refused with ErrConflict while any of the type's seats is held by an
// active booking. Runs in a transaction so the cascade is all-or-nothing.
func (r *TicketTypeRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM ticket_types WHERE id = ?)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrTicketTypeNotFound
	}

	var booked int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seats WHERE ticket_type_id = ? AND is_available = 0 FOR UPDATE`,
		id).Scan(&booked); err != nil {
		return err
	}
	if booked > 0 {
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM seats WHERE ticket_type_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ticket_types WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
