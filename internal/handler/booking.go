package handler // booking allocation and lifecycle endpoints

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/queue"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
	"github.com/iliyamo/event-ticket-booking/internal/service/queuepublisher"
	"github.com/iliyamo/event-ticket-booking/internal/utils"
)

// BookingHandler serves the booking endpoints. It owns the transactions:
// repositories only run statements, the handler decides what commits
// together. Seat allocation and status changes each happen in one
// transaction so a booking can never hold a partial seat set.
type BookingHandler struct {
	DB          *sql.DB
	Bookings    *repository.BookingRepo
	Seats       *repository.SeatRepo
	TicketTypes *repository.TicketTypeRepo
}

// NewBookingHandler wires a BookingHandler with its repositories.
func NewBookingHandler(db *sql.DB, b *repository.BookingRepo, s *repository.SeatRepo, tt *repository.TicketTypeRepo) *BookingHandler {
	return &BookingHandler{DB: db, Bookings: b, Seats: s, TicketTypes: tt}
}

// seatRequest is one line of an initiate request: how many seats of a
// given ticket type the caller wants.
type seatRequest struct {
	TicketTypeID uint64 `json:"ticket_type_id"`
	Quantity     int    `json:"quantity"`
}

type initiateReq struct {
	SeatsRequested []seatRequest `json:"seats_requested"`
}

type bookingResp struct {
	ID          uint64                      `json:"id"`
	UserID      uint64                      `json:"user_id"`
	Status      string                      `json:"status"`
	CreatedAt   time.Time                   `json:"created_at"`
	LineItems   []repository.AggregatedLine `json:"line_items"`
	TotalAmount float64                     `json:"total_amount"`
}

// validateSeatRequests checks an initiate payload before any database
// work. Duplicated ticket types are allowed and simply add up.
func validateSeatRequests(reqs []seatRequest) error {
	if len(reqs) == 0 {
		return errors.New("seats_requested must not be empty")
	}
	for _, r := range reqs {
		if r.TicketTypeID == 0 {
			return errors.New("ticket_type_id must be a positive integer")
		}
		if r.Quantity <= 0 {
			return errors.New("quantity must be a positive integer")
		}
	}
	return nil
}

// mergeSeatRequests collapses request lines that name the same ticket type
// into one line with the summed quantity, preserving first-seen order.
func mergeSeatRequests(reqs []seatRequest) []seatRequest {
	merged := make([]seatRequest, 0, len(reqs))
	index := make(map[uint64]int, len(reqs))
	for _, r := range reqs {
		if i, ok := index[r.TicketTypeID]; ok {
			merged[i].Quantity += r.Quantity
			continue
		}
		index[r.TicketTypeID] = len(merged)
		merged = append(merged, r)
	}
	return merged
}

// seatAllocator is the slice of SeatRepo the allocation loop depends on.
type seatAllocator interface {
	SelectAvailableForUpdateTx(ctx context.Context, tx *sql.Tx, ticketTypeID uint64, limit int) ([]uint64, error)
	SetAvailabilityTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64, available bool) error
}

// allocateSeats selects and reserves the requested seats inside the
// caller's transaction. Request lines are merged per ticket type first:
// the selected rows are not flipped until after the loop, so a second
// locking read for the same type within this transaction would return the
// very rows already chosen. One select per type removes that case.
//
// On a shortage an *repository.InsufficientSeatsError is returned and no
// availability flag has been written; the caller rolls the transaction
// back, so nothing is held.
func allocateSeats(ctx context.Context, tx *sql.Tx, seats seatAllocator, bookingID uint64, reqs []seatRequest) ([]model.BookingLineItem, []uint64, error) {
	var items []model.BookingLineItem
	var seatIDs []uint64
	for _, r := range mergeSeatRequests(reqs) {
		ids, err := seats.SelectAvailableForUpdateTx(ctx, tx, r.TicketTypeID, r.Quantity)
		if err != nil {
			return nil, nil, err
		}
		if len(ids) < r.Quantity {
			return nil, nil, &repository.InsufficientSeatsError{
				TicketTypeID: r.TicketTypeID,
				Requested:    r.Quantity,
				Available:    len(ids),
			}
		}
		for _, id := range ids {
			items = append(items, model.BookingLineItem{
				BookingID:    bookingID,
				SeatID:       id,
				TicketTypeID: r.TicketTypeID,
			})
		}
		seatIDs = append(seatIDs, ids...)
	}
	if err := seats.SetAvailabilityTx(ctx, tx, seatIDs, false); err != nil {
		return nil, nil, err
	}
	return items, seatIDs, nil
}

// Initiate creates a pending booking and atomically reserves the requested
// seats. Seat rows are selected FOR UPDATE so two concurrent requests can
// never reserve the same seat; if any ticket type runs short the whole
// transaction rolls back and no seat of any type is held.
//
// POST /v1/bookings
func (h *BookingHandler) Initiate(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	var req initiateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := validateSeatRequests(req.SeatsRequested); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()

	// Resolve ticket types up front so an unknown id fails fast with 404
	// instead of holding row locks while we find out.
	for _, r := range req.SeatsRequested {
		if _, err := h.TicketTypes.GetByID(ctx, r.TicketTypeID); err != nil {
			if errors.Is(err, repository.ErrTicketTypeNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load ticket types"})
		}
	}

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	booking := &model.Booking{UserID: userID, Status: model.StatusPending, CreatedAt: time.Now().UTC()}
	if err := h.Bookings.CreateTx(ctx, tx, booking); err != nil {
		return txErrorResponse(c, err, "could not create booking")
	}

	items, seatIDs, err := allocateSeats(ctx, tx, h.Seats, booking.ID, req.SeatsRequested)
	if err != nil {
		var short *repository.InsufficientSeatsError
		if errors.As(err, &short) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": short.Error()})
		}
		return txErrorResponse(c, err, "could not reserve seats")
	}
	if err := h.Bookings.CreateLineItemsBulkTx(ctx, tx, items); err != nil {
		return txErrorResponse(c, err, "could not record reserved seats")
	}

	if err := tx.Commit(); err != nil {
		return txErrorResponse(c, err, "could not commit booking")
	}
	committed = true

	resp, err := h.bookingResponse(ctx, booking)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load booking"})
	}

	h.publishEvent(booking, seatIDs, resp.TotalAmount)

	return c.JSON(http.StatusCreated, resp)
}

// GetBooking returns one booking with its line items aggregated per ticket
// type. A non-admin caller may only read their own bookings.
//
// GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	booking, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load booking"})
	}
	if booking.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": repository.ErrForbidden.Error()})
	}

	resp, err := h.bookingResponse(ctx, booking)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load booking"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Confirm moves a pending booking to paid. Seats stay reserved; only the
// status changes. The booking row is locked first so a concurrent cancel
// cannot interleave.
//
// POST /v1/bookings/:id/confirm
func (h *BookingHandler) Confirm(c echo.Context) error {
	return h.transition(c, model.StatusPaid)
}

// Cancel moves a pending booking to canceled, releases all of its seats
// back to the available pool and removes its line items so the seats can
// be booked again.
//
// POST /v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c echo.Context) error {
	return h.transition(c, model.StatusCanceled)
}

// transition runs the shared confirm/cancel flow: lock the booking row,
// check ownership and the lifecycle guard, write the new status, and for
// cancellation release the seats in the same transaction.
func (h *BookingHandler) transition(c echo.Context, target string) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	booking, err := h.Bookings.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		}
		return txErrorResponse(c, err, "could not load booking")
	}
	if booking.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": repository.ErrForbidden.Error()})
	}
	if !model.CanTransition(booking.Status, target) {
		bad := &repository.InvalidTransitionError{BookingID: booking.ID, Current: booking.Status, Target: target}
		return c.JSON(http.StatusConflict, echo.Map{"error": bad.Error()})
	}

	var seatIDs []uint64
	var total float64
	if target == model.StatusCanceled {
		seatIDs, err = h.Bookings.SeatIDsTx(ctx, tx, booking.ID)
		if err != nil {
			return txErrorResponse(c, err, "could not load reserved seats")
		}
		if err := h.Seats.SetAvailabilityTx(ctx, tx, seatIDs, true); err != nil {
			return txErrorResponse(c, err, "could not release seats")
		}
		if err := h.Bookings.DeleteLineItemsTx(ctx, tx, booking.ID); err != nil {
			return txErrorResponse(c, err, "could not release seats")
		}
	} else {
		lines, err := h.Bookings.AggregatedLines(ctx, booking.ID)
		if err != nil {
			return txErrorResponse(c, err, "could not load booking")
		}
		for _, l := range lines {
			total += l.TicketType.Price * float64(l.Quantity)
		}
		total = utils.Round2(total)
	}

	if err := h.Bookings.UpdateStatusTx(ctx, tx, booking.ID, target); err != nil {
		return txErrorResponse(c, err, "could not update booking")
	}
	if err := tx.Commit(); err != nil {
		return txErrorResponse(c, err, "could not commit transition")
	}
	committed = true
	booking.Status = target

	h.publishEvent(booking, seatIDs, total)

	return c.JSON(http.StatusOK, echo.Map{
		"id":      booking.ID,
		"status":  booking.Status,
		"message": statusMessage(booking.Status),
	})
}

// statusMessage is the human-readable confirmation included in status
// change responses.
func statusMessage(status string) string {
	switch status {
	case model.StatusPaid:
		return "booking confirmed"
	case model.StatusCanceled:
		return "booking canceled and seats released"
	default:
		return "booking is " + status
	}
}

// bookingResponse assembles the detailed booking payload, summing line
// item prices per ticket type.
func (h *BookingHandler) bookingResponse(ctx context.Context, b *model.Booking) (*bookingResp, error) {
	lines, err := h.Bookings.AggregatedLines(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	var total float64
	for _, l := range lines {
		total += l.TicketType.Price * float64(l.Quantity)
	}
	return &bookingResp{
		ID:          b.ID,
		UserID:      b.UserID,
		Status:      b.Status,
		CreatedAt:   b.CreatedAt,
		LineItems:   lines,
		TotalAmount: utils.Round2(total),
	}, nil
}

// publishEvent emits the lifecycle event on a best-effort basis; a broker
// outage must not fail the request that already committed.
func (h *BookingHandler) publishEvent(b *model.Booking, seatIDs []uint64, total float64) {
	ev := queue.BookingEvent{
		BookingID:   b.ID,
		UserID:      b.UserID,
		Status:      b.Status,
		SeatIDs:     seatIDs,
		TotalAmount: total,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queuepublisher.PublishBookingEvent(ctx, ev)
	}()
}

// txErrorResponse maps a failure inside a transaction to a response. A
// serialization failure (deadlock / lock wait timeout) is reported as a
// retryable 409; anything else is a 500 with a stable message.
func txErrorResponse(c echo.Context, err error, msg string) error {
	if repository.IsTxConflict(err) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "the request conflicted with a concurrent booking, please retry",
			"retryable": true,
		})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}
