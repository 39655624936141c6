package handler // admin booking reporting and status override

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/queue"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
	"github.com/iliyamo/event-ticket-booking/internal/service/queuepublisher"
)

// AdminBookingHandler serves the admin-only booking endpoints: the full
// booking list with totals, the per-booking detail with the buyer and a
// ticket breakdown, and the status override that bypasses the normal
// lifecycle guard.
type AdminBookingHandler struct {
	DB       *sql.DB
	Bookings *repository.BookingRepo
	Seats    *repository.SeatRepo
}

// NewAdminBookingHandler wires an AdminBookingHandler with its repositories.
func NewAdminBookingHandler(db *sql.DB, b *repository.BookingRepo, s *repository.SeatRepo) *AdminBookingHandler {
	return &AdminBookingHandler{DB: db, Bookings: b, Seats: s}
}

// List returns every booking with the buyer's name and the priced total.
// Canceled bookings appear with a zero total since their line items were
// removed when the seats were released.
//
// GET /v1/admin/bookings
func (h *AdminBookingHandler) List(c echo.Context) error {
	rows, err := h.Bookings.AdminList(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": rows, "count": len(rows)})
}

// Detail returns one booking with the buyer's identity and a per-ticket-type
// breakdown of quantities and prices.
//
// GET /v1/admin/bookings/:id
func (h *AdminBookingHandler) Detail(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	detail, err := h.Bookings.AdminDetail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load booking"})
	}
	return c.JSON(http.StatusOK, detail)
}

type overrideReq struct {
	Status string `json:"status"`
}

// UpdateStatus force-sets a booking's status. Unlike the user-facing
// confirm/cancel endpoints it ignores the pending-only rule, so an admin
// can for example move a paid booking back to pending or cancel it.
//
// Moving a booking TO canceled releases its seats exactly like a user
// cancel. Moving a booking OUT of canceled is refused with 409: the line
// items were deleted on cancellation, so there is no seat set left to
// re-reserve, and silently resurrecting the booking without seats would
// corrupt the inventory.
//
// PUT /v1/admin/bookings/:id/status
func (h *AdminBookingHandler) UpdateStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req overrideReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !model.ValidStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": fmt.Sprintf("status must be one of %q, %q, %q", model.StatusPending, model.StatusPaid, model.StatusCanceled),
		})
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

	if booking.Status == req.Status {
		// Nothing to write; the deferred rollback drops the row lock.
		return c.JSON(http.StatusOK, echo.Map{
			"id":      booking.ID,
			"status":  booking.Status,
			"message": "booking is already " + booking.Status,
		})
	}
	if booking.Status == model.StatusCanceled {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": fmt.Sprintf("booking %d is canceled and its seats were released; it cannot be reopened", booking.ID),
		})
	}

	var seatIDs []uint64
	if req.Status == model.StatusCanceled {
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
	}

	if err := h.Bookings.UpdateStatusTx(ctx, tx, booking.ID, req.Status); err != nil {
		return txErrorResponse(c, err, "could not update booking")
	}
	if err := tx.Commit(); err != nil {
		return txErrorResponse(c, err, "could not commit status change")
	}
	committed = true
	booking.Status = req.Status

	ev := queue.BookingEvent{
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		Status:     booking.Status,
		SeatIDs:    seatIDs,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queuepublisher.PublishBookingEvent(ctx, ev)
	}()

	return c.JSON(http.StatusOK, echo.Map{
		"id":      booking.ID,
		"status":  booking.Status,
		"message": statusMessage(booking.Status),
	})
}
