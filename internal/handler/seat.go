package handler // seat inventory endpoints

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticket-booking/internal/config"
	"github.com/iliyamo/event-ticket-booking/internal/middleware"
	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// SeatHandler serves the seat inventory endpoints. Reads are cheap and
// cacheable; every mutation invalidates the availability cache so stale
// counts never outlive a write by more than the request.
type SeatHandler struct {
	Seats       *repository.SeatRepo
	TicketTypes *repository.TicketTypeRepo
	Cache       config.CacheConfig
	Redis       *redis.Client
}

// NewSeatHandler wires a SeatHandler.
func NewSeatHandler(s *repository.SeatRepo, tt *repository.TicketTypeRepo, cache config.CacheConfig, rdb *redis.Client) *SeatHandler {
	return &SeatHandler{Seats: s, TicketTypes: tt, Cache: cache, Redis: rdb}
}

func (h *SeatHandler) invalidate(c echo.Context) {
	middleware.InvalidateCache(c.Request().Context(), h.Cache, h.Redis)
}

// List returns seats, optionally filtered by ticket type via the
// ?ticket_type_id query parameter.
//
// GET /v1/seats
func (h *SeatHandler) List(c echo.Context) error {
	return h.list(c, false)
}

// Available returns only seats that are currently free to book.
//
// GET /v1/seats/available
func (h *SeatHandler) Available(c echo.Context) error {
	return h.list(c, true)
}

func (h *SeatHandler) list(c echo.Context, availableOnly bool) error {
	var ttID uint64
	if raw := c.QueryParam("ticket_type_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || n == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_type_id must be a positive integer"})
		}
		ttID = n
	}
	seats, err := h.Seats.List(c.Request().Context(), ttID, availableOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": seats, "count": len(seats)})
}

// Counts returns total / available / unavailable seat counts, broken down
// per ticket type.
//
// GET /v1/seats/count
func (h *SeatHandler) Counts(c echo.Context) error {
	counts, err := h.Seats.Counts(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not count seats"})
	}
	return c.JSON(http.StatusOK, counts)
}

// Get returns one seat by id.
//
// GET /v1/seats/:id
func (h *SeatHandler) Get(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	seat, err := h.Seats.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load seat"})
	}
	return c.JSON(http.StatusOK, seat)
}

type createSeatReq struct {
	TicketTypeID uint64 `json:"ticket_type_id"`
	IsAvailable  *bool  `json:"is_available"`
}

// Create registers a new seat under an existing ticket type. New seats
// default to available unless the request says otherwise.
//
// POST /v1/seats (admin)
func (h *SeatHandler) Create(c echo.Context) error {
	var req createSeatReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.TicketTypeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_type_id must be a positive integer"})
	}

	ctx := c.Request().Context()
	if _, err := h.TicketTypes.GetByID(ctx, req.TicketTypeID); err != nil {
		if errors.Is(err, repository.ErrTicketTypeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load ticket type"})
	}

	seat := &model.Seat{TicketTypeID: req.TicketTypeID, IsAvailable: true}
	if req.IsAvailable != nil {
		seat.IsAvailable = *req.IsAvailable
	}
	if err := h.Seats.Create(ctx, seat); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create seat"})
	}

	h.invalidate(c)
	return c.JSON(http.StatusCreated, seat)
}

type updateSeatReq struct {
	TicketTypeID *uint64 `json:"ticket_type_id"`
	IsAvailable  *bool   `json:"is_available"`
}

// Update applies a partial update to a seat. Flipping is_available here is
// an inventory operation (e.g. taking a broken seat out of service), not a
// booking; reserved seats are managed through the booking endpoints.
//
// PATCH /v1/seats/:id (admin)
func (h *SeatHandler) Update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req updateSeatReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.TicketTypeID == nil && req.IsAvailable == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}

	ctx := c.Request().Context()
	if req.TicketTypeID != nil {
		if *req.TicketTypeID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_type_id must be a positive integer"})
		}
		if _, err := h.TicketTypes.GetByID(ctx, *req.TicketTypeID); err != nil {
			if errors.Is(err, repository.ErrTicketTypeNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load ticket type"})
		}
	}

	patch := repository.SeatPatch{TicketTypeID: req.TicketTypeID, IsAvailable: req.IsAvailable}
	if err := h.Seats.UpdateFields(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update seat"})
	}

	seat, err := h.Seats.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load seat"})
	}

	h.invalidate(c)
	return c.JSON(http.StatusOK, seat)
}

// Delete removes a seat. Seats that are part of an active booking are
// unavailable and refuse deletion with 409; cancel or override the
// booking first.
//
// DELETE /v1/seats/:id (admin)
func (h *SeatHandler) Delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Seats.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat is reserved or out of service and cannot be deleted"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete seat"})
		}
	}

	h.invalidate(c)
	return c.NoContent(http.StatusNoContent)
}
