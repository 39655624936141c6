package handler // ticket type catalog endpoints

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticket-booking/internal/config"
	"github.com/iliyamo/event-ticket-booking/internal/middleware"
	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
	"github.com/iliyamo/event-ticket-booking/internal/utils"
)

const maxTicketTypeName = 100

// TicketTypeHandler serves the ticket category catalog. Listing is public
// to authenticated users; mutations are admin-only and invalidate the
// availability cache.
type TicketTypeHandler struct {
	TicketTypes *repository.TicketTypeRepo
	Cache       config.CacheConfig
	Redis       *redis.Client
}

// NewTicketTypeHandler wires a TicketTypeHandler.
func NewTicketTypeHandler(tt *repository.TicketTypeRepo, cache config.CacheConfig, rdb *redis.Client) *TicketTypeHandler {
	return &TicketTypeHandler{TicketTypes: tt, Cache: cache, Redis: rdb}
}

func (h *TicketTypeHandler) invalidate(c echo.Context) {
	middleware.InvalidateCache(c.Request().Context(), h.Cache, h.Redis)
}

// List returns every ticket type with its current available seat count.
//
// GET /v1/ticket-types
func (h *TicketTypeHandler) List(c echo.Context) error {
	types, err := h.TicketTypes.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list ticket types"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket_types": types, "count": len(types)})
}

// Get returns one ticket type by id.
//
// GET /v1/ticket-types/:id
func (h *TicketTypeHandler) Get(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	tt, err := h.TicketTypes.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTicketTypeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load ticket type"})
	}
	return c.JSON(http.StatusOK, tt)
}

type ticketTypeReq struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price"`
}

// validateName normalizes and checks a ticket type name.
func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", errors.New("name must not be empty")
	}
	if len(name) > maxTicketTypeName {
		return "", errors.New("name must be at most 100 characters")
	}
	return name, nil
}

// Create adds a ticket type to the catalog. The price is normalized to
// two decimal places; names are unique.
//
// POST /v1/ticket-types (admin)
func (h *TicketTypeHandler) Create(c echo.Context) error {
	var req ticketTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Name == nil || req.Price == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and price are required"})
	}
	name, err := validateName(*req.Name)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if *req.Price <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be greater than zero"})
	}

	tt := &model.TicketType{Name: name, Price: utils.Round2(*req.Price)}
	if err := h.TicketTypes.Create(c.Request().Context(), tt); err != nil {
		if errors.Is(err, repository.ErrNameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create ticket type"})
	}

	h.invalidate(c)
	return c.JSON(http.StatusCreated, tt)
}

// Update applies a partial update to a ticket type. Booking totals are
// computed from the catalog at read time, so repricing affects existing
// bookings too.
//
// PATCH /v1/ticket-types/:id (admin)
func (h *TicketTypeHandler) Update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req ticketTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Name == nil && req.Price == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}

	patch := repository.TicketTypePatch{}
	if req.Name != nil {
		name, err := validateName(*req.Name)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		patch.Name = &name
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be greater than zero"})
		}
		price := utils.Round2(*req.Price)
		patch.Price = &price
	}

	ctx := c.Request().Context()
	if err := h.TicketTypes.UpdateFields(ctx, id, patch); err != nil {
		switch {
		case errors.Is(err, repository.ErrTicketTypeNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrNameExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update ticket type"})
		}
	}

	tt, err := h.TicketTypes.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load ticket type"})
	}

	h.invalidate(c)
	return c.JSON(http.StatusOK, tt)
}

// Delete removes a ticket type together with its seats. Refused with 409
// while any of those seats is held by an active booking.
//
// DELETE /v1/ticket-types/:id (admin)
func (h *TicketTypeHandler) Delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.TicketTypes.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrTicketTypeNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "ticket type has seats held by active bookings"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete ticket type"})
		}
	}

	h.invalidate(c)
	return c.NoContent(http.StatusNoContent)
}
