package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticket-booking/internal/config"
	"github.com/iliyamo/event-ticket-booking/internal/handler"
	"github.com/iliyamo/event-ticket-booking/internal/middleware"
	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// Handlers bundles every handler the router mounts, so main wires them in
// one place.
type Handlers struct {
	Auth        *handler.AuthHandler
	Bookings    *handler.BookingHandler
	AdminBook   *handler.AdminBookingHandler
	Seats       *handler.SeatHandler
	TicketTypes *handler.TicketTypeHandler
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI mounts the whole API surface.
//
// Layout:
//
//	/v1/auth/*          – public: register, login, refresh, logout
//	/v1/*               – any authenticated user (both roles)
//	/v1/admin/*,        – admin role only
//	mutating seat and ticket-type routes
//
// The rate limiter runs in front of everything under /v1; read caching is
// applied only to the hot availability reads.
func RegisterAPI(e *echo.Echo, h Handlers, cfg *config.Config, rdb *redis.Client) {
	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cacheCfg := config.LoadCacheConfig()
	cache := middleware.ReadCache(cacheCfg, rdb)

	// Unauthenticated session operations.
	pub := e.Group("/v1/auth", rl)
	pub.POST("/register", h.Auth.Register)
	pub.POST("/login", h.Auth.Login)
	pub.POST("/refresh", h.Auth.Refresh)
	pub.POST("/logout", h.Auth.Logout)

	// Everything else requires a valid access token. Both roles pass the
	// outer guard; admin-only routes tighten it again below.
	auth := e.Group("/v1", rl)
	auth.Use(middleware.JWTAuth(cfg.JWTSecret))
	auth.Use(middleware.RequireRole(model.RoleUser, model.RoleAdmin))

	auth.GET("/me", h.Auth.Me)

	// Booking lifecycle.
	auth.POST("/bookings", h.Bookings.Initiate)
	auth.GET("/bookings/:id", h.Bookings.GetBooking)
	auth.POST("/bookings/:id/confirm", h.Bookings.Confirm)
	auth.POST("/bookings/:id/cancel", h.Bookings.Cancel)

	// Catalog and inventory reads. The availability endpoints are the
	// hottest reads in the system and go through the Redis cache.
	auth.GET("/ticket-types", h.TicketTypes.List, cache)
	auth.GET("/ticket-types/:id", h.TicketTypes.Get)
	auth.GET("/seats", h.Seats.List)
	auth.GET("/seats/available", h.Seats.Available, cache)
	auth.GET("/seats/count", h.Seats.Counts, cache)
	auth.GET("/seats/:id", h.Seats.Get)

	// Admin-only surface.
	admin := auth.Group("", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/admin/bookings", h.AdminBook.List)
	admin.GET("/admin/bookings/:id", h.AdminBook.Detail)
	admin.PUT("/admin/bookings/:id/status", h.AdminBook.UpdateStatus)

	admin.POST("/ticket-types", h.TicketTypes.Create)
	admin.PATCH("/ticket-types/:id", h.TicketTypes.Update)
	admin.DELETE("/ticket-types/:id", h.TicketTypes.Delete)

	admin.POST("/seats", h.Seats.Create)
	admin.PATCH("/seats/:id", h.Seats.Update)
	admin.DELETE("/seats/:id", h.Seats.Delete)
}
