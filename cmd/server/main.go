package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/event-ticket-booking/internal/config"
	"github.com/iliyamo/event-ticket-booking/internal/database"
	"github.com/iliyamo/event-ticket-booking/internal/handler"
	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/queue"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
	"github.com/iliyamo/event-ticket-booking/internal/router"
)

func main() {
	// .env is optional; in containers configuration comes from real env vars.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	seats := repository.NewSeatRepo(db)
	ticketTypes := repository.NewTicketTypeRepo(db)
	bookings := repository.NewBookingRepo(db)

	if err := seedAdmin(ctx, users, cfg); err != nil {
		log.Fatalf("admin seed: %v", err)
	}

	// Redis is optional: when it is down the limiter and cache degrade to
	// pass-through and the API keeps serving.
	rdb := config.NewRedisClient()
	cacheCfg := config.LoadCacheConfig()

	h := router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, users, tokens),
		Bookings:    handler.NewBookingHandler(db, bookings, seats, ticketTypes),
		AdminBook:   handler.NewAdminBookingHandler(db, bookings, seats),
		Seats:       handler.NewSeatHandler(seats, ticketTypes, cacheCfg, rdb),
		TicketTypes: handler.NewTicketTypeHandler(ticketTypes, cacheCfg, rdb),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e)
	router.RegisterAPI(e, h, &cfg, rdb)

	// Audit consumer runs for the life of the process and reconnects on
	// broker failures; it never takes the API down.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// seedAdmin guarantees exactly one way to obtain the admin role: the
// account configured at deploy time. Registration always creates plain
// users. Re-running against an existing database is a no-op.
func seedAdmin(ctx context.Context, users *repository.UserRepo, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	_, err := users.Create(ctx, "Administrator", cfg.AdminEmail, cfg.AdminPassword, model.RoleAdmin, cfg.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return nil
	}
	return err
}
