package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/soundpass/soundpass/internal/audit"
	"github.com/soundpass/soundpass/internal/config"
	"github.com/soundpass/soundpass/internal/database"
	"github.com/soundpass/soundpass/internal/handler"
	"github.com/soundpass/soundpass/internal/middleware"
	"github.com/soundpass/soundpass/internal/queue"
	"github.com/soundpass/soundpass/internal/repository"
	"github.com/soundpass/soundpass/internal/router"
	queue_publisher "github.com/soundpass/soundpass/internal/service"
)

// recentValidationsCap bounds the operator-facing check-in history.
const recentValidationsCap = 50

func main() {
	// .env is optional; in containers the variables come from the runtime.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the limiter, the response cache and
	// the resume store are disabled and everything else keeps working.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting, caching and resume state disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	tickets := repository.NewTicketRepo(db)
	resume := repository.NewResumeRepo(rdb, 30*time.Minute)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	eventH := handler.NewEventHandler(events)
	ticketH := handler.NewTicketHandler(events, tickets, queue_publisher.PublishTicketIssued)
	validationH := handler.NewValidationHandler(tickets, audit.NewRecentLog(recentValidationsCap))
	adminH := handler.NewAdminHandler(users, tickets)
	resumeH := handler.NewResumeHandler(resume)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, limiter)
	router.RegisterPublic(e, eventH, resumeH, cache)
	router.RegisterCustomer(e, ticketH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, validationH, eventH, cfg.JWTSecret, cfg.ServiceKey, limiter)

	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			log.Printf("ticket consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
