package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/seat-reservation/internal/config"
	"github.com/iliyamo/seat-reservation/internal/database"
	"github.com/iliyamo/seat-reservation/internal/handler"
	"github.com/iliyamo/seat-reservation/internal/jobs"
	"github.com/iliyamo/seat-reservation/internal/logger"
	"github.com/iliyamo/seat-reservation/internal/middleware"
	"github.com/iliyamo/seat-reservation/internal/queue"
	"github.com/iliyamo/seat-reservation/internal/repository"
	"github.com/iliyamo/seat-reservation/internal/router"
	"github.com/iliyamo/seat-reservation/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting",
		zap.String("env", cfg.Env),
		zap.String("port", cfg.Port),
		zap.String("timezone", cfg.Location().String()))

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatal("connect mysql", zap.Error(err))
	}
	defer db.Close()
	if cfg.DB.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
	}

	rdb := config.NewRedisClient(cfg.Redis, log)
	if rdb != nil {
		defer rdb.Close()
	}

	var events service.EventPublisher = queue.LogPublisher{Log: log}
	if pub, err := queue.NewPublisher(cfg.RabbitURL, cfg.ReservationExchange); err != nil {
		log.Warn("rabbitmq unavailable, reservation events are only logged", zap.Error(err))
	} else {
		defer pub.Close()
		events = pub
	}

	// background work stops when ctx is cancelled by a signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	audit, err := logger.NewAudit(cfg.AuditLogPath)
	if err != nil {
		log.Fatal("init audit log", zap.Error(err))
	}
	defer func() { _ = audit.Sync() }()
	consumer := queue.NewAuditConsumer(queue.ConsumerConfig{
		URL:      cfg.RabbitURL,
		Exchange: cfg.ReservationExchange,
		Queue:    cfg.AuditQueue,
	}, audit, log)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit consumer stopped", zap.Error(err))
		}
	}()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	reservationRepo := repository.NewReservationRepo(db)

	scheduler := jobs.NewScheduler(tokens, reservationRepo, seatRepo, cfg.Location(), log)
	if err := scheduler.Start(cfg.Cron); err != nil {
		log.Fatal("start cron", zap.Error(err))
	}

	validator := service.NewReservationValidator(cfg.Location(), cfg.LeadTime)
	reservations := service.NewReservationService(seatRepo, reservationRepo, users, events, validator, log)
	seats := service.NewSeatService(seatRepo, reservationRepo, cfg.Location(), log)
	reports := service.NewReportService(reservations, log)

	purger := middleware.NewCachePurger(cfg.Cache, rdb, log)
	limit := middleware.NewTokenBucket(cfg.RateLimit, rdb, log)
	cache := middleware.NewRedisCache(cfg.Cache, rdb, log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = router.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log.Named("http")))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, log), cfg.JWTSecret)
	router.RegisterReservations(e, handler.NewReservationHandler(reservations, purger), cfg.JWTSecret, limit)
	router.RegisterSeats(e, handler.NewSeatHandler(seats, purger), cfg.JWTSecret, cache)
	router.RegisterAdmin(e, handler.NewAdminHandler(reservations, reports), cfg.JWTSecret)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := e.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("cron jobs still running at shutdown")
	}
	log.Info("stopped")
}
