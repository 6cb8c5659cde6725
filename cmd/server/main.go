package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/table-reservation/internal/answer"
	"github.com/iliyamo/table-reservation/internal/chat"
	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/database"
	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/queue"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/router"
	"github.com/iliyamo/table-reservation/internal/service"
	"github.com/iliyamo/table-reservation/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// no logger yet
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	log, err := utils.NewLogger(cfg.Env)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rules, err := config.LoadBookingConfig()
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, database.Params{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	store := repository.NewStore(db)
	inventory := service.NewInventoryService(store, log)
	layout, err := config.LoadLayout(rules.LayoutFile)
	if err != nil {
		return err
	}
	report, err := inventory.Seed(ctx, layout, rules.RetiredSections)
	if err != nil {
		return err
	}
	log.Info("floor plan seeded",
		zap.Int("sections", report.Sections),
		zap.Int("tables", report.Tables),
		zap.Strings("retired", report.Retired))

	staff := repository.NewStaffRepo(db)
	if _, err := service.EnsureAdmin(ctx, staff, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost, log); err != nil {
		return err
	}

	rdb := config.NewRedisClient(log)
	if rdb != nil {
		defer rdb.Close()
	}

	// events stays a nil interface when the queue is off.
	var events service.Publisher
	qcfg := config.LoadQueueConfig()
	if qcfg.Enabled {
		pub := queue.NewPublisher(qcfg.URL, qcfg.Queue, log)
		defer pub.Close()
		events = pub

		consumer := &queue.Consumer{URL: qcfg.URL, Queue: qcfg.Queue, LogDir: qcfg.LogDir, Log: log}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("queue consumer stopped", zap.Error(err))
			}
		}()
	}
	reservations := service.NewReservationService(store, rules, events, log)

	kb := answer.NewKnowledge(layout.FAQ)
	cands, err := answer.Candidates(config.LoadAnswerConfig(), kb, log)
	if err != nil {
		return err
	}
	answerer, err := answer.Negotiate(ctx, log, cands...)
	if err != nil {
		log.Warn("no answerer available, FAQ disabled", zap.Error(err))
		answerer = nil
	}
	if cl, ok := answerer.(io.Closer); ok {
		defer cl.Close()
	}

	var sessions chat.SessionStore
	if rdb != nil {
		sessions = chat.NewRedisSessionStore(rdb, rules.SessionTTL)
	} else {
		sessions = chat.NewMemorySessionStore(rules.SessionTTL)
	}
	assistant := chat.NewAssistant(reservations, answerer, sessions, log)

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(log))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, staff, repository.NewTokenRepo(db)), cfg.JWTSecret)
	guest := router.Guest{
		Reservations: handler.NewReservationHandler(reservations),
		Chat:         &handler.ChatHandler{Assistant: assistant},
		Sections:     handler.Sections(inventory),
		Limit:        limit,
	}
	if answerer != nil {
		guest.FAQ = handler.FAQ(answerer)
	}
	router.RegisterGuest(e, guest)
	router.RegisterAdmin(e, handler.NewAdminHandler(inventory, reservations, rules.Location), cfg.JWTSecret)

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
