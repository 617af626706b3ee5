// Command taskboardd runs the taskboard HTTP API and the report scheduler
// against PostgreSQL.
//
// Configuration comes from the environment (a .env file is loaded when
// present):
//
//	ADDR                 listen address (default ":8080")
//	BASE_URL             external base URL for emailed links (default: request-derived)
//	DATABASE_URL         PostgreSQL DSN (required)
//	JWT_SECRET           token signing secret (required)
//	SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD
//	MAIL_FROM            sender address for reports and login links
//	REPORT_TICK_SECONDS  scheduler poll interval
//	RATE_LIMIT_RPS       global request throttle (0 disables)
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"golang.org/x/sync/errgroup"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/api"
	"github.com/rabilrbl/taskboard/auth"
	"github.com/rabilrbl/taskboard/engine"
	"github.com/rabilrbl/taskboard/hook"
	"github.com/rabilrbl/taskboard/mail"
	"github.com/rabilrbl/taskboard/report"
	bunstore "github.com/rabilrbl/taskboard/store/bun"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return errors.New("DATABASE_URL is required")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	addr := envOr("ADDR", ":8080")

	cfg := taskboard.DefaultConfig()
	if from := os.Getenv("MAIL_FROM"); from != "" {
		cfg.MailFrom = from
	}
	if raw := os.Getenv("REPORT_TICK_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil {
			return errors.New("REPORT_TICK_SECONDS must be an integer")
		}
		cfg.TickInterval = time.Duration(secs) * time.Second
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage.
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	st := bunstore.New(db, bunstore.WithLogger(logger))
	if err := st.Ping(ctx); err != nil {
		return err
	}
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	// Core services.
	registry := hook.NewRegistry(logger)
	eng := engine.New(st, st,
		engine.WithLogger(logger),
		engine.WithConfig(cfg),
		engine.WithEmitter(registry),
	)
	mailer := mail.NewSMTPMailer(
		os.Getenv("SMTP_HOST"), os.Getenv("SMTP_PORT"),
		os.Getenv("SMTP_USERNAME"), os.Getenv("SMTP_PASSWORD"),
	)
	authSvc := auth.NewService(st, mailer, []byte(secret),
		auth.WithLogger(logger),
		auth.WithFrom(cfg.MailFrom),
	)
	reports := report.NewService(st)
	scheduler := report.NewScheduler(st, st, st, mailer,
		report.WithLogger(logger),
		report.WithTickInterval(cfg.TickInterval),
		report.WithFrom(cfg.MailFrom),
		report.WithFailSilent(cfg.MailFailSilent),
		report.WithEmitter(registry),
	)

	// HTTP surface.
	rps, _ := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	handler := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch,
			http.MethodPut, http.MethodDelete,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(api.New(eng, st, authSvc, reports,
		api.WithLogger(logger),
		api.WithRateLimit(rps, int(rps)*2),
		api.WithBaseURL(os.Getenv("BASE_URL")),
	).Router())

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Warn("scheduler stop", slog.String("error", err.Error()))
		}
		registry.EmitShutdown(shutdownCtx)
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
