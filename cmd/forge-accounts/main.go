package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	accounts "github.com/forgehq/go-accounts"
	"github.com/forgehq/go-accounts/middleware/sessionware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := accounts.LoadConfig()
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		return err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	if err := accounts.RunMigrations(ctx, db); err != nil {
		return err
	}

	repo := accounts.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	alog := &authLogger{logger: logger}
	sink := accounts.ActivitySinkFunc(func(_ context.Context, event accounts.ActivityEvent) error {
		logger.Info("auth activity",
			"event", string(event.EventType),
			"user_id", event.UserID,
			"actor_type", event.Actor.Type,
		)
		return nil
	})

	provider := accounts.NewUserProvider(accounts.NewUserTracker(repo.Users()))
	auther := accounts.NewAuthenticator(provider, cfg).
		WithLogger(alog).
		WithActivitySink(sink)

	cookieAuth, err := accounts.NewCookieAuthenticator(auther, cfg)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		AppName:               "forge-accounts",
		DisableStartupMessage: !cfg.Debug,
	})
	app.Use(recover.New())

	// Optional session decoding for every route: validated claims land in
	// Locals without forcing authentication, handlers decide what anonymous
	// means for them.
	app.Use(sessionware.New(sessionware.Config{
		TokenValidator: tokenValidatorAdapter{tokens: auther.TokenService()},
		TokenLookup:    "cookie:" + cfg.GetCookieName(),
		ContextKey:     cfg.GetContextKey(),
		Optional:       true,
	}))

	accounts.RegisterAuthRoutes(app,
		accounts.WithControllerRepo(repo),
		accounts.WithControllerAuth(auther, cookieAuth, auther.TokenService()),
		accounts.WithControllerLogger(alog),
		accounts.WithControllerActivitySink(sink),
	)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	errs := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		errs <- app.Listen(cfg.HTTPAddr)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}

// tokenValidatorAdapter bridges the accounts token service to the middleware
// validator contract.
type tokenValidatorAdapter struct {
	tokens accounts.TokenService
}

func (a tokenValidatorAdapter) Validate(raw string) (sessionware.AuthClaims, error) {
	claims, err := a.tokens.Validate(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// authLogger adapts slog to the accounts printf style logger.
type authLogger struct {
	logger *slog.Logger
}

func (l *authLogger) Debug(format string, args ...any) { l.logger.Debug(sprintf(format, args...)) }
func (l *authLogger) Info(format string, args ...any)  { l.logger.Info(sprintf(format, args...)) }
func (l *authLogger) Warn(format string, args ...any)  { l.logger.Warn(sprintf(format, args...)) }
func (l *authLogger) Error(format string, args ...any) { l.logger.Error(sprintf(format, args...)) }

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
