package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	taxchat "github.com/fiskara/taxchat"
	"github.com/fiskara/taxchat/internal/alert"
	"github.com/fiskara/taxchat/internal/assistant"
	"github.com/fiskara/taxchat/internal/config"
	"github.com/fiskara/taxchat/internal/handler"
	"github.com/fiskara/taxchat/internal/middleware"
	"github.com/fiskara/taxchat/internal/repository"
	"github.com/fiskara/taxchat/internal/service"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	migrationsFS, err := fs.Sub(taxchat.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	userRepo := repository.NewUserRepo(pool)
	sessionRepo := repository.NewSessionRepo(pool)

	provider := assistant.New(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.AssistantID)
	tools := service.BuildRegistry()

	notifier, err := alert.New(cfg.AlertBotToken, cfg.AlertChatID)
	if err != nil {
		slog.Error("failed to create alert notifier", "error", err)
		os.Exit(1)
	}
	var alerts service.Alerter
	if notifier != nil {
		alerts = notifier
	}

	userService := service.NewUserService(userRepo, cfg.JWTSecret, cfg.DefaultMessageLimit)
	sessionService := service.NewSessionService(sessionRepo)
	quota := service.NewQuotaGuard(userRepo, cfg.MessageCost)
	chatService := service.NewChatService(provider, sessionRepo, quota, tools, cfg.AssistantID, alerts)

	h := handler.New(handler.Deps{
		Users:    userService,
		Sessions: sessionService,
		Chat:     chatService,
	})

	r := chi.NewRouter()
	r.Use(middleware.Recover)
	r.Use(middleware.Logging)
	h.Register(r, middleware.Auth(cfg.JWTSecret))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
	slog.Info("server stopped gracefully")
}
