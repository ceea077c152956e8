package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coffee-research/coffee/internal/api"
	"github.com/coffee-research/coffee/internal/config"
	"github.com/coffee-research/coffee/internal/fixtures"
	"github.com/coffee-research/coffee/internal/middleware"
	"github.com/coffee-research/coffee/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := utils.InitLogger(cfg.Log)
	middleware.SetSecret(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		logger.Warn("COFFEE_JWT_SECRET not set, using development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Error("open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	sessions, closeSessions, err := openSessionStore(ctx, cfg)
	if err != nil {
		logger.Error("open session store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeSessions()

	router := api.NewRouter(store, sessions)
	router.Sessions().SetIdleTTL(cfg.SessionTTL)
	go router.Sessions().Run(ctx, time.Minute)
	if cfg.SeedFixtures {
		if _, err := fixtures.Seed(router.Surveys()); err != nil {
			logger.Error("seed fixtures", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	mux := http.NewServeMux()
	router.Register(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		locale := middleware.LocaleFromContext(r.Context())
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "COFFEE API",
			"locale":     locale,
			"msg":        utils.T(locale, "health.ok"),
			"commit":     cfg.Commit,
			"build_time": cfg.BuildTime,
		})
	})
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     cfg.Commit,
			"build_time": cfg.BuildTime,
		})
	})
	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	handler := middleware.SecureHeaders(
		middleware.CORS(cfg.AllowOrigins)(
			middleware.NoStore(
				middleware.LocaleMiddleware(
					middleware.WithAuth(
						middleware.RequestLogger(logger)(mux))))))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", slog.String("error", err.Error()))
		}
	}()

	logger.Info("COFFEE server listening", slog.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
