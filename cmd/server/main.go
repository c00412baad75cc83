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

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ciphercircuit/cipher-circuit-backend/internal/auth"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/config"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/httpapi"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/presence"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/queue"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/session"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	st, err := connectStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("store connected")

	assigner := queue.NewAssigner(st, logger)
	reg := presence.NewRegistry()
	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.TokenTTL)
	hub := session.NewHub(ctx, st, assigner, session.Options{RoleTakeover: cfg.RoleTakeover}, logger)

	handler := httpapi.SetupRoutes(hub, st, assigner, verifier, reg, logger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		hub.Inbox() <- session.ShutdownHub{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// connectStore retries the initial connection with backoff; transient store
// outages at startup are never surfaced as an immediate crash.
func connectStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Store, error) {
	var lastErr error
	for attempt := 1; attempt <= cfg.StoreConnectAttempts; attempt++ {
		st, err := store.Open(ctx, cfg.DatabaseURL)
		if err == nil {
			return st, nil
		}
		lastErr = err
		logger.Warn("store connection failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", cfg.StoreConnectBackoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.StoreConnectBackoff):
		}
	}
	return nil, fmt.Errorf("connecting to store: %w", lastErr)
}
