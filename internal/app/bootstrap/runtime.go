package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Patocuak64/dentalsmart-client/internal/adapters/backendhttp"
	cacheadapter "github.com/Patocuak64/dentalsmart-client/internal/adapters/cache"
	"github.com/Patocuak64/dentalsmart-client/internal/adapters/historydb"
	"github.com/Patocuak64/dentalsmart-client/internal/adapters/localstore"
	"github.com/Patocuak64/dentalsmart-client/internal/adapters/security"
	"github.com/Patocuak64/dentalsmart-client/internal/adapters/web"
	"github.com/Patocuak64/dentalsmart-client/internal/application"
	"github.com/Patocuak64/dentalsmart-client/internal/ports"
)

// Runtime wires the client together: persisted session state, the
// local history cache, the backend client and the workflow.
type Runtime struct {
	cfg       Config
	logger    *slog.Logger
	workflow  *application.Workflow
	cleanupFn func()
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping dentalsmart client", "api_url", cfg.APIBaseURL, "state_dir", cfg.StateDir)

	cleanup := func() {}

	var store ports.KeyValueStore
	if cfg.RedisURL != "" {
		redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store = cacheadapter.NewRedisStore(redisClient)
		cleanup = func() { _ = redisClient.Close() }
	} else {
		fileStore, err := localstore.NewFileStore(cfg.StateDir)
		if err != nil {
			return nil, fmt.Errorf("open state store: %w", err)
		}
		store = fileStore
	}

	// The history cache is a convenience; a broken local database
	// should not keep the client from starting.
	var history ports.HistoryCache
	historyStore, err := historydb.Open(filepath.Join(cfg.StateDir, "history.db"))
	if err != nil {
		logger.Warn("history cache unavailable", "error", err.Error())
	} else {
		history = historyStore
		prev := cleanup
		cleanup = func() {
			_ = historyStore.Close()
			prev()
		}
	}

	backend := backendhttp.NewClient(cfg.APIBaseURL,
		backendhttp.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))

	workflow := application.NewWorkflow(application.Dependencies{
		Config:  application.Config{Confidence: cfg.Confidence},
		Backend: backend,
		Store:   store,
		History: history,
		Tokens:  security.NewInspector(),
	})

	if _, err := workflow.Resume(ctx); err != nil {
		logger.Warn("session resume skipped", "error", err.Error())
	}

	return &Runtime{
		cfg:       cfg,
		logger:    logger,
		workflow:  workflow,
		cleanupFn: cleanup,
	}, nil
}

func (r *Runtime) Workflow() *application.Workflow {
	return r.workflow
}

// Serve runs the local JSON gateway until interrupted.
func (r *Runtime) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := web.NewRouter(web.NewHandler(r.workflow))
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", r.cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("gateway started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("gateway: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("gateway failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	return nil
}

func (r *Runtime) Close() {
	r.cleanupFn()
}
