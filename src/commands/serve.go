package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"smartspend-server/src/ai"
	"smartspend-server/src/api"
	"smartspend-server/src/automation"
	"smartspend-server/src/config"
	"smartspend-server/src/db"
	sqldb "smartspend-server/src/db/sql"
)

const (
	listenerRetryDelay = 5 * time.Second
	shutdownTimeout    = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the recurring rule automation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("DB connection failed: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}
	if err := db.InitCache(); err != nil {
		return err
	}
	defer db.Cache.Close()

	store := sqldb.AutomationStore{Pool: pool}
	clock := automation.SystemClock{Location: cfg.Location}
	sched := automation.NewScheduler(store, store, clock)
	sched.IdleAfter(cfg.SessionIdle)
	defer sched.Close()

	go db.ListenRuleChanges(ctx, pool, listenerRetryDelay, sched.Notify)

	svc, err := newAIService(ctx, cfg)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(api.Deps{
			Pool:      pool,
			Config:    cfg,
			Scheduler: sched,
			Clock:     clock,
			AI:        svc,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Println("API server running on port", cfg.Port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("INFO: Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newAIService(ctx context.Context, cfg config.Config) (*ai.Service, error) {
	if cfg.GeminiAPIKey == "" {
		log.Println("WARN: GEMINI_API_KEY not set, AI features return fallbacks")
		return ai.NewService(nil), nil
	}
	gemini, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, err
	}
	return ai.NewService(gemini), nil
}
