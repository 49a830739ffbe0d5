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

	"stock-ledger/internal/auth"
	"stock-ledger/internal/config"
	"stock-ledger/internal/database"
	"stock-ledger/internal/logger"
	"stock-ledger/internal/notify"
	"stock-ledger/internal/routes"
	"stock-ledger/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flush, err := logger.Install(cfg.LogLevel, cfg.Production)
	if err != nil {
		return err
	}
	defer flush()

	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	auth.SetSecret(cfg.JWTSecret)

	if err := database.Connect(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(cfg, zap.L()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// --- Overdue sweep (off unless BILL_SWEEP_INTERVAL is set) ---
	if cfg.BillSweepInterval > 0 {
		g.Go(func() error {
			services.RunOverdueSweeper(ctx, database.DB, cfg.BillSweepInterval, func(int64) {
				notify.Hub.Publish(notify.Event{Topic: notify.Bills})
			})
			return nil
		})
		zap.L().Info("overdue sweeper started", zap.Duration("interval", cfg.BillSweepInterval))
	}

	g.Go(func() error {
		zap.L().Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		zap.L().Info("shutting down")
		// Open SSE streams end when the broker closes
		notify.Hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
