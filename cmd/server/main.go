package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/greekslab/internal/config"
	"github.com/dgnsrekt/greekslab/internal/logging"
	"github.com/dgnsrekt/greekslab/internal/notify"
	"github.com/dgnsrekt/greekslab/internal/server"
	"github.com/dgnsrekt/greekslab/internal/ws"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfgFile := flag.String("config", os.Getenv("GREEKSLAB_CONFIG"), "config file path (or set GREEKSLAB_CONFIG)")
	verbose := flag.Bool("verbose", false, "verbose output")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	// Setup logger
	logger, err := logging.New("server", *verbose, &cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.String("port", cfg.Server.Port),
		zap.Int("maxSurfaces", cfg.Server.MaxSurfaces),
		zap.Int("surfaceResolution", cfg.Surface.Resolution),
		zap.Bool("whatIfEnabled", cfg.WhatIf.Enabled),
		zap.Float64("whatIfRate", cfg.WhatIf.RatePerSecond),
		zap.Bool("notifyEnabled", cfg.Notify.Enabled),
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// What-if WebSocket hub (optional)
	var hub *ws.Hub
	if cfg.WhatIf.Enabled {
		hub, err = ws.NewHub(cfg.WhatIf, logger)
		if err != nil {
			logger.Error("failed to create what-if hub", zap.Error(err))
			return 1
		}
		defer hub.Close()
		go hub.Run(ctx)
		logger.Info("what-if sessions enabled",
			zap.Float64("minVolMultiplier", cfg.WhatIf.MinVolMultiplier),
			zap.Float64("maxVolMultiplier", cfg.WhatIf.MaxVolMultiplier),
			zap.Float64("maxDecayDays", cfg.WhatIf.MaxDecayDays),
		)
	}

	notifier := notify.New(notify.FromConfig(cfg.Notify), logger)

	srv := server.NewServer(cfg, hub, notifier, logger)

	// Create router
	router, err := server.NewRouter(srv, logger)
	if err != nil {
		logger.Error("failed to create router", zap.Error(err))
		return 1
	}

	// Setup HTTP server
	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	logger.Info("shutting down server...")

	// Cancel context to stop WebSocket components
	cancel()

	// Graceful HTTP server shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}
