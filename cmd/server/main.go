package main

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

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/jwaldner/blackscholes/internal/config"
	"github.com/jwaldner/blackscholes/internal/handlers"
	"github.com/jwaldner/blackscholes/internal/logger"
)

// Set via -ldflags at build time.
var version = "dev"

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Ignoring .env: %v", err)
	}

	cfg := config.Load()

	if err := logger.InitWithConfig(cfg.Logging.LogLevel, cfg.Logging.LogFile); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logger.Close()
	logger.Always.Printf("Black-Scholes pricing service %s starting - Port: %s", version, cfg.Server.Port)

	if cfg.Validation.Strict {
		logger.Always.Printf("Strict input validation enabled")
	}

	pricingHandler := handlers.NewPricingHandler(cfg, version)

	// Setup router
	r := mux.NewRouter()
	pricingHandler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Printf("Server starting on http://localhost:%s\n", cfg.Server.Port)
		logger.Info.Printf("HTTP server started on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Always.Printf("Shutting down server...")

		timeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error.Printf("Server exited with error: %v", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Always.Printf("Server stopped")
}
