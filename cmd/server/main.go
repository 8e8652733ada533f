package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/podgate/podgate/internal/app"
	"github.com/podgate/podgate/internal/config"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	httpAddr := flag.String("http", "", "HTTP server address (overrides PODGATE_SERVER_ADDR)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	auditBackend := flag.String("audit-backend", "", "Audit backend: file, postgres, redis, or none")
	classifierBackend := flag.String("classifier-backend", "", "Classifier backend: http, rekognition, or mock")
	flag.Parse()

	overrides := map[string]interface{}{}
	if *httpAddr != "" {
		overrides["server.addr"] = *httpAddr
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *auditBackend != "" {
		overrides["audit.backend"] = *auditBackend
	}
	if *classifierBackend != "" {
		overrides["classifier.backend"] = *classifierBackend
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Run(ctx)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = application.Shutdown(shutdownCtx)
}
