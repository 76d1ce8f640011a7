// Package main runs the Spice Shelf web frontend and JSON API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/spiceshelf/shelf/internal/infrastructure/container"
	apperrors "github.com/spiceshelf/shelf/pkg/errors"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	if os.Getenv("SPICESHELF_APP_ENVIRONMENT") != "production" {
		// .env is optional
		_ = godotenv.Load()
	}

	app := fx.New(
		fx.NopLogger,
		fx.Supply(container.ConfigPath(*configPath)),
		container.Module,
	)
	if err := app.Err(); err != nil {
		exit(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, 30*time.Second)
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		exit(err)
	}

	code := 0
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		code = sig.ExitCode
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "spiceshelf: shutdown: %v\n", err)
		code = 1
	}

	os.Exit(code)
}

// exit prints a startup failure and terminates. Missing catalog files get a
// short message naming the file.
func exit(err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code == apperrors.CodeMissingResource {
		fmt.Fprintf(os.Stderr, "spiceshelf: cannot start: %s\n", appErr.Details)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "spiceshelf: cannot start: %v\n", err)
	os.Exit(1)
}
