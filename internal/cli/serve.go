package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/spacesedan/reviewflow/internal/web"
)

const shutdownTimeout = 10 * time.Second

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(_ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := OpenApp(ctx, &c.globals.Config)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer app.Close()

	srv := web.NewServer(app.Pipeline, web.Options{
		DefaultCount: c.globals.DefaultCount,
		DefaultSort:  models.SortMode(c.globals.DefaultSort),
		Credentials:  app.Credentials,
		Metrics:      app.Metrics,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(c.globals.HTTP.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("[Serve] Shutting down gracefully...", slog.String("version", c.version))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
