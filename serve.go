package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"grabdoc/internal/server"
)

var port int

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Start the HTTP control surface",
		Args:         cobra.NoArgs,
		RunE:         serve,
		SilenceUsage: true,
	}
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides config and UI_PORT)")
	return cmd
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	ctx, cancel := signalContext(logger)
	defer cancel()

	a := newApp(ctx, cfg, logger)
	defer func() {
		if err := a.Close(); err != nil {
			logger.Printf("WARNING: shutdown: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.New(server.Options{Jobs: a.jobs, OutputDir: cfg.Output.Dir, Version: version}),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("UI running at http://localhost:%d", cfg.Server.Port)
		logger.Printf("Version: %s", version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	logger.Println("Shutting down server...")
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
