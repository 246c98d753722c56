package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"webplots/internal/api"
	"webplots/internal/workspace"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("host", "0.0.0.0", "listen host")
	serveCmd.Flags().Int("port", 8080, "listen port")
	serveCmd.Flags().Int("max-traces", 8, "maximum traces per plot (0 = unlimited)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"server.host":       "host",
		"server.port":       "port",
		"render.max_traces": "max-traces",
	})
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	registry := workspace.NewRegistry(workspace.Defaults{
		ChartWidth:  cfg.Render.ChartWidth,
		ChartHeight: cfg.Render.ChartHeight,
		Palette:     cfg.Render.Palette,
	}, logger)
	h := api.NewHandler(registry, cfg.Render.MaxTraces, logger)
	e := api.NewServer(h, api.ServerOptions{
		CORSOrigins: cfg.Server.CORSOrigins,
		BodyLimit:   cfg.Server.BodyLimit,
		Debug:       cfg.Logging.Level == "debug",
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr()), zap.Int("max_traces", cfg.Render.MaxTraces))
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
