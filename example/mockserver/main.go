package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/tbxark/travelpilot/config"
	"github.com/tbxark/travelpilot/logger"
)

func main() {
	var (
		addr       string
		step       time.Duration
		configPath string
	)
	cmd := &cobra.Command{
		Use:   "mockserver",
		Short: "Serve a scripted Itinerary Service for local development",
		Example: `  $ mockserver --addr :8000 --step 500ms
  $ TRAVELPILOT_SERVICE_BASE_URL=http://localhost:8000/api/ travelpilot`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			closer, err := logger.Setup(cfg.Log)
			if err != nil {
				return err
			}
			defer closer.Close()
			return serve(cmd.Context(), addr, step)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	cmd.Flags().DurationVar(&step, "step", 700*time.Millisecond, "delay between progress events")
	cmd.Flags().StringVar(&configPath, "config", "", "path to config file (log section only)")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context, addr string, step time.Duration) error {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newServer(step).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Mock itinerary service listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
