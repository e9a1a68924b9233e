package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/vinfotechlanceai/smartstep/internal/analysis"
	"github.com/vinfotechlanceai/smartstep/internal/camera"
	"github.com/vinfotechlanceai/smartstep/internal/config"
	"github.com/vinfotechlanceai/smartstep/internal/consult"
	"github.com/vinfotechlanceai/smartstep/internal/handlers"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the capture and analysis interface",
		Long: `Starts the SmartStep web interface on the specified port.

The web interface supports both capture modes: uploading loose foot photos
and tagging them into the top/side/back slots, or a guided live scan that
walks through the three views with an attached webcam.`,
		Example: `  # Start server on default port 8888
  smartstep serve

  # Start server on custom port
  smartstep serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}

			provider, err := newProvider(cfg, "")
			if err != nil {
				return err
			}

			var sender consult.Sender
			if cfg.ConsultWebhookURL != "" {
				sender = consult.NewWebhookSender(cfg.ConsultWebhookURL)
			} else {
				sender = consult.LogSender{}
			}

			cam := camera.NewWebcam(camera.Config{
				DeviceID: cfg.CameraDevice,
				Width:    cfg.CameraWidth,
				Height:   cfg.CameraHeight,
			})

			handler := handlers.New(analysis.NewService(provider), sender, cam, cfg.MaxUploadBytes)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/sessions", handler.HandleSessions)
			mux.HandleFunc("/api/sessions/", handler.HandleSessionDetail)
			mux.HandleFunc("/api/consult", handler.HandleConsult)
			mux.HandleFunc("/", handler.HandleStatic)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("SmartStep interface available", "addr", addr, "url", "http://localhost"+addr, "provider", provider.Name())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides PORT)")

	return cmd
}
