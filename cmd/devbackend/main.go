// Package main runs the in-memory development collaborator the onboarding
// server and terminal client talk to.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/listenupapp/listenup-onboarding/internal/devbackend"
	"github.com/listenupapp/listenup-onboarding/internal/logger"
)

var (
	port         string
	failSaves    bool
	failReports  bool
	latency      time.Duration
	requireToken bool
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "devbackend",
	Short: "Serve a stub ListenUp collaborator",
	Long: `Serve the genre catalog, book candidates, preference saves and reading
reports the onboarding wizard needs, from memory.

Use --fail-saves and --fail-reports to exercise the submission failure paths.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.Flags().StringVar(&port, "port", "8091", "port to listen on")
	rootCmd.Flags().BoolVar(&failSaves, "fail-saves", false, "answer every preference save with 500")
	rootCmd.Flags().BoolVar(&failReports, "fail-reports", false, "answer every report request with 500")
	rootCmd.Flags().DurationVar(&latency, "latency", 0, "delay added before every API response")
	rootCmd.Flags().BoolVar(&requireToken, "require-token", false, "reject calls without a bearer token")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func serve(ctx context.Context) error {
	log := logger.New(logger.Config{
		Environment: "development",
		Level:       logger.ParseLevel(logLevel),
	})

	backend := devbackend.New(devbackend.Options{
		Latency:      latency,
		RequireToken: requireToken,
		Logger:       log.ForComponent("devbackend"),
	})
	backend.FailSaves.Store(failSaves)
	backend.FailReports.Store(failReports)

	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	srv := &http.Server{
		Handler:           backend,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Dev backend listening",
			"addr", ln.Addr().String(),
			"fail_saves", failSaves,
			"fail_reports", failReports,
			"latency", latency,
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down dev backend...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Dev backend stopped", "saves", backend.SaveCount(), "reports", backend.ReportCount())
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
