package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-onboarding/internal/api"
	"github.com/listenupapp/listenup-onboarding/internal/config"
	"github.com/listenupapp/listenup-onboarding/internal/logger"
	"github.com/listenupapp/listenup-onboarding/internal/sse"
)

// Version is stamped into the OpenAPI document.
var Version = "dev"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	defer h.api.Close()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	journal := do.MustInvoke[*JournalHandle](i)
	svc := do.MustInvoke[*OnboardingServiceHandle](i)

	sseHandler := sse.NewHandler(sseHandle.Manager, svc.Snapshot, api.SessionIDFromRequest, log.ForComponent("sse"))

	handler := api.NewServer(svc.OnboardingService, journal.Store, sseHandler, sseHandle.Manager, api.Options{
		Version:        Version,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimitRPS:   float64(cfg.Server.RateLimit),
		RateLimitBurst: cfg.Server.RateBurst,
	}, log.ForComponent("api"))

	// Event streams push their write deadline forward after every event.
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
