package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-onboarding/internal/backend"
	"github.com/listenupapp/listenup-onboarding/internal/config"
	"github.com/listenupapp/listenup-onboarding/internal/logger"
	"github.com/listenupapp/listenup-onboarding/internal/onboarding"
	"github.com/listenupapp/listenup-onboarding/internal/service"
)

// BackendClientHandle wraps the backend client with shutdown capability.
type BackendClientHandle struct {
	*backend.Client
}

// Shutdown implements do.Shutdownable.
func (h *BackendClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideBackendClient provides the rate-limited REST backend client.
func ProvideBackendClient(i do.Injector) (*BackendClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := backend.New(backend.Config{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
		RPS:     float64(cfg.Backend.RPS),
		Burst:   cfg.Backend.Burst,
	}, log.ForComponent("backend"))

	log.Info("Backend client ready", "url", cfg.Backend.URL, "rps", cfg.Backend.RPS)

	return &BackendClientHandle{Client: client}, nil
}

// OnboardingServiceHandle wraps the session service with shutdown capability.
type OnboardingServiceHandle struct {
	*service.OnboardingService
}

// Shutdown implements do.Shutdownable.
func (h *OnboardingServiceHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.OnboardingService.Shutdown(ctx)
}

// ProvideOnboardingService provides the wizard session registry.
func ProvideOnboardingService(i do.Injector) (*OnboardingServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*BackendClientHandle](i)
	journal := do.MustInvoke[*JournalHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	svc := service.NewOnboardingService(
		func(token string) onboarding.Backend {
			return client.WithToken(token)
		},
		journal.Store,
		sseHandle.Manager,
		service.OnboardingConfig{
			Limits: onboarding.Limits{
				MaxPurposes:   cfg.Wizard.MaxPurposes,
				BooksPerGenre: cfg.Wizard.BooksPerGenre,
			},
			AnalysisDelay:    cfg.Wizard.AnalysisDelay,
			FetchConcurrency: cfg.Wizard.FetchConcurrency,
			SessionTTL:       cfg.Wizard.SessionTTL,
		},
		log.ForComponent("onboarding"),
	)

	log.Info("Onboarding service started", "session_ttl", cfg.Wizard.SessionTTL)

	return &OnboardingServiceHandle{OnboardingService: svc}, nil
}
