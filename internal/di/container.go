// Package di provides dependency injection configuration for the onboarding server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-onboarding/internal/config"
	"github.com/listenupapp/listenup-onboarding/internal/di/providers"
	"github.com/listenupapp/listenup-onboarding/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Persistence and events
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideJournal)

	// Backend collaborator
	do.Provide(injector, providers.ProvideBackendClient)

	// Business services
	do.Provide(injector, providers.ProvideOnboardingService)

	// Workers
	do.Provide(injector, providers.ProvideReportBacklogJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)

	if _, err := do.Invoke[*providers.JournalHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*providers.BackendClientHandle](injector)
	_ = do.MustInvoke[*providers.OnboardingServiceHandle](injector)

	// Workers
	_ = do.MustInvoke[*providers.ReportBacklogJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
