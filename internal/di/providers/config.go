// Package providers contains dependency injection providers for the onboarding server.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-onboarding/internal/config"
	"github.com/listenupapp/listenup-onboarding/internal/logger"
)

// Args are the command-line arguments handed to the config loader.
type Args []string

// ProvideConfig provides the application configuration. Flags come from an
// Args value in the container when present, else from os.Args.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	args, err := do.Invoke[Args](i)
	if err != nil {
		args = os.Args[1:]
	}
	return config.LoadConfig(args)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting ListenUp Onboarding",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"backend_url", cfg.Backend.URL,
		"data_path", cfg.Store.DataPath,
	)

	return log, nil
}
