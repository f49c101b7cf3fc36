package di

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-onboarding/internal/devbackend"
	"github.com/listenupapp/listenup-onboarding/internal/di/providers"
)

func TestBootstrap_WiresEveryProvider(t *testing.T) {
	backendSrv := httptest.NewServer(devbackend.New(devbackend.Options{}))
	t.Cleanup(backendSrv.Close)

	dataPath := t.TempDir()
	injector := NewContainer()
	do.ProvideValue(injector, providers.Args{
		"-env-file", filepath.Join(t.TempDir(), "missing.env"),
		"-backend-url", backendSrv.URL,
		"-data-path", dataPath,
		"-port", "0",
		"-log-level", "error",
	})

	require.NoError(t, Bootstrap(injector))

	journal := do.MustInvoke[*providers.JournalHandle](injector)
	assert.NoError(t, journal.Ping(t.Context()))
	assert.FileExists(t, filepath.Join(dataPath, "onboarding.db"))

	svc := do.MustInvoke[*providers.OnboardingServiceHandle](injector)
	sess, err := svc.Start(t.Context(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)

	_ = injector.Shutdown()
	assert.Error(t, journal.Ping(t.Context()), "journal closed on shutdown")
	assert.Equal(t, 0, svc.SessionCount())
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	injector := NewContainer()
	do.ProvideValue(injector, providers.Args{
		"-env-file", filepath.Join(t.TempDir(), "missing.env"),
		"-backend-url", "not a url",
		"-data-path", t.TempDir(),
	})

	assert.Error(t, Bootstrap(injector))
}
