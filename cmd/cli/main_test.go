package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tracegrid/internal/boot"
	"github.com/vk/tracegrid/internal/graph"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/internal/testutil"
)

func stubCatalog(onPrepare testutil.HookFunc) *module.Catalog {
	return module.NewCatalog().MustRegister(
		func() module.Provider { return testutil.NewStub(nil, "alpha") },
		func() module.Provider {
			s := testutil.NewStub(nil, "beta", "alpha")
			s.OnPrepare = onPrepare
			return s
		},
	)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := testutil.WriteFiles(t, map[string]string{"tracegrid.hcl": content})
	return filepath.Join(dir, "tracegrid.hcl")
}

func noEnv(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A provider that panics during prepare stands in for a programming
	// error surfacing at startup.
	path := writeConfig(t, `
module "alpha" { provider "default" {} }
module "beta" { provider "default" {} }
`)
	catalog := stubCatalog(func(context.Context, module.Registry) error { panic("registry misuse") })
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), out, []string{"-env-file", noEnv(t), path}, catalog)

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	assert.Contains(t, runErr.Error(), "application startup panicked")
	assert.Contains(t, runErr.Error(), "registry misuse")
	assert.Contains(t, out.String(), "A critical startup error occurred")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, args, stubCatalog(nil))

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, args, stubCatalog(nil))

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_CheckPrintsOrder(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
module "beta" { provider "default" {} }
module "alpha" { provider "default" {} }
`)
	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"-check", "-log-level", "error", "-env-file", noEnv(t), path}, stubCatalog(nil))

	require.NoError(t, err)
	assert.Contains(t, out.String(), "alpha(default) -> beta(default)\n")
}

func TestRun_CheckReportsCycle(t *testing.T) {
	t.Parallel()

	catalog := module.NewCatalog().MustRegister(
		func() module.Provider { return testutil.NewStub(nil, "alpha", "beta") },
		func() module.Provider { return testutil.NewStub(nil, "beta", "alpha") },
	)
	path := writeConfig(t, `
module "alpha" { provider "default" {} }
module "beta" { provider "default" {} }
`)

	err := run(context.Background(), &bytes.Buffer{}, []string{"-check", "-env-file", noEnv(t), path}, catalog)

	assert.ErrorIs(t, err, graph.ErrCyclicDependency)
}

func TestRun_BootsUntilCancelled(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `module "alpha" { provider "default" {} }`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, &bytes.Buffer{}, []string{"-env-file", noEnv(t), path}, stubCatalog(nil))

	assert.NoError(t, err)
}

func TestRun_BootErrorIsReturned(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
module "alpha" { provider "default" {} }
module "beta" { provider "default" {} }
`)
	catalog := stubCatalog(func(context.Context, module.Registry) error { return os.ErrPermission })

	err := run(context.Background(), &bytes.Buffer{}, []string{"-env-file", noEnv(t), path}, catalog)

	assert.ErrorIs(t, err, boot.ErrBoot)
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestRun_EnvFileFeedsPlaceholders(t *testing.T) {
	// Not parallel: godotenv writes to the process environment.
	dir := testutil.WriteFiles(t, map[string]string{
		"test.env":      "TRACEGRID_MAIN_TEST_SELECTOR=default\n",
		"conf/app.yaml": "alpha:\n  selector: ${TRACEGRID_MAIN_TEST_SELECTOR:missing}\n",
	})
	t.Cleanup(func() { _ = os.Unsetenv("TRACEGRID_MAIN_TEST_SELECTOR") })
	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{
		"-check", "-env-file", filepath.Join(dir, "test.env"), filepath.Join(dir, "conf"),
	}, stubCatalog(nil))

	require.NoError(t, err)
	assert.Contains(t, out.String(), "alpha(default)")
}
