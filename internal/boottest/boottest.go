// Package boottest boots real providers from an inline HCL document, for
// tests of the leaf modules.
package boottest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/tracegrid/internal/boot"
	"github.com/vk/tracegrid/internal/config/hclconfig"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/internal/testutil"
)

// Run loads src as HCL, plans it against catalog and runs the boot. The
// boot context ends when the test finishes, which stops every server the
// providers started. Loading and planning errors fail the test; the boot
// error is returned.
func Run(t *testing.T, catalog *module.Catalog, src string) (*boot.Sequencer, error) {
	t.Helper()
	ctx, _ := testutil.Context(t)
	ctx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)

	dir := testutil.WriteFiles(t, map[string]string{"tracegrid.hcl": src})
	doc, err := hclconfig.NewLoader().Load(ctx, dir)
	require.NoError(t, err)

	units, err := boot.Plan(catalog, doc)
	require.NoError(t, err)

	return boot.Boot(ctx, units)
}

// MustRun is Run for documents expected to boot.
func MustRun(t *testing.T, catalog *module.Catalog, src string) *boot.Sequencer {
	t.Helper()
	seq, err := Run(t, catalog, src)
	require.NoError(t, err)
	require.True(t, seq.Completed())
	return seq
}

// Find looks up capability T in the booted registry.
func Find[T any](t *testing.T, seq *boot.Sequencer, moduleName string) T {
	t.Helper()
	svc, err := module.Find[T](seq.Registry(), moduleName)
	require.NoError(t, err)
	return svc
}
