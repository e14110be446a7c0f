package exporter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tracegrid/internal/boottest"
	"github.com/vk/tracegrid/internal/graph"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
	"github.com/vk/tracegrid/modules/exporter"
)

func TestNone_DiscardsBatches(t *testing.T) {
	catalog := module.NewCatalog().MustRegister(core.New, exporter.NewNone)
	seq := boottest.MustRun(t, catalog, `
module "core" {
  provider "default" {}
}
module "exporter" {
  selector = "none"
}
`)

	exp := boottest.Find[exporter.SpanExporter](t, seq, exporter.Name)

	assert.NoError(t, exp.Export(context.Background(), []core.Span{{TraceID: "t", ID: "a"}}))
}

func TestNone_RequiresCore(t *testing.T) {
	catalog := module.NewCatalog().MustRegister(core.New, exporter.NewNone)

	_, err := boottest.Run(t, catalog, `
module "exporter" {
  selector = "none"
}
`)

	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrUnresolvedDependency)
}
