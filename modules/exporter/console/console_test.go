package console_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tracegrid/internal/boottest"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/internal/testutil"
	"github.com/vk/tracegrid/modules/core"
	"github.com/vk/tracegrid/modules/exporter"
	"github.com/vk/tracegrid/modules/exporter/console"
)

func TestConsole_PrintsSortedTags(t *testing.T) {
	// --- Arrange ---
	out := &testutil.SafeBuffer{}
	catalog := module.NewCatalog().MustRegister(core.New, func() module.Provider { return console.NewWithWriter(out) })
	seq := boottest.MustRun(t, catalog, `
module "core" {
  provider "default" {}
}

module "exporter" {
  provider "console" {
    tags = true
  }
}
`)
	exp := boottest.Find[exporter.SpanExporter](t, seq, exporter.Name)
	ctx, _ := testutil.Context(t)

	// --- Act ---
	err := exp.Export(ctx, []core.Span{
		{TraceID: "t1", ID: "a", Name: "get", Duration: 12, LocalEndpoint: &core.Endpoint{ServiceName: "web"},
			Tags: map[string]string{"z": "1", "a": "2"}},
		{TraceID: "t1", ID: "b"},
	})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t,
		"t1 a web \"get\" 12us\n"+
			"      a = \"2\"\n"+
			"      z = \"1\"\n"+
			"t1 b (null) \"\" 0us\n",
		out.String())
}

func TestNone_Discards(t *testing.T) {
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
