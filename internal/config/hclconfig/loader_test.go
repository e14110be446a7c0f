package hclconfig

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/testutil"
)

type storageOptions struct {
	MaxSpans int      `hcl:"max_spans,optional"`
	DSN      string   `hcl:"dsn,optional"`
	Tags     []string `hcl:"tags,optional"`
}

func TestLoader_Load(t *testing.T) {
	// --- Arrange ---
	t.Setenv("TG_TEST_STORAGE", "sqlite")
	t.Setenv("TG_TEST_DSN", "file:test.db")
	dir := testutil.WriteFiles(t, map[string]string{
		"10-core.hcl": `
module "core" {
  provider "default" {}
}
`,
		"20-storage.hcl": `
module "storage" {
  selector = env("TG_TEST_STORAGE", "memory")

  provider "memory" {
    max_spans = 10
  }

  provider "sqlite" {
    dsn  = env("TG_TEST_DSN")
    tags = [upper("a"), lower("B")]
  }
}

module "query" {
  selector = "-"
}
`,
		"ignored.txt": "not hcl",
	})
	ctx, _ := testutil.Context(t)

	// --- Act ---
	doc, err := NewLoader().Load(ctx, dir)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"core", "storage", "query"}, doc.Names())

	storage := doc.Module("storage")
	require.NotNil(t, storage)
	assert.Equal(t, filepath.Join(dir, "20-storage.hcl"), storage.Source)
	selected, err := storage.Selected()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", selected.Name)

	opts := storageOptions{MaxSpans: 99}
	require.NoError(t, config.Bind(selected.Options, &opts))
	assert.Equal(t, "file:test.db", opts.DSN)
	assert.Equal(t, []string{"A", "b"}, opts.Tags)
	assert.Equal(t, 99, opts.MaxSpans, "absent attributes keep their default")

	assert.True(t, doc.Module("query").Disabled())
}

func TestLoader_EnvDefault(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"main.hcl": `
module "storage" {
  selector = env("TG_TEST_SURELY_UNSET_VARIABLE", "memory")
}
`,
	})
	ctx, _ := testutil.Context(t)

	doc, err := NewLoader().Load(ctx, filepath.Join(dir, "main.hcl"))

	require.NoError(t, err)
	assert.Equal(t, "memory", doc.Module("storage").Selector)
}

func TestLoader_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		content     string
		errContains string
	}{
		{
			name:        "syntax error",
			content:     `module "core" {`,
			errContains: "failed to parse HCL file",
		},
		{
			name:        "unknown top-level block",
			content:     `step "x" {}`,
			errContains: "failed to decode HCL file",
		},
		{
			name: "duplicate module",
			content: `
module "core" {}
module "core" {}
`,
			errContains: "declared twice",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := testutil.WriteFiles(t, map[string]string{"main.hcl": tc.content})
			ctx, _ := testutil.Context(t)

			_, err := NewLoader().Load(ctx, dir)

			assert.ErrorContains(t, err, tc.errContains)
		})
	}
}

func TestOptions_DecodeErrorsAreConfigErrors(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{"main.hcl": `
module "storage" {
  provider "memory" {
    max_spans = "lots"
    colour    = "blue"
  }
}
`})
	ctx, _ := testutil.Context(t)
	doc, err := NewLoader().Load(ctx, dir)
	require.NoError(t, err)

	selected, err := doc.Module("storage").Selected()
	require.NoError(t, err)

	err = config.Bind(selected.Options, &storageOptions{})
	require.ErrorIs(t, err, config.ErrInvalid)
}
