package tomlconfig

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/testutil"
)

type receiverOptions struct {
	Host string `toml:"host"`
	Port int    `toml:"port" validate:"min=0,max=65535"`
}

func TestLoader_Load(t *testing.T) {
	// --- Arrange ---
	dir := testutil.WriteFiles(t, map[string]string{
		"app.toml": `
[receiver-zipkin-http.default]
port = 9411

[core]
[core.default]

[storage]
selector = "memory"

[storage.sqlite]
dsn = "file:x.db"

[storage.memory]
max_spans = 5
`,
	})
	ctx, _ := testutil.Context(t)

	// --- Act ---
	doc, err := NewLoader().Load(ctx, dir)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"receiver-zipkin-http", "core", "storage"}, doc.Names())

	storage := doc.Module("storage")
	assert.Equal(t, "memory", storage.Selector)
	require.Len(t, storage.Providers, 2)
	assert.Equal(t, "sqlite", storage.Providers[0].Name)
	assert.Equal(t, "memory", storage.Providers[1].Name)

	receiver, err := doc.Module("receiver-zipkin-http").Selected()
	require.NoError(t, err)
	opts := receiverOptions{Host: "0.0.0.0", Port: 1}
	require.NoError(t, config.Bind(receiver.Options, &opts))
	assert.Equal(t, 9411, opts.Port)
	assert.Equal(t, "0.0.0.0", opts.Host, "absent keys keep their default")

	core, err := doc.Module("core").Selected()
	require.NoError(t, err)
	assert.Equal(t, "default", core.Name)
}

func TestOptions_UnknownKey(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{"app.toml": `
[receiver.default]
port = 9411
prot = 1
`})
	ctx, _ := testutil.Context(t)
	doc, err := NewLoader().Load(ctx, dir)
	require.NoError(t, err)
	selected, err := doc.Module("receiver").Selected()
	require.NoError(t, err)

	err = config.Bind(selected.Options, &receiverOptions{})

	var cfgErr *config.Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "prot", cfgErr.Option)
}

func TestLoader_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		content     string
		errContains string
	}{
		{
			name:        "syntax error",
			content:     "[core",
			errContains: "failed to parse TOML file",
		},
		{
			name:        "module is not a table",
			content:     "core = 5",
			errContains: "module section must be a table",
		},
		{
			name: "stray option in module section",
			content: `
[core]
port = 1
`,
			errContains: `"port" is neither "selector" nor a provider table`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := testutil.WriteFiles(t, map[string]string{"app.toml": tc.content})
			ctx, _ := testutil.Context(t)

			_, err := NewLoader().Load(ctx, dir)

			assert.ErrorContains(t, err, tc.errContains)
		})
	}
}
