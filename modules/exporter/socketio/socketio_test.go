package socketio

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tracegrid/internal/boottest"
	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/module"
	"github.com/vk/tracegrid/modules/core"
	"github.com/vk/tracegrid/modules/exporter"
)

func catalog() *module.Catalog {
	return module.NewCatalog().MustRegister(core.New, New)
}

func TestClient_ExportBeforeConnect(t *testing.T) {
	c := &client{event: "spans"}

	err := c.Export(context.Background(), []core.Span{{TraceID: "t", ID: "a"}})

	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestProvider_OptionValidation(t *testing.T) {
	testCases := []struct {
		name        string
		body        string
		errContains string
	}{
		{name: "url required", body: ``, errContains: `option "url"`},
		{name: "url must parse", body: `url = "not a url"`, errContains: `option "url"`},
		{name: "bad timeout", body: `
url             = "http://127.0.0.1:1"
connect_timeout = "soon"
`, errContains: `option "connect_timeout"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := boottest.Run(t, catalog(), `
module "core" {
  provider "default" {}
}
module "exporter" {
  provider "socketio" {
`+tc.body+`
  }
}
`)

			assert.ErrorIs(t, err, config.ErrInvalid)
			assert.ErrorContains(t, err, tc.errContains)
		})
	}
}

func TestProvider_UnreachableServerFailsStart(t *testing.T) {
	// --- Arrange ---
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	// --- Act ---
	_, err = boottest.Run(t, catalog(), `
module "core" {
  provider "default" {}
}
module "exporter" {
  provider "socketio" {
    url             = "http://`+addr+`"
    connect_timeout = "2s"
  }
}
`)

	// --- Assert ---
	require.Error(t, err)
	assert.ErrorContains(t, err, "boot failed during start")
	assert.ErrorContains(t, err, "socket.io connection")
}

func TestProvider_NoWaitStartsDisconnected(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	seq := boottest.MustRun(t, catalog(), `
module "core" {
  provider "default" {}
}
module "exporter" {
  provider "socketio" {
    url            = "http://`+addr+`"
    wait_connected = false
  }
}
`)

	exp := boottest.Find[exporter.SpanExporter](t, seq, exporter.Name)
	assert.ErrorIs(t, exp.Export(context.Background(), nil), ErrNotConnected)
}
