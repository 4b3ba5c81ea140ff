package connector

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/beacon/pkg/telemetry/comm/mqtt"
	"github.com/robotalks/beacon/pkg/telemetry/comm/stream"
	"github.com/robotalks/beacon/pkg/telemetry/comm/websocket"
)

func TestNewConnector(t *testing.T) {
	tests := []struct {
		url    string
		expect interface{}
	}{
		{"mqtt://localhost:1883/beacon/", &mqtt.Connector{}},
		{"ws://localhost:8080/telemetry", &websocket.Connector{}},
		{"file:///tmp/session.bin", &stream.Connector{}},
	}
	for _, test := range tests {
		t.Run(test.url, func(t *testing.T) {
			c := NewConfig()
			c.RegistryURL = test.url
			conn, err := c.NewConnector()
			require.NoError(t, err)
			assert.IsType(t, test.expect, conn)
		})
	}

	c := NewConfig()
	c.RegistryURL = "gopher://localhost"
	_, err := c.NewConnector()
	assert.Error(t, err)
}

func TestConnectDiscoversSingleBoard(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "session.bin")
	rec, err := stream.NewRecorder(fn)
	require.NoError(t, err)
	require.NoError(t, rec.Close())

	c := NewConfig()
	c.RegistryURL = "file://" + fn
	conn, err := c.Connect(context.Background())
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}
