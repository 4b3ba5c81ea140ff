// Package connector sets up how host tools reach boards.
package connector

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/robotalks/beacon/pkg/telemetry"
	"github.com/robotalks/beacon/pkg/telemetry/comm/mqtt"
	"github.com/robotalks/beacon/pkg/telemetry/comm/stream"
	"github.com/robotalks/beacon/pkg/telemetry/comm/websocket"
)

// Config provides common options to setup Connectors.
type Config struct {
	Ref telemetry.BoardRef

	// RegistryURL specifies where boards are found.
	// e.g. mqtt://host:port/topic-prefix, ws://host:port/telemetry or
	// file:///path/to/recording
	RegistryURL string
}

var defaultConfig = Config{
	RegistryURL: "mqtt://localhost:1883/beacon/",
}

func init() {
	if val := os.Getenv("BEACON_TYPE"); val != "" {
		defaultConfig.Ref.Type = val
	}
	if val := os.Getenv("BEACON_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
	if val := os.Getenv("BEACON_MQTT_URL"); val != "" {
		defaultConfig.RegistryURL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.Type, "board-type", defaultConfig.Ref.Type, "Board type to connect.")
	flag.StringVar(&defaultConfig.Ref.ID, "board-id", defaultConfig.Ref.ID, "Board ID to connect.")
	flag.StringVar(&defaultConfig.RegistryURL, "board-reg", defaultConfig.RegistryURL, "Board registry URL.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewConnector creates a Connector using current config.
func (c *Config) NewConnector() (telemetry.Connector, error) {
	parsedURL, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %v", err)
	}
	switch parsedURL.Scheme {
	case "mqtt", "tcp", "ssl":
		return mqtt.NewConnector(c.RegistryURL)
	case "ws", "wss":
		return websocket.NewConnector(c.RegistryURL)
	case "file":
		return stream.NewConnector(parsedURL.Path), nil
	default:
		return nil, fmt.Errorf("unknown registry URL scheme: %q", parsedURL.Scheme)
	}
}

// MustNewConnector creates a Connector and fails on error.
func (c *Config) MustNewConnector() telemetry.Connector {
	conn, err := c.NewConnector()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// Connect directly connects to a board.
func (c *Config) Connect(ctx context.Context) (telemetry.BoardConn, error) {
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	ref := c.Ref
	if !ref.IsValid() {
		infos, err := connector.Discover(ctx)
		if err != nil {
			return nil, err
		}
		if len(infos) != 1 {
			return nil, fmt.Errorf("board type and id must be specified, %d boards found", len(infos))
		}
		ref = infos[0].Ref
	}
	return connector.Connect(ctx, ref)
}

// MustConnect connects to a board and fails on error.
func (c *Config) MustConnect(ctx context.Context) telemetry.BoardConn {
	conn, err := c.Connect(ctx)
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}
