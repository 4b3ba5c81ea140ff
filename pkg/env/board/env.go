// Package board sets up where an emulated board publishes its telemetry.
package board

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/robotalks/beacon/pkg/env"
	fx "github.com/robotalks/beacon/pkg/framework"
	"github.com/robotalks/beacon/pkg/telemetry"
	"github.com/robotalks/beacon/pkg/telemetry/comm"
	"github.com/robotalks/beacon/pkg/telemetry/comm/mqtt"
	"github.com/robotalks/beacon/pkg/telemetry/comm/stream"
	"github.com/robotalks/beacon/pkg/telemetry/comm/websocket"
)

// BoardType is the type every emulated board registers with.
const BoardType = "beacon"

// Config provides the telemetry options of a board.
type Config struct {
	Info telemetry.BoardInfo

	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// WebsocketAddr is the listen address of the websocket endpoint.
	WebsocketAddr string
	// RecordFile records the telemetry to a file.
	RecordFile string
}

var defaultConfig = Config{
	Info: telemetry.BoardInfo{
		Ref: telemetry.BoardRef{Type: BoardType},
	},
}

func init() {
	if val := os.Getenv("BEACON_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("BEACON_ID"); val != "" {
		defaultConfig.Info.Ref.ID = val
	} else {
		defaultConfig.Info.Ref.ID = env.MachineID()
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Board ID")
	flag.StringVar(&defaultConfig.Info.Meta.Description, "desc", defaultConfig.Info.Meta.Description, "Board description")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws", defaultConfig.WebsocketAddr, "Websocket telemetry listen address, e.g. :8080")
	flag.StringVar(&defaultConfig.RecordFile, "record", defaultConfig.RecordFile, "Record telemetry to file")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Env is the telemetry env of a board.
type Env struct {
	Config    *Config
	Publisher *comm.PublisherMux
	// Endpoints lists where telemetry goes, for logging.
	Endpoints []string

	closers []func() error
}

// NewEnv creates Env from config. Without any endpoint configured the
// board runs without telemetry.
func (c *Config) NewEnv() (*Env, error) {
	if !c.Info.Ref.IsValid() {
		return nil, fmt.Errorf("board type and id must be specified")
	}
	e := &Env{Config: c, Publisher: &comm.PublisherMux{}}
	if c.MQTTBrokerURL != "" {
		pub, err := mqtt.NewPublisher(c.MQTTBrokerURL, c.Info)
		if err != nil {
			return nil, fmt.Errorf("create MQTT publisher error: %v", err)
		}
		e.Publisher.Add(pub)
		e.Endpoints = append(e.Endpoints, c.MQTTBrokerURL)
	}
	if c.WebsocketAddr != "" {
		pub := &comm.Publisher{}
		pub.Init(websocket.NewServer(c.WebsocketAddr))
		e.Publisher.Add(pub)
		e.Endpoints = append(e.Endpoints, "ws://"+c.WebsocketAddr+websocket.DefaultPath)
	}
	if c.RecordFile != "" {
		pub, err := stream.NewRecorder(c.RecordFile)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("create recorder error: %v", err)
		}
		e.Publisher.Add(pub)
		e.closers = append(e.closers, pub.Close)
		e.Endpoints = append(e.Endpoints, "file:"+c.RecordFile)
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

// AddToLoop adds publishers to loop.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Add(e.Publisher)
}

// Close releases the endpoints not owned by the loop.
func (e *Env) Close() error {
	var errs fx.AggregatedError
	for _, fn := range e.closers {
		errs.Add(fn())
	}
	e.closers = nil
	return errs.Aggregate()
}
