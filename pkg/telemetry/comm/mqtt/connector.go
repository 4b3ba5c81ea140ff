package mqtt

import (
	"context"
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/beacon/pkg/telemetry"
	"github.com/robotalks/beacon/pkg/telemetry/comm"
)

// Connector implements telemetry.Connector using MQTT.
type Connector struct {
	DiscoverTimeout time.Duration

	options     *paho.ClientOptions
	topicPrefix string
}

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Connector{
		DiscoverTimeout: DefaultDiscoverTimeout,
		options:         opts,
		topicPrefix:     topicPrefix,
	}, nil
}

// Discover implements telemetry.Connector. Boards are found by their
// retained metadata.
func (c *Connector) Discover(ctx context.Context) (res []telemetry.BoardInfo, err error) {
	q := NewQueue(c.options, c.topicPrefix)
	if err := q.ConnectAndWait(); err != nil {
		return nil, err
	}
	defer q.Close()

	resCh := make(chan telemetry.BoardInfo, 1)
	q.Sub("+/+/"+TopicMeta, Handler(func(topic string, payload []byte) {
		if info, ok := ParseMeta(topic, payload); ok {
			select {
			case resCh <- info:
			case <-time.After(time.Second):
			}
		}
	}))

	dur := c.DiscoverTimeout
	if dur == 0 {
		dur = DefaultDiscoverTimeout
	}
	timeout := time.After(dur)
	for {
		select {
		case info := <-resCh:
			res = append(res, info)
		case <-timeout:
			return
		case <-ctx.Done():
			err = ctx.Err()
			return
		}
	}
}

// ParseMeta decodes a retained meta message. An empty payload is a board
// that went away.
func ParseMeta(topic string, payload []byte) (telemetry.BoardInfo, bool) {
	ref, suffix, ok := RefFromTopic(topic)
	if !ok || suffix != TopicMeta || len(payload) == 0 {
		return telemetry.BoardInfo{}, false
	}
	var info telemetry.BoardInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		glog.V(1).Infof("%s: bad meta: %v", topic, err)
	}
	info.Ref = ref
	return info, true
}

// Connect implements telemetry.Connector.
func (c *Connector) Connect(ctx context.Context, ref telemetry.BoardRef) (telemetry.BoardConn, error) {
	conn := &BoardConn{Queue: NewQueue(c.options, c.topicPrefix)}
	conn.Init(NewPacketReadWriter(conn.Queue).ForWatcher(ref))
	if err := conn.Queue.ConnectAndWait(); err != nil {
		return nil, err
	}
	return conn, nil
}

// BoardConn implements telemetry.BoardConn using MQTT.
type BoardConn struct {
	comm.BoardConn
	Queue *Queue
}

// Close implements telemetry.BoardConn.
func (c *BoardConn) Close() error {
	c.BoardConn.Close()
	return c.Queue.Close()
}
