package mqtt

import (
	"context"
	"encoding/json"

	fx "github.com/robotalks/beacon/pkg/framework"
	"github.com/robotalks/beacon/pkg/telemetry"
	"github.com/robotalks/beacon/pkg/telemetry/comm"
)

// Publisher implements telemetry.Publisher using MQTT. The board metadata
// is retained on the meta topic while the board is connected; the will
// clears it when the connection is lost.
type Publisher struct {
	Queue *Queue
	Info  telemetry.BoardInfo

	metaJSON  []byte
	publisher comm.Publisher
}

// NewPublisher creates a Publisher.
func NewPublisher(brokerURL string, info telemetry.BoardInfo) (*Publisher, error) {
	meta, err := json.Marshal(&info)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+MetaTopic(info.Ref), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("beacon:" + info.Ref.Name())
	}
	p := &Publisher{
		Queue:    NewQueue(opts, topicPrefix),
		Info:     info,
		metaJSON: meta,
	}
	p.Queue.OnConnect = func(*Queue) { p.onConnected() }
	p.publisher.Init(NewPacketReadWriter(p.Queue).ForBoard(info.Ref))
	return p, nil
}

// SendEvent implements telemetry.Publisher.
func (p *Publisher) SendEvent(ctx context.Context, msg fx.Message) error {
	if !p.Queue.Client.IsConnected() {
		return nil
	}
	return p.publisher.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (p *Publisher) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(p)
}

// Run implements Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	p.Queue.Connect()
	<-ctx.Done()
	token := p.Queue.PubWith(MetaTopic(p.Info.Ref), nil, 1, true)
	token.WaitTimeout(DefaultPublishTimeout)
	p.Queue.Close()
	return nil
}

func (p *Publisher) onConnected() {
	p.Queue.PubWith(MetaTopic(p.Info.Ref), p.metaJSON, 1, true)
}
