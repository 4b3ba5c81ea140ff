// Package board assembles the firmware: the LED on PB5 driven by the
// pattern sequencer from a timer interrupt, with the main line sleeping
// in between.
package board

import (
	"context"

	fx "github.com/robotalks/beacon/pkg/framework"
	"github.com/robotalks/beacon/pkg/gpio"
	"github.com/robotalks/beacon/pkg/mcu"
	"github.com/robotalks/beacon/pkg/power"
	"github.com/robotalks/beacon/pkg/sequencer"
	"github.com/robotalks/beacon/pkg/telemetry/msgs"
	"github.com/robotalks/beacon/pkg/timer"
)

// LEDBit is the pin of port B the LED is wired to.
const LEDBit = 5

// Notifier receives the lifecycle messages of the board. Post is called
// on the CPU goroutine and must not block.
type Notifier interface {
	Post(fx.Message)
}

// Board is one emulated microcontroller running the firmware.
type Board struct {
	Core      *mcu.Core
	PortB     *gpio.Port
	LED       *gpio.PortPin
	Sequencer *sequencer.Sequencer
	Timer     timer.Source
	Power     *power.Controller
	// Setting describes the timer registers.
	Setting string
	// Notify is optional.
	Notify Notifier

	observers observers
}

// New creates a board from a resolved configuration.
func New(c *Config, build *Build) *Board {
	b := &Board{
		Core:    mcu.NewCore(),
		PortB:   gpio.NewPort("B"),
		Timer:   build.Timer,
		Setting: build.Setting,
	}
	b.LED = b.PortB.Pin(LEDBit)
	var out gpio.Pin = b.LED
	if c.Console {
		out = gpio.NewConsole(b.LED, b.LED.Name())
	}
	b.Sequencer = sequencer.New(build.Pattern, out).WithPolicy(build.Restart)
	b.Power = power.NewController(b.Core, build.Timer)
	if build.Sleep != nil {
		b.Power.Mode = *build.Sleep
	}
	b.Power.DisableBOD = c.DisableBOD
	return b
}

// Name implements Named.
func (b *Board) Name() string {
	return "board"
}

// Observe adds observers notified after each step, in the interrupt
// handler. It must be called before Run.
func (b *Board) Observe(obs ...sequencer.Observer) *Board {
	b.observers = append(b.observers, obs...)
	b.Sequencer.Observer = b.observers
	return b
}

// Setup is the firmware initialization and runs on the CPU goroutine.
// Interrupts stay disabled: the idle loop enables them right before each
// sleep.
func (b *Board) Setup() {
	core := b.Core
	core.Cli()
	b.Power.Configure(b.Timer)
	core.Cycle()
	b.LED.Configure()
	b.Timer.Attach(core, b.Sequencer.Step)
}

// Started describes the board once Setup completed.
func (b *Board) Started() *msgs.BoardStarted {
	m := &msgs.BoardStarted{}
	m.Pattern = b.Sequencer.Pattern.String()
	m.Timer = b.Timer.Name()
	m.PeriodNs = int64(b.Timer.Period())
	m.Setting = b.Setting
	m.SleepMode = b.Power.Mode.String()
	m.Restart = b.Sequencer.Policy.String()
	m.BodDisabled = b.Power.DisableBOD && b.Power.Mode == mcu.SleepPowerDown
	return m
}

// Run implements Runnable. The calling context powers the board: the
// core loses power when ctx is done. It returns nil on a clean stop.
func (b *Board) Run(ctx context.Context) error {
	ready := make(chan struct{})
	runner := fx.NewRunnerWith(ctx)
	runner.Go(
		fx.NamedRun("cpu", fx.RunFunc(func(ctx context.Context) error {
			b.Setup()
			close(ready)
			b.post(b.Started())
			err := b.Power.Idle(ctx)
			b.post(msgs.NewBoardStopped(err))
			return err
		})),
		fx.NamedRun(b.Timer.Name(), fx.RunFunc(func(ctx context.Context) error {
			select {
			case <-ready:
			case <-ctx.Done():
				return ctx.Err()
			}
			return b.Timer.Run(ctx)
		})),
	)
	return runner.Wait()
}

func (b *Board) post(msg fx.Message) {
	if b.Notify != nil {
		b.Notify.Post(msg)
	}
}

type observers []sequencer.Observer

func (o observers) StepDone(ev sequencer.StepEvent) {
	for _, obs := range o {
		obs.StepDone(ev)
	}
}
