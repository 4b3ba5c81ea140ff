// Package sh is the interactive monitor of boards publishing telemetry.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	env "github.com/robotalks/beacon/pkg/env/connector"
	fx "github.com/robotalks/beacon/pkg/framework"
	"github.com/robotalks/beacon/pkg/telemetry"
	"github.com/robotalks/beacon/pkg/telemetry/msgs"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	// EventTimeout bounds the wait for each event.
	EventTimeout time.Duration

	Shell  *ishell.Shell
	Config *env.Config
	Loop   *ConnLoop
}

// ConnLoop is a running loop with a board connection.
type ConnLoop struct {
	Ctx     context.Context
	Cancel  func()
	Ref     telemetry.BoardRef
	Loop    *fx.Loop
	Conn    telemetry.BoardConn
	Watcher *Watcher
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "

	// DefaultEventTimeout is long enough for the slowest watchdog period.
	DefaultEventTimeout = 10 * time.Second
	// DefaultWatchCount is the number of events printed by watch.
	DefaultWatchCount = 10

	watchBacklog = 64
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&InfoCmd,
		&WatchCmd,
		&StatsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive:  !evalOnly,
		OutputJSON:   outputJSON,
		EventTimeout: DefaultEventTimeout,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Loop == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// PrintEvent prints an event in the selected output format.
func (s *Shell) PrintEvent(c *ishell.Context, msg fx.Message) {
	if s.OutputJSON {
		out, err := FormatJSON(msg)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(out)
		return
	}
	c.Println(FormatEvent(msg))
}

// WatchEvents calls fn with every event received from the board until fn
// returns false. It fails when no event arrives within EventTimeout.
func (s *Shell) WatchEvents(fn func(fx.Message) bool) error {
	if s.Loop == nil {
		return fmt.Errorf("not connected")
	}
	events, unsubscribe := s.Loop.Watcher.Subscribe(watchBacklog)
	defer unsubscribe()
	timeout := s.EventTimeout
	if timeout <= 0 {
		timeout = DefaultEventTimeout
	}
	for {
		select {
		case msg := <-events:
			if !fn(msg) {
				return nil
			}
		case <-time.After(timeout):
			return fmt.Errorf("no event within %v", timeout)
		case <-s.Loop.Ctx.Done():
			return fmt.Errorf("disconnected")
		}
	}
}

// DiscoverBoards discovers boards.
func (s *Shell) DiscoverBoards(filter func(telemetry.BoardInfo) bool) (telemetry.Connector, []telemetry.BoardInfo, error) {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return nil, nil, err
	}
	infoList, err := connector.Discover(context.TODO())
	if err != nil {
		return connector, nil, err
	}
	if filter != nil {
		items := make([]telemetry.BoardInfo, 0, len(infoList))
		for _, info := range infoList {
			if filter(info) {
				items = append(items, info)
			}
		}
		infoList = items
	}
	return connector, infoList, nil
}

// SelectBoard discovers boards and asks for a choice.
func (s *Shell) SelectBoard(filter func(telemetry.BoardInfo) bool) (telemetry.Connector, *telemetry.BoardInfo, error) {
	connector, infoList, err := s.DiscoverBoards(filter)
	if err != nil {
		return nil, nil, err
	}
	if len(infoList) == 0 {
		return connector, nil, nil
	}
	var index int
	if len(infoList) > 1 {
		if !s.Interactive {
			return nil, nil, fmt.Errorf("more than 1 boards discovered in non-interactive mode")
		}
		items := make([]string, len(infoList))
		for n, info := range infoList {
			items[n] = FormatInfo(info)
		}
		index = s.Shell.MultiChoice(items, "Which one to connect?")
	}

	return connector, &infoList[index], nil
}

// Connect connects board with ref.
func (s *Shell) Connect(ref telemetry.BoardRef) error {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return err
	}
	connLoop := &ConnLoop{Ref: ref, Watcher: &Watcher{}}
	connLoop.Ctx, connLoop.Cancel = context.WithCancel(context.Background())
	if connLoop.Conn, err = connector.Connect(connLoop.Ctx, ref); err != nil {
		connLoop.Cancel()
		return err
	}
	connLoop.Loop = fx.NewLoop().Add(connLoop.Conn, connLoop.Watcher)
	if s.Loop != nil {
		s.Loop.Cancel()
	}
	s.Loop = connLoop
	go connLoop.Loop.Run(connLoop.Ctx)
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", ref.Name()))
	return nil
}

// Disconnect disconnects current board.
func (s *Shell) Disconnect() {
	if s.Loop != nil {
		s.Loop.Cancel()
		s.Loop = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Ref.IsValid() {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Ref.Name())
		}
		if err := s.Connect(s.Config.Ref); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Ref.Name(), err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// CountArg parses the optional count argument at index n.
func CountArg(c *ishell.Context, n, def int) (int, error) {
	if len(c.Args) <= n {
		return def, nil
	}
	count, err := strconv.Atoi(c.Args[n])
	if err != nil || count <= 0 {
		return 0, fmt.Errorf("invalid COUNT %q", c.Args[n])
	}
	return count, nil
}

var (
	// DiscoverCmd discovers boards.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			_, infoList, err := s.DiscoverBoards(nil)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if len(infoList) == 0 {
					// in case infoList is nil, make it empty slice.
					infoList = []telemetry.BoardInfo{}
				}
				out, err := json.Marshal(infoList)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(infoList) == 0 {
				c.Println("No boards found")
				return
			}
			for _, info := range infoList {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects a board.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "TYPE ID",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var ref telemetry.BoardRef
			if len(c.Args) >= 2 {
				ref.Type, ref.ID = c.Args[0], c.Args[1]
			} else {
				var filter func(telemetry.BoardInfo) bool
				if len(c.Args) == 1 {
					filter = func(info telemetry.BoardInfo) bool {
						return info.Ref.Type == c.Args[0]
					}
				}
				_, info, err := s.SelectBoard(filter)
				if err != nil {
					c.Err(err)
					return
				}
				if info == nil {
					c.Err(fmt.Errorf("no board discovered"))
					return
				}
				ref = info.Ref
			}
			if err := s.Connect(ref); err != nil {
				c.Err(err)
				return
			}
		},
	}

	// DisconnectCmd disconnects current board.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// InfoCmd shows the build configuration of the board.
	InfoCmd = ishell.Cmd{
		Name:    "info",
		Aliases: []string{"i"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			if started := s.Loop.Watcher.Started(); started != nil {
				s.PrintEvent(c, started)
			} else {
				c.Println("board start not seen yet")
			}
			if stopped := s.Loop.Watcher.Stopped(); stopped != nil {
				s.PrintEvent(c, stopped)
			}
		}),
	}

	// WatchCmd prints events as they arrive.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[COUNT]",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			count, err := CountArg(c, 0, DefaultWatchCount)
			if err != nil {
				c.Err(err)
				return
			}
			err = s.WatchEvents(func(msg fx.Message) bool {
				s.PrintEvent(c, msg)
				count--
				return count > 0
			})
			if err != nil {
				c.Err(err)
			}
		}),
	}

	// StatsCmd waits for the next power statistics.
	StatsCmd = ishell.Cmd{
		Name:    "stats",
		Aliases: []string{"s"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			err := s.WatchEvents(func(msg fx.Message) bool {
				if stats, ok := msg.(*msgs.PowerStats); ok {
					s.PrintEvent(c, stats)
					return false
				}
				return true
			})
			if err != nil {
				c.Err(err)
			}
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
