package board

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"gopkg.in/yaml.v3"

	fx "github.com/robotalks/beacon/pkg/framework"
	"github.com/robotalks/beacon/pkg/mcu"
	"github.com/robotalks/beacon/pkg/pattern"
	"github.com/robotalks/beacon/pkg/sequencer"
	"github.com/robotalks/beacon/pkg/timer"
)

// Sleep selections besides the mode names.
const (
	// SleepAuto picks the deepest mode the timer allows.
	SleepAuto = "auto"
)

// Config is the build configuration of the firmware. It's fixed once the
// board is created.
type Config struct {
	// Pattern is a preset name or a pattern literal.
	Pattern string `yaml:"pattern"`
	// Timer is the timing source, compare-match or watchdog.
	Timer string `yaml:"timer"`
	// Period is the target interval between symbols.
	Period time.Duration `yaml:"period"`
	// ClockHz is the system clock feeding Timer/Counter1.
	ClockHz uint `yaml:"clock_hz"`
	// Sleep is auto, idle or power-down.
	Sleep string `yaml:"sleep"`
	// Restart is the restart policy, next-tick or immediate.
	Restart string `yaml:"restart"`
	// DisableBOD turns the brown-out detector off in power-down.
	DisableBOD bool `yaml:"disable_bod"`
	// Console mirrors the LED on the terminal.
	Console bool `yaml:"console"`
	// StatsInterval is how often the core counters are reported.
	StatsInterval time.Duration `yaml:"stats_interval"`
}

var defaultConfig = Config{
	Pattern:       pattern.DefaultPreset,
	Timer:         timer.NameCompareMatch,
	Period:        500 * time.Millisecond,
	ClockHz:       16000000,
	Sleep:         SleepAuto,
	Restart:       sequencer.RestartOnNextTick.String(),
	DisableBOD:    true,
	StatsInterval: 5 * time.Second,
}

func init() {
	if val := os.Getenv("BEACON_PATTERN"); val != "" {
		defaultConfig.Pattern = val
	}
	if val := os.Getenv("BEACON_TIMER"); val != "" {
		defaultConfig.Timer = val
	}
	if val := os.Getenv("BEACON_PERIOD"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			defaultConfig.Period = d
		}
	}
	if val := os.Getenv("BEACON_SLEEP"); val != "" {
		defaultConfig.Sleep = val
	}
}

// SetupFlags sets command line flags. -profile loads a YAML profile when
// it's parsed, flags after it override the profile.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Pattern, "pattern", defaultConfig.Pattern, "Pattern preset or literal of '=' and '.'.")
	flag.StringVar(&defaultConfig.Timer, "timer", defaultConfig.Timer, "Timing source: compare-match or watchdog.")
	flag.DurationVar(&defaultConfig.Period, "period", defaultConfig.Period, "Interval between symbols.")
	flag.UintVar(&defaultConfig.ClockHz, "clock-hz", defaultConfig.ClockHz, "System clock frequency.")
	flag.StringVar(&defaultConfig.Sleep, "sleep", defaultConfig.Sleep, "Sleep mode: auto, idle or power-down.")
	flag.StringVar(&defaultConfig.Restart, "restart", defaultConfig.Restart, "Restart policy: next-tick or immediate.")
	flag.BoolVar(&defaultConfig.DisableBOD, "disable-bod", defaultConfig.DisableBOD, "Disable brown-out detection in power-down.")
	flag.BoolVar(&defaultConfig.Console, "console", defaultConfig.Console, "Show the LED on the terminal.")
	flag.DurationVar(&defaultConfig.StatsInterval, "stats-interval", defaultConfig.StatsInterval, "Interval of power statistics reports.")
	flag.Func("profile", "Load build configuration from a YAML file.", defaultConfig.LoadProfile)
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LoadProfile overrides the config with the fields set in a YAML file.
func (c *Config) LoadProfile(fn string) error {
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		return err
	}
	return c.ParseProfile(data)
}

// ParseProfile overrides the config with the fields set in YAML.
func (c *Config) ParseProfile(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("invalid profile: %v", err)
	}
	return nil
}

// Build is a resolved Config.
type Build struct {
	Pattern pattern.Pattern
	Timer   timer.Source
	// Setting describes the timer registers, e.g. the prescaler and TOP.
	Setting string
	// Sleep is nil for the deepest compatible mode.
	Sleep   *mcu.SleepMode
	Restart sequencer.RestartPolicy
}

// Resolve validates the config and creates the timing source counting on
// clk. All problems are reported at once.
func (c *Config) Resolve(clk clock.Clock) (*Build, error) {
	var errs fx.AggregatedError
	b := &Build{}
	var err error
	if b.Pattern, err = pattern.Lookup(c.Pattern); err != nil {
		errs.Add(fmt.Errorf("pattern: %v", err))
	}
	if b.Restart, err = sequencer.ParseRestartPolicy(c.Restart); err != nil {
		errs.Add(err)
	}
	if c.Sleep != SleepAuto {
		mode, err := mcu.ParseSleepMode(c.Sleep)
		if err != nil {
			errs.Add(err)
		}
		b.Sleep = &mode
	}
	switch c.Timer {
	case timer.NameCompareMatch:
		if c.ClockHz == 0 || uint64(c.ClockHz) > uint64(^uint32(0)) {
			errs.Add(fmt.Errorf("invalid clock frequency %d", c.ClockHz))
			break
		}
		s, err := timer.SolveCompareMatch(uint32(c.ClockHz), c.Period)
		if err != nil {
			errs.Add(err)
			break
		}
		b.Timer, b.Setting = timer.NewCompareMatch(s, clk), s.String()
	case timer.NameWatchdog:
		if c.Period <= 0 {
			errs.Add(fmt.Errorf("invalid period %v", c.Period))
			break
		}
		t := timer.SolveWatchdog(timer.WatchdogHz, c.Period)
		b.Timer, b.Setting = timer.NewWatchdog(t, clk), t.String()
	default:
		errs.Add(fmt.Errorf("unknown timer %q", c.Timer))
	}
	if err := errs.Aggregate(); err != nil {
		return nil, err
	}
	return b, nil
}

// NewBoard creates the board. clk drives the timers, nil for the wall
// clock.
func (c *Config) NewBoard(clk clock.Clock) (*Board, error) {
	if clk == nil {
		clk = clock.New()
	}
	build, err := c.Resolve(clk)
	if err != nil {
		return nil, err
	}
	return New(c, build), nil
}

// MustNewBoard creates the board and fails on error.
func (c *Config) MustNewBoard(clk clock.Clock) *Board {
	b, err := c.NewBoard(clk)
	if err != nil {
		log.Fatalln(err)
	}
	return b
}
