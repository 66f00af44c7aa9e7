// Package console implements the operator command console. The processor is
// transport-agnostic (any io.ReadWriter); in production it runs over the
// Pi's serial port. Commands mirror the controller's observation and
// configuration surface: set-config through the pending-config slot is the
// only write path to the controller.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/QuantumEF/aircond/internal/control"
	"github.com/QuantumEF/aircond/internal/dht11"
	"github.com/QuantumEF/aircond/internal/feed"
)

const prompt = "> "

// Console processes operator commands.
type Console struct {
	readings *feed.Feed[dht11.Reading]
	status   *feed.Slot[control.Status]
	configs  *feed.Slot[control.Config]
	addr     func() string
	now      func() time.Time
}

// New creates a Console. addr reports the daemon's network address for the
// addr command; now is injectable for tests.
func New(readings *feed.Feed[dht11.Reading], status *feed.Slot[control.Status], configs *feed.Slot[control.Config], addr func() string, now func() time.Time) *Console {
	if now == nil {
		now = time.Now
	}
	return &Console{
		readings: readings,
		status:   status,
		configs:  configs,
		addr:     addr,
		now:      now,
	}
}

// Run reads commands line by line until the transport closes or ctx is
// cancelled. It waits for the first controller status before accepting
// commands, so status and get-config always have something to show.
func (c *Console) Run(ctx context.Context, rw io.ReadWriter) error {
	last, err := c.status.Wait(ctx)
	if err != nil {
		return err
	}

	fmt.Fprint(rw, prompt)
	scanner := bufio.NewScanner(rw)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Refresh to the newest published status before answering.
		if s, ok := c.status.Peek(); ok {
			last = s
		}

		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			c.dispatch(rw, line, last)
		}
		fmt.Fprint(rw, prompt)
	}
	return scanner.Err()
}

func (c *Console) dispatch(w io.Writer, line string, last control.Status) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "temp":
		c.cmdTemp(w)
	case "addr":
		fmt.Fprintf(w, "%s\n", c.addr())
	case "status":
		c.cmdStatus(w, last)
	case "get-config":
		c.cmdGetConfig(w, last.Config)
	case "set-config":
		c.cmdSetConfig(w, fields[1:], last.Config)
	case "help":
		c.cmdHelp(w)
	default:
		fmt.Fprintf(w, "unknown command %q (try help)\n", fields[0])
	}
}

func (c *Console) cmdTemp(w io.Writer) {
	reading, _, ok := c.readings.Latest()
	if !ok {
		fmt.Fprintln(w, "no reading yet")
		return
	}
	fmt.Fprintf(w, "Temp: %d°C\nHumidity: %d%%\n", reading.Temperature, reading.Humidity)
}

func (c *Console) cmdStatus(w io.Writer, s control.Status) {
	switch s.State.Kind {
	case control.StateIdle:
		fmt.Fprintln(w, "Status: Idle")
	case control.StateRunning:
		fmt.Fprintf(w, "Status: Running - Remaining: %ds\n", int64(s.Remaining(c.now()).Seconds()))
	case control.StateCooldown:
		fmt.Fprintf(w, "Status: Cooldown - Remaining: %ds\n", int64(s.Remaining(c.now()).Seconds()))
	default:
		fmt.Fprintln(w, "Status: Unknown")
	}
}

func (c *Console) cmdGetConfig(w io.Writer, cfg control.Config) {
	fmt.Fprintf(w, "Threshold Temp: %d°C\nMin Runtime: %ds\nCooldown Time: %ds\n",
		cfg.ThresholdTemperature,
		int64(cfg.MinimumRuntime.Seconds()),
		int64(cfg.CooldownTime.Seconds()))
}

// cmdSetConfig queues a config update. Arguments are positional and each
// may be omitted to keep the current value: threshold °C, minimum runtime
// seconds, cooldown seconds.
func (c *Console) cmdSetConfig(w io.Writer, args []string, current control.Config) {
	if len(args) > 3 {
		fmt.Fprintln(w, "usage: set-config [threshold-c] [min-runtime-secs] [cooldown-secs]")
		return
	}

	cfg := current
	if len(args) > 0 {
		v, err := strconv.ParseInt(args[0], 10, 8)
		if err != nil {
			fmt.Fprintf(w, "bad threshold %q\n", args[0])
			return
		}
		cfg.ThresholdTemperature = int8(v)
	}
	if len(args) > 1 {
		v, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			fmt.Fprintf(w, "bad min runtime %q\n", args[1])
			return
		}
		cfg.MinimumRuntime = time.Duration(v) * time.Second
	}
	if len(args) > 2 {
		v, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			fmt.Fprintf(w, "bad cooldown %q\n", args[2])
			return
		}
		cfg.CooldownTime = time.Duration(v) * time.Second
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(w, "rejected: %v\n", err)
		return
	}

	c.configs.Put(cfg)
	fmt.Fprintln(w, "OK")
}

func (c *Console) cmdHelp(w io.Writer) {
	fmt.Fprint(w, `commands:
  temp          latest temperature and humidity
  addr          network address
  status        controller state and remaining time
  get-config    active controller config
  set-config [threshold-c] [min-runtime-secs] [cooldown-secs]
                queue a config update (omitted fields keep current values)
`)
}
