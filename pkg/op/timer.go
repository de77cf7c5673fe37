package op

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

var ErrBadInterval = errors.New("bad interval format")

// ParseInterval parses "[[HH:]MM:]SS".
func ParseInterval(interval string) (time.Duration, error) {
	parts := strings.Split(interval, ":")
	if len(parts) > 3 {
		return 0, errors.Wrap(ErrBadInterval, interval)
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, errors.Wrap(ErrBadInterval, interval)
		}

		total = total*60 + n
	}

	return time.Duration(total) * time.Second, nil
}

// Timer sends the current time every interval, until the command is cancelled.
// The time is sent as seconds since the epoch, or split in local time components:
// (year, month, day, hour, minute, second, weekday, yearday, isdst), where
// weekday counts from Monday = 0 and isdst is 1 during daylight saving time, 0 otherwise.
type Timer struct {
	pipeline.Base
	source     string
	components bool
	interval   time.Duration
	now        func() time.Time
}

func newTimer(args []string, _ []*pipeline.Pipeline) (pipeline.Op, error) {
	fs := newFlagSet("timer")
	components := fs.Bool("c", false, "send time components instead of seconds since the epoch")

	rest, err := parseFlags(fs, args)
	if err != nil {
		return nil, err
	}

	if len(rest) != 1 {
		return nil, pipeline.InvalidArgument("timer", "expected one interval, got %d arguments", len(rest))
	}

	return NewTimer(rest[0], *components), nil
}

// NewTimer creates a timer op. The interval is parsed during setup.
func NewTimer(interval string, components bool) *Timer {
	return &Timer{Base: pipeline.NewBase("timer"), source: interval, components: components, now: time.Now}
}

func (t *Timer) Setup1() error {
	interval, err := ParseInterval(t.source)
	if err != nil {
		return pipeline.InvalidArgument("timer", "%s", err)
	}

	if interval <= 0 {
		return pipeline.InvalidArgument("timer", "interval must be at least one second")
	}

	t.interval = interval

	return nil
}

func (t *Timer) MustBeFirst() bool {
	return true
}

func (t *Timer) Receive(ctx context.Context, _ model.Row) error {
	return t.Run(ctx)
}

func (t *Timer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ticks := make(chan time.Time)
	go t.metronome(ctx, ticks)

	for {
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "timer stopped")
		case tick := <-ticks:
			err := t.Send(ctx, t.row(tick))
			if err != nil {
				return err
			}
		}
	}
}

// metronome posts the current time on ticks, once immediately and then every interval.
func (t *Timer) metronome(ctx context.Context, ticks chan<- time.Time) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case ticks <- t.now():
		case <-ctx.Done():
			return
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (t *Timer) row(tick time.Time) model.Row {
	if !t.components {
		return model.Row{float64(tick.UnixMilli()) / 1000}
	}

	tick = tick.Local()

	isDST := int64(0)
	if tick.IsDST() {
		isDST = 1
	}

	return model.Row{
		int64(tick.Year()), int64(tick.Month()), int64(tick.Day()),
		int64(tick.Hour()), int64(tick.Minute()), int64(tick.Second()),
		int64(tick.Weekday()+6) % 7, int64(tick.YearDay()), isDST,
	}
}

func (t *Timer) Spec() (model.OpSpec, error) {
	args := []string{}
	if t.components {
		args = append(args, "-c")
	}

	return model.OpSpec{Op: "timer", Args: append(args, t.source)}, nil
}

func (t *Timer) Clone() pipeline.Op {
	return &Timer{Base: t.CloneBase(), source: t.source, components: t.components, now: t.now}
}
