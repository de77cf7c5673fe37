package op_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-objshell/pkg/env"
	"github.com/askiada/go-objshell/pkg/op"
	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

func TestParseInterval(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		interval string
		expected time.Duration
		err      bool
	}{
		"seconds":          {interval: "5", expected: 5 * time.Second},
		"minutes":          {interval: "1:30", expected: 90 * time.Second},
		"hours":            {interval: "1:00:01", expected: time.Hour + time.Second},
		"empty":            {interval: "", err: true},
		"letters":          {interval: "1:x", err: true},
		"too many colons":  {interval: "1:2:3:4", err: true},
		"negative seconds": {interval: "-5", err: true},
		"empty component":  {interval: "1:", err: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := op.ParseInterval(tc.interval)
			if tc.err {
				require.ErrorIs(t, err, op.ErrBadInterval)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestTimerBadInterval(t *testing.T) {
	t.Parallel()

	items, err := collect(t, t.TempDir(), op.NewTimer("1:x", false))
	require.ErrorIs(t, err, pipeline.ErrInvalidArgument)
	assert.Empty(t, items)
}

// stopAfter cancels the command after it has passed limit rows.
type stopAfter struct {
	pipeline.Base
	limit  int
	seen   int
	cancel context.CancelFunc
}

func (s *stopAfter) Receive(ctx context.Context, row model.Row) error {
	s.seen++
	if s.seen == s.limit {
		s.cancel()
	}

	return s.Send(ctx, row)
}

func (s *stopAfter) Clone() pipeline.Op {
	return &stopAfter{Base: s.CloneBase(), limit: s.limit, cancel: s.cancel}
}

func TestTimerStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tcs := map[string]struct {
		components bool
		width      int
	}{
		"seconds":    {width: 1},
		"components": {components: true, width: 9},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			pipe, err := pipeline.FromOps(
				op.NewTimer("1", tc.components),
				&stopAfter{Base: pipeline.NewBase("stop"), limit: 2, cancel: cancel},
			)
			require.NoError(t, err)

			start := time.Now()
			items, err := pipeline.Collect(ctx, pipe, env.New(t.TempDir()))
			require.ErrorIs(t, err, context.Canceled)
			require.Len(t, items, 2)
			assert.Less(t, time.Since(start), 5*time.Second)

			for _, item := range items {
				assert.Len(t, item.(model.Row), tc.width)
			}
		})
	}
}

func TestTimerComponents(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		tick    time.Time
		weekday int64
	}{
		"monday": {tick: time.Date(2024, time.January, 1, 10, 20, 30, 0, time.Local), weekday: 0},
		"sunday": {tick: time.Date(2024, time.January, 7, 10, 20, 30, 0, time.Local), weekday: 6},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			row := op.TimerRow(op.NewTimer("1", true), tc.tick)
			require.Len(t, row, 9)

			assert.Equal(t, model.Row{int64(2024), int64(1), int64(tc.tick.Day()), int64(10), int64(20), int64(30)}, row[:6])
			assert.Equal(t, tc.weekday, row[6])
			assert.Equal(t, int64(tc.tick.YearDay()), row[7])
			assert.Contains(t, []any{int64(0), int64(1)}, row[8])
		})
	}
}
