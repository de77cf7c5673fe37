package remote_test

import (
	"context"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-objshell/pkg/env"
	"github.com/askiada/go-objshell/pkg/op"
	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
	"github.com/askiada/go-objshell/pkg/remote"
)

func mustOp(t *testing.T, name string, args ...any) pipeline.Op {
	t.Helper()

	o, err := op.New(name, args...)
	require.NoError(t, err)

	return o
}

func TestRemoteOp(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer()

	template, err := pipeline.FromOps(mustOp(t, "gen", 2), mustOp(t, "select", "0 != 1"))
	require.NoError(t, err)

	remoteOp, err := remote.NewRemote(remote.LocalDialer(server), nil, template, "a", "b")
	require.NoError(t, err)

	pipe, err := pipeline.FromOps(remoteOp, mustOp(t, "red", "-i", ".", "count"))
	require.NoError(t, err)

	items, err := pipeline.Collect(context.Background(), pipe, env.New(t.TempDir()))
	require.NoError(t, err)

	assert.ElementsMatch(t, []any{
		model.Row{"a", int64(0), int64(1)},
		model.Row{"b", int64(0), int64(1)},
	}, items)

	spec, err := remoteOp.Spec()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "pipeline:0"}, spec.Args)
}

func TestRemoteOpLabelsErrors(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer()

	template, err := pipeline.FromOps(mustOp(t, "gen", 1), mustOp(t, "select", "3 == 0"))
	require.NoError(t, err)

	failing := func(ctx context.Context, host string) (remote.Transport, error) {
		if host == "down" {
			return nil, errors.New("connection refused")
		}

		return remote.LocalDialer(server)(ctx, host)
	}

	remoteOp, err := remote.NewRemote(failing, nil, template, "up", "down")
	require.NoError(t, err)

	pipe, err := pipeline.FromOps(remoteOp)
	require.NoError(t, err)

	items, err := pipeline.Collect(context.Background(), pipe, env.New(t.TempDir()))
	require.NoError(t, err)
	require.Len(t, items, 2)

	labels := []string{}
	for _, item := range items {
		rowErr, ok := item.(*model.Error)
		require.True(t, ok)
		labels = append(labels, rowErr.Label)
	}

	assert.ElementsMatch(t, []string{"up", "down"}, labels)
}

// cancelAfter cancels the command once it has passed limit rows.
type cancelAfter struct {
	pipeline.Base
	limit  int
	seen   int
	cancel context.CancelFunc
}

func (c *cancelAfter) Receive(ctx context.Context, row model.Row) error {
	c.seen++
	if c.seen == c.limit {
		c.cancel()
	}

	return c.Send(ctx, row)
}

func (c *cancelAfter) Clone() pipeline.Op {
	return &cancelAfter{Base: c.CloneBase(), limit: c.limit, cancel: c.cancel}
}

func TestRemoteOpCancel(t *testing.T) {
	t.Parallel()

	server, sweeper := newTestServer()

	template, err := pipeline.FromOps(mustOp(t, "timer", "1"))
	require.NoError(t, err)

	remoteOp, err := remote.NewRemote(remote.LocalDialer(server), nil, template, "a")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := pipeline.FromOps(remoteOp, &cancelAfter{Base: pipeline.NewBase("cancel"), limit: 1, cancel: cancel})
	require.NoError(t, err)

	_, err = pipeline.Collect(ctx, pipe, env.New(t.TempDir()))
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []sweepCall{{root: testRoot, sig: syscall.SIGTERM}}, sweeper.Calls())
}

func TestRegisterOp(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer()
	remote.RegisterOp(remote.LocalDialer(server), nil)

	nested, err := pipeline.FromOps(mustOp(t, "gen", 1))
	require.NoError(t, err)

	built := mustOp(t, "remote", "h", nested)
	spec, err := built.(pipeline.Specifier).Spec()
	require.NoError(t, err)

	rebuilt, err := op.FromSpec(spec)
	require.NoError(t, err)
	assert.IsType(t, &remote.Remote{}, rebuilt)

	_, err = op.New("remote", nested)
	require.ErrorIs(t, err, pipeline.ErrInvalidArgument)
}
