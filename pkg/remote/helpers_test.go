package remote_test

import (
	"context"
	"io"
	"sync"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-objshell/pkg/env"
	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
	"github.com/askiada/go-objshell/pkg/remote"
)

type sweepCall struct {
	root int32
	sig  syscall.Signal
}

// fakeSweeper records the sweeps instead of signalling processes.
type fakeSweeper struct {
	mu    sync.Mutex
	calls []sweepCall
}

func (f *fakeSweeper) Sweep(_ context.Context, root int32, sig syscall.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, sweepCall{root: root, sig: sig})

	return nil
}

func (f *fakeSweeper) Calls() []sweepCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]sweepCall(nil), f.calls...)
}

const testRoot = 4242

func newTestServer(opts ...remote.ServerOption) (*remote.Server, *fakeSweeper) {
	sweeper := &fakeSweeper{}
	opts = append([]remote.ServerOption{remote.WithSweeper(sweeper), remote.WithRoot(testRoot)}, opts...)

	return remote.NewServer(opts...), sweeper
}

func startLocal(t *testing.T, server *remote.Server, spec model.PipelineSpec) *remote.Session {
	t.Helper()

	ctx := context.Background()

	sess, err := remote.Start(ctx, remote.NewLocalTransport(ctx, server), env.New(t.TempDir()).Snapshot(), spec)
	require.NoError(t, err)

	return sess
}

func drain(t *testing.T, sess *remote.Session) []any {
	t.Helper()

	items := []any{}
	for {
		item, err := sess.Next()
		if errors.Is(err, io.EOF) {
			return items
		}

		require.NoError(t, err)
		items = append(items, item)
	}
}

type panicOp struct {
	pipeline.Base
}

func (p *panicOp) Receive(context.Context, model.Row) error {
	panic("boom")
}

func (p *panicOp) Clone() pipeline.Op {
	return &panicOp{Base: p.CloneBase()}
}

func spec(ops ...model.OpSpec) model.PipelineSpec {
	return model.PipelineSpec{Ops: ops}
}
