package op_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-objshell/pkg/env"
	"github.com/askiada/go-objshell/pkg/op"
	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

// source sends fixed rows.
type source struct {
	pipeline.Base
	rows []model.Row
}

func newSource(rows ...model.Row) *source {
	return &source{Base: pipeline.NewBase("source"), rows: rows}
}

func (s *source) MustBeFirst() bool {
	return true
}

func (s *source) Run(ctx context.Context) error {
	for _, row := range s.rows {
		err := s.Send(ctx, row)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *source) Receive(ctx context.Context, _ model.Row) error {
	return s.Run(ctx)
}

func (s *source) Clone() pipeline.Op {
	return &source{Base: s.CloneBase(), rows: s.rows}
}

func collect(t *testing.T, dir string, ops ...pipeline.Op) ([]any, error) {
	t.Helper()

	pipe, err := pipeline.FromOps(ops...)
	require.NoError(t, err)

	return pipeline.Collect(context.Background(), pipe, env.New(dir))
}

func mustCollect(t *testing.T, ops ...pipeline.Op) []any {
	t.Helper()

	items, err := collect(t, t.TempDir(), ops...)
	require.NoError(t, err)

	return items
}

func mustOp(t *testing.T, name string, args ...any) pipeline.Op {
	t.Helper()

	o, err := op.New(name, args...)
	require.NoError(t, err)

	return o
}

func rows(values ...[]any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = model.Row(v)
	}

	return out
}
