package pipeline

import (
	"context"

	"github.com/askiada/go-objshell/pkg/env"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

// Collect executes a copy of p and returns its output in stream order. Items are
// either model.Row or *model.Error. On a command failure, the output gathered
// before the failure is returned with the error.
func Collect(ctx context.Context, p *Pipeline, e *env.Env, opts ...CommandOption) ([]any, error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	cp := p.Clone()
	// errors end up in the output.
	cp.SetErrorHandler(NoopErrorHandler)

	out := &gather{Base: NewBase("gather")}
	cp.appendOp(out)

	cmd, err := NewCommand(p.String(), cp, e, opts...)
	if err != nil {
		return nil, err
	}

	_, err = cmd.Execute(ctx)

	return out.items, err
}

type gather struct {
	Base
	items []any
}

func (g *gather) Receive(_ context.Context, row model.Row) error {
	g.items = append(g.items, row.Copy())

	return nil
}

func (g *gather) ReceiveError(_ context.Context, rowErr *model.Error) error {
	g.items = append(g.items, rowErr)

	return nil
}

func (g *gather) Kind() model.OpKind {
	return model.SinkOpKind
}

func (g *gather) Clone() Op {
	return &gather{Base: g.CloneBase()}
}
