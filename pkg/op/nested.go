package op

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

// funnel passes the output of a nested pipeline to the receiver of the op running it.
// The end of the nested stream is dropped, the op completes its own stream.
type funnel struct {
	base *pipeline.Base
}

func (f funnel) ReceiveInput(ctx context.Context, row model.Row) error {
	return f.base.Send(ctx, row)
}

func (f funnel) ReceiveError(ctx context.Context, rowErr *model.Error) error {
	return f.base.SendError(ctx, rowErr)
}

func (funnel) ReceiveComplete(context.Context) error {
	return nil
}

// instantiate returns a set up copy of template, sending its output to the receiver of base.
func instantiate(base *pipeline.Base, template *pipeline.Pipeline) (*pipeline.Pipeline, error) {
	parent := base.Owner()
	if parent == nil {
		return nil, errors.Wrap(pipeline.ErrPipelineMustBeSet, base.Name())
	}

	cp := template.Clone()
	cp.SetEnv(parent.Env())
	cp.SetErrorHandler(parent.ErrorHandler())
	cp.SetReceiver(funnel{base: base})

	err := cp.Setup1()
	if err != nil {
		return nil, err
	}

	err = cp.Setup2()
	if err != nil {
		return nil, err
	}

	return cp, nil
}

func clonePipelines(pipelines []*pipeline.Pipeline) []*pipeline.Pipeline {
	out := make([]*pipeline.Pipeline, len(pipelines))
	for i, pipe := range pipelines {
		out[i] = pipe.Clone()
	}

	return out
}
