package op

import (
	"context"

	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

// RunPipeline runs a nested pipeline on its input.
type RunPipeline struct {
	pipeline.Base
	template *pipeline.Pipeline
	running  *pipeline.Pipeline
}

func newRunPipeline(args []string, pipelines []*pipeline.Pipeline) (pipeline.Op, error) {
	if len(args) != 1 {
		return nil, pipeline.InvalidArgument("runpipeline", "expected one pipeline, got %d arguments", len(args))
	}

	template, err := pipeline.ResolveReference(args[0], pipelines)
	if err != nil {
		return nil, err
	}

	return NewRunPipeline(template), nil
}

// NewRunPipeline creates a runpipeline op running a copy of template.
func NewRunPipeline(template *pipeline.Pipeline) *RunPipeline {
	return &RunPipeline{Base: pipeline.NewBase("runpipeline"), template: template}
}

// Setup2 copies the nested pipeline once the receiver of the op is known.
func (r *RunPipeline) Setup2() error {
	running, err := instantiate(&r.Base, r.template)
	if err != nil {
		return err
	}

	r.running = running

	return nil
}

func (r *RunPipeline) Receive(ctx context.Context, row model.Row) error {
	return r.running.ReceiveInput(ctx, row)
}

func (r *RunPipeline) ReceiveError(ctx context.Context, rowErr *model.Error) error {
	return r.running.ReceiveError(ctx, rowErr)
}

func (r *RunPipeline) Complete(ctx context.Context) error {
	err := r.running.ReceiveComplete(ctx)
	if err != nil {
		return err
	}

	return r.SendComplete(ctx)
}

func (r *RunPipeline) Pipelines() []*pipeline.Pipeline {
	return []*pipeline.Pipeline{r.template}
}

func (r *RunPipeline) Spec() (model.OpSpec, error) {
	nested, err := specs(r.template)
	if err != nil {
		return model.OpSpec{}, err
	}

	return model.OpSpec{Op: "runpipeline", Args: []string{pipeline.Reference(0)}, Pipelines: nested}, nil
}

func (r *RunPipeline) Clone() pipeline.Op {
	return NewRunPipeline(r.template.Clone())
}
