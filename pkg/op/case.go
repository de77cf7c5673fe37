package op

import (
	"context"

	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

// Case sends every row to the pipeline of the first matching predicate,
// or to the default pipeline if there is one.
type Case struct {
	pipeline.Base
	predicates []*Predicate
	branches   []*pipeline.Pipeline
	fallback   *pipeline.Pipeline

	running         []*pipeline.Pipeline
	runningFallback *pipeline.Pipeline
}

func newCase(args []string, pipelines []*pipeline.Pipeline) (pipeline.Op, error) {
	c := &Case{Base: pipeline.NewBase("case")}

	for i := 0; i < len(args); i++ {
		if pipeline.IsReference(args[i]) {
			if i != len(args)-1 {
				return nil, pipeline.InvalidArgument("case", "the default pipeline must be the last argument")
			}

			fallback, err := pipeline.ResolveReference(args[i], pipelines)
			if err != nil {
				return nil, err
			}

			c.fallback = fallback

			break
		}

		if i+1 >= len(args) {
			return nil, pipeline.InvalidArgument("case", "predicate %q has no pipeline", args[i])
		}

		predicate, err := ParsePredicate(args[i])
		if err != nil {
			return nil, pipeline.InvalidArgument("case", "%s", err)
		}

		branch, err := pipeline.ResolveReference(args[i+1], pipelines)
		if err != nil {
			return nil, err
		}

		c.predicates = append(c.predicates, predicate)
		c.branches = append(c.branches, branch)
		i++
	}

	if len(c.branches) == 0 {
		return nil, pipeline.InvalidArgument("case", "expected at least one predicate and its pipeline")
	}

	return c, nil
}

// Setup2 copies the branches once the receiver of the op is known.
func (c *Case) Setup2() error {
	c.running = make([]*pipeline.Pipeline, len(c.branches))

	for i, branch := range c.branches {
		running, err := instantiate(&c.Base, branch)
		if err != nil {
			return err
		}

		c.running[i] = running
	}

	if c.fallback != nil {
		running, err := instantiate(&c.Base, c.fallback)
		if err != nil {
			return err
		}

		c.runningFallback = running
	}

	return nil
}

func (c *Case) Receive(ctx context.Context, row model.Row) error {
	for i, predicate := range c.predicates {
		ok, err := predicate.Match(row)
		if err != nil {
			return c.Fatal(row, "predicate failed", err)
		}

		if ok {
			return c.running[i].ReceiveInput(ctx, row)
		}
	}

	if c.runningFallback != nil {
		return c.runningFallback.ReceiveInput(ctx, row)
	}

	return nil
}

func (c *Case) Complete(ctx context.Context) error {
	for _, running := range c.allRunning() {
		err := running.ReceiveComplete(ctx)
		if err != nil {
			return err
		}
	}

	return c.SendComplete(ctx)
}

func (c *Case) allRunning() []*pipeline.Pipeline {
	if c.runningFallback == nil {
		return c.running
	}

	return append(append([]*pipeline.Pipeline(nil), c.running...), c.runningFallback)
}

func (c *Case) Pipelines() []*pipeline.Pipeline {
	if c.fallback == nil {
		return c.branches
	}

	return append(append([]*pipeline.Pipeline(nil), c.branches...), c.fallback)
}

func (c *Case) Spec() (model.OpSpec, error) {
	nested, err := specs(c.Pipelines()...)
	if err != nil {
		return model.OpSpec{}, err
	}

	args := []string{}
	for i, predicate := range c.predicates {
		args = append(args, predicate.Source, pipeline.Reference(i))
	}

	if c.fallback != nil {
		args = append(args, pipeline.Reference(len(c.predicates)))
	}

	return model.OpSpec{Op: "case", Args: args, Pipelines: nested}, nil
}

func (c *Case) Clone() pipeline.Op {
	cp := &Case{
		Base:     c.CloneBase(),
		branches: clonePipelines(c.branches),
	}

	for _, predicate := range c.predicates {
		p := *predicate
		cp.predicates = append(cp.predicates, &p)
	}

	if c.fallback != nil {
		cp.fallback = c.fallback.Clone()
	}

	return cp
}
