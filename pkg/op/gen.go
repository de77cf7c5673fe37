package op

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

// Gen generates the integers start, start+1, ... A count of 0 never stops.
type Gen struct {
	pipeline.Base
	start int64
	count int64
}

func newGen(args []string, _ []*pipeline.Pipeline) (pipeline.Op, error) {
	fs := newFlagSet("gen")
	start := fs.Int64("s", 0, "first value")

	rest, err := parseFlags(fs, args)
	if err != nil {
		return nil, err
	}

	if len(rest) != 1 {
		return nil, pipeline.InvalidArgument("gen", "expected one count, got %d arguments", len(rest))
	}

	count, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil {
		return nil, pipeline.InvalidArgument("gen", "count %q is not an integer", rest[0])
	}

	return NewGen(*start, count)
}

// NewGen creates a gen op.
func NewGen(start, count int64) (*Gen, error) {
	if count < 0 {
		return nil, pipeline.InvalidArgument("gen", "count must not be negative")
	}

	return &Gen{Base: pipeline.NewBase("gen"), start: start, count: count}, nil
}

func (g *Gen) MustBeFirst() bool {
	return true
}

func (g *Gen) Receive(ctx context.Context, _ model.Row) error {
	return g.Run(ctx)
}

func (g *Gen) Run(ctx context.Context) error {
	for i := int64(0); g.count == 0 || i < g.count; i++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "gen interrupted")
		}

		err := g.Send(ctx, model.Row{g.start + i})
		if err != nil {
			return err
		}
	}

	return nil
}

func (g *Gen) Spec() (model.OpSpec, error) {
	args := []string{}
	if g.start != 0 {
		args = append(args, "-s", strconv.FormatInt(g.start, 10))
	}

	return model.OpSpec{Op: "gen", Args: append(args, strconv.FormatInt(g.count, 10))}, nil
}

func (g *Gen) Clone() pipeline.Op {
	return &Gen{Base: g.CloneBase(), start: g.start, count: g.count}
}
