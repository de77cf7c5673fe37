package op

import (
	"context"
	"strings"

	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

// Select sends the rows matching a predicate.
type Select struct {
	pipeline.Base
	predicate *Predicate
}

func newSelect(args []string, _ []*pipeline.Pipeline) (pipeline.Op, error) {
	return NewSelect(strings.Join(args, " "))
}

// NewSelect creates a select op.
func NewSelect(source string) (*Select, error) {
	predicate, err := ParsePredicate(source)
	if err != nil {
		return nil, pipeline.InvalidArgument("select", "%s", err)
	}

	return &Select{Base: pipeline.NewBase("select"), predicate: predicate}, nil
}

func (s *Select) Receive(ctx context.Context, row model.Row) error {
	ok, err := s.predicate.Match(row)
	if err != nil {
		return s.Fatal(row, "predicate failed", err)
	}

	if !ok {
		return nil
	}

	return s.Send(ctx, row)
}

func (s *Select) Spec() (model.OpSpec, error) {
	return model.OpSpec{Op: "select", Args: []string{s.predicate.Source}}, nil
}

func (s *Select) Clone() pipeline.Op {
	predicate := *s.predicate

	return &Select{Base: s.CloneBase(), predicate: &predicate}
}
