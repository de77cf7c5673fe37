package pipeline_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

type genOp struct {
	pipeline.Base
	total int
}

func newGen(total int) *genOp {
	return &genOp{Base: pipeline.NewBase("gen"), total: total}
}

func (g *genOp) MustBeFirst() bool {
	return true
}

func (g *genOp) Run(ctx context.Context) error {
	for i := range g.total {
		err := g.Send(ctx, model.Row{int64(i)})
		if err != nil {
			return err
		}
	}

	return nil
}

func (g *genOp) Spec() (model.OpSpec, error) {
	return model.OpSpec{Op: "gen", Args: []string{strconv.Itoa(g.total)}}, nil
}

func (g *genOp) Clone() pipeline.Op {
	return &genOp{Base: g.CloneBase(), total: g.total}
}

// mapOp applies fn, a failure of fn aborts the current row only.
type mapOp struct {
	pipeline.Base
	fn func(model.Row) (model.Row, error)
}

func newMap(fn func(model.Row) (model.Row, error)) *mapOp {
	return &mapOp{Base: pipeline.NewBase("map"), fn: fn}
}

func (m *mapOp) Receive(ctx context.Context, row model.Row) error {
	out, err := m.fn(row)
	if err != nil {
		return m.Fatal(row, err.Error(), err)
	}

	return m.Send(ctx, out)
}

func (m *mapOp) Clone() pipeline.Op {
	return &mapOp{Base: m.CloneBase(), fn: m.fn}
}

// abortOp aborts the command on the row equal to at.
type abortOp struct {
	pipeline.Base
	at  int64
	err error
}

func (a *abortOp) Receive(ctx context.Context, row model.Row) error {
	if row[0] == a.at {
		return a.err
	}

	return a.Send(ctx, row)
}

func (a *abortOp) Clone() pipeline.Op {
	return &abortOp{Base: a.CloneBase(), at: a.at, err: a.err}
}

// sumOp sums the first column, and sends the total at the end of the stream.
type sumOp struct {
	pipeline.Base
	total int64
}

func newSum() *sumOp {
	return &sumOp{Base: pipeline.NewBase("sum")}
}

func (s *sumOp) Receive(_ context.Context, row model.Row) error {
	s.total += row[0].(int64)

	return nil
}

func (s *sumOp) Complete(ctx context.Context) error {
	err := s.Send(ctx, model.Row{s.total})
	if err != nil {
		return err
	}

	return s.SendComplete(ctx)
}

func (s *sumOp) Clone() pipeline.Op {
	return &sumOp{Base: s.CloneBase()}
}

// probeOp records the calls made by the pipeline.
type probeOp struct {
	pipeline.Base
	events *[]string
}

func newProbe(name string, events *[]string) *probeOp {
	return &probeOp{Base: pipeline.NewBase(name), events: events}
}

func (p *probeOp) Setup1() error {
	*p.events = append(*p.events, "setup1 "+p.Name())

	return nil
}

func (p *probeOp) Setup2() error {
	*p.events = append(*p.events, "setup2 "+p.Name())

	return nil
}

func (p *probeOp) Receive(ctx context.Context, row model.Row) error {
	*p.events = append(*p.events, "receive "+p.Name())

	return p.Send(ctx, row)
}

func (p *probeOp) Clone() pipeline.Op {
	return &probeOp{Base: p.CloneBase(), events: p.events}
}

// recorder is a pipeline option counting the calls of every hook.
type recorder struct {
	prepared []string
	end      string
	inputs   map[string]int
	errors   int
	finished bool
}

func newRecorder() *recorder {
	return &recorder{inputs: map[string]int{}}
}

func (r *recorder) New() error { return nil }

func (r *recorder) PrepareOp(parentOp, op *model.OpInfo) error {
	r.prepared = append(r.prepared, parentOp.Name+" -> "+op.Name)

	return nil
}

func (r *recorder) PrepareEnd(lastOp *model.OpInfo) error {
	r.end = lastOp.Name

	return nil
}

func (r *recorder) OnOpInput(op *model.OpInfo, _ time.Duration) error {
	r.inputs[op.Name]++

	return nil
}

func (r *recorder) OnOpError(*model.OpInfo, *model.Error) error {
	r.errors++

	return nil
}

func (r *recorder) Finish() error {
	r.finished = true

	return nil
}

func mustPipeline(t *testing.T, ops ...pipeline.Op) *pipeline.Pipeline {
	t.Helper()

	pipe, err := pipeline.FromOps(ops...)
	if err != nil {
		t.Fatal(err)
	}

	return pipe
}

func rowsOf(t *testing.T, items []any) []model.Row {
	t.Helper()

	rows := []model.Row{}
	for _, item := range items {
		if row, ok := item.(model.Row); ok {
			rows = append(rows, row)
		}
	}

	return rows
}
