package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-objshell/pkg/env"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

// ErrorHandler is called for every row failure reported by an op of a pipeline.
type ErrorHandler func(e *env.Env, rowErr *model.Error)

// Pipeline is an ordered chain of ops. It owns its ops.
type Pipeline struct {
	first, last  Op
	errorHandler ErrorHandler
	receiver     Receiver
	env          *env.Env
	opts         []model.PipelineOption
	optErr       error
	ready        bool
}

// New creates an empty pipeline.
func New(opts ...model.PipelineOption) (*Pipeline, error) {
	pipe := &Pipeline{
		opts: opts,
	}

	for _, opt := range opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

// FromOps creates a pipeline made of ops, in order.
func FromOps(ops ...Op) (*Pipeline, error) {
	pipe, err := New()
	if err != nil {
		return nil, err
	}

	for _, op := range ops {
		err = pipe.Append(op)
		if err != nil {
			return nil, err
		}
	}

	return pipe, nil
}

// Append adds op at the end of the pipeline.
func (p *Pipeline) Append(op Op) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}

	if op == nil {
		return ErrOpMustBeSet
	}

	if op.base().owner != nil {
		return errors.Wrap(ErrOpAlreadyOwned, op.Name())
	}

	p.appendOp(op)

	return nil
}

func (p *Pipeline) appendOp(op Op) {
	b := op.base()
	b.owner = p

	if p.last == nil {
		p.first = op
	} else {
		// the previous last op now sends to op.
		last := p.last.base()
		last.next = op
		last.receiver = nil
	}

	p.last = op
	p.ready = false
}

// Ops returns the ops of the pipeline, in order.
func (p *Pipeline) Ops() []Op {
	var ops []Op
	for op := p.first; op != nil; op = op.base().next {
		ops = append(ops, op)
	}

	return ops
}

// Len returns the number of ops.
func (p *Pipeline) Len() int {
	return len(p.Ops())
}

// First returns the first op, or nil.
func (p *Pipeline) First() Op {
	return p.first
}

// Last returns the last op, or nil.
func (p *Pipeline) Last() Op {
	return p.last
}

// SetErrorHandler installs the handler of row failures. It must be done before Setup1.
func (p *Pipeline) SetErrorHandler(handler ErrorHandler) {
	p.errorHandler = handler
}

// ErrorHandler returns the installed error handler.
func (p *Pipeline) ErrorHandler() ErrorHandler {
	return p.errorHandler
}

// SetEnv sets the environment the ops run against.
func (p *Pipeline) SetEnv(e *env.Env) {
	p.env = e
}

// Env returns the environment the ops run against.
func (p *Pipeline) Env() *env.Env {
	return p.env
}

// SetReceiver sets the target of the output of the last op. An op holding a nested
// pipeline sets it to its own receiver.
func (p *Pipeline) SetReceiver(r Receiver) {
	p.receiver = r
	if p.last != nil {
		p.last.base().receiver = r
	}
}

// Setup1 runs the first setup phase on every op.
func (p *Pipeline) Setup1() error {
	if p.first == nil {
		return ErrEmptyPipeline
	}

	if p.errorHandler == nil {
		return ErrNoErrorHandler
	}

	p.ready = false
	parent := model.StartOp

	for idx, op := range p.Ops() {
		if idx > 0 && op.MustBeFirst() {
			return errors.Wrap(ErrMustBeFirst, op.Name())
		}

		b := op.base()
		if b.receiver == nil {
			if b.next != nil {
				b.receiver = inbox{op: b.next}
			} else {
				b.receiver = p.receiver
			}
		}

		b.info = &model.OpInfo{
			Name:  fmt.Sprintf("%d. %s", idx+1, op.Name()),
			Kind:  kindOf(op),
			Index: idx,
		}

		for _, opt := range p.opts {
			err := opt.PrepareOp(parent, b.info)
			if err != nil {
				return errors.Wrap(err, "unable to run prepare op function")
			}
		}

		err := op.Setup1()
		if err != nil {
			return errors.Wrapf(err, "unable to set up %s", op.Name())
		}

		parent = b.info
	}

	for _, opt := range p.opts {
		err := opt.PrepareEnd(parent)
		if err != nil {
			return errors.Wrap(err, "unable to run prepare end function")
		}
	}

	return nil
}

// Setup2 runs the second setup phase on every op. Rows can flow once it returns.
func (p *Pipeline) Setup2() error {
	if p.first == nil {
		return ErrEmptyPipeline
	}

	for _, op := range p.Ops() {
		if op.base().info == nil {
			return errors.Wrap(ErrNotSetUp, "setup phase 1 did not run")
		}

		err := op.Setup2()
		if err != nil {
			return errors.Wrapf(err, "unable to set up %s", op.Name())
		}
	}

	p.ready = true

	return nil
}

// Run drives the pipeline: the first op gets the initial input, then the end of the stream.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.ready {
		return ErrNotSetUp
	}

	var err error
	if gen, ok := p.first.(Generator); ok {
		err = resume(ctx, gen, gen.Run(ctx))
	} else {
		err = deliver(ctx, p.first, model.Row{})
	}

	if err != nil {
		return err
	}

	return p.first.Complete(ctx)
}

// ReceiveInput passes row to the first op. It makes a set up pipeline usable as a Receiver.
func (p *Pipeline) ReceiveInput(ctx context.Context, row model.Row) error {
	if !p.ready {
		return ErrNotSetUp
	}

	return deliver(ctx, p.first, row)
}

// ReceiveError passes rowErr to the first op.
func (p *Pipeline) ReceiveError(ctx context.Context, rowErr *model.Error) error {
	if !p.ready {
		return ErrNotSetUp
	}

	return p.first.ReceiveError(ctx, rowErr)
}

// ReceiveComplete passes the end of the stream to the first op.
func (p *Pipeline) ReceiveComplete(ctx context.Context) error {
	if !p.ready {
		return ErrNotSetUp
	}

	return p.first.Complete(ctx)
}

// Clone returns a copy of the pipeline made of clones of its ops.
// The receiver is not copied, options are shared.
func (p *Pipeline) Clone() *Pipeline {
	cp := &Pipeline{
		errorHandler: p.errorHandler,
		env:          p.env,
		opts:         p.opts,
	}

	for _, op := range p.Ops() {
		cp.appendOp(op.Clone())
	}

	return cp
}

// Spec returns the serializable form of the pipeline.
func (p *Pipeline) Spec() (model.PipelineSpec, error) {
	spec := model.PipelineSpec{}

	for _, op := range p.Ops() {
		specifier, ok := op.(Specifier)
		if !ok {
			return model.PipelineSpec{}, errors.Wrap(ErrNotSerializable, op.Name())
		}

		opSpec, err := specifier.Spec()
		if err != nil {
			return model.PipelineSpec{}, errors.Wrapf(err, "unable to serialize %s", op.Name())
		}

		spec.Ops = append(spec.Ops, opSpec)
	}

	return spec, nil
}

func (p *Pipeline) String() string {
	parts := []string{}

	for _, op := range p.Ops() {
		part := op.Name()
		if specifier, ok := op.(Specifier); ok {
			if spec, err := specifier.Spec(); err == nil && len(spec.Args) > 0 {
				part += " " + strings.Join(spec.Args, " ")
			}
		}

		parts = append(parts, part)
	}

	return "pipeline(" + strings.Join(parts, " | ") + ")"
}

func (p *Pipeline) handleError(info *model.OpInfo, rowErr *model.Error) {
	if p.errorHandler != nil {
		p.errorHandler(p.env, rowErr)
	}

	for _, opt := range p.opts {
		err := opt.OnOpError(info, rowErr)
		if err != nil && p.optErr == nil {
			p.optErr = errors.Wrap(err, "unable to run on op error function")
		}
	}
}

func (p *Pipeline) observe(info *model.OpInfo, elapsed time.Duration) error {
	for _, opt := range p.opts {
		err := opt.OnOpInput(info, elapsed)
		if err != nil {
			return errors.Wrap(err, "unable to run on op input function")
		}
	}

	return nil
}

func (p *Pipeline) finish() error {
	if p.optErr != nil {
		return p.optErr
	}

	for _, opt := range p.opts {
		err := opt.Finish()
		if err != nil {
			return errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	return nil
}

// deliver is the input boundary of an op: a row abort stops here.
func deliver(ctx context.Context, op Op, row model.Row) error {
	start := time.Now()
	err := resume(ctx, op, op.Receive(ctx, row))
	if err != nil {
		return err
	}

	b := op.base()
	if b.owner == nil || b.info == nil {
		return nil
	}

	return b.owner.observe(b.info, time.Since(start))
}

func resume(ctx context.Context, op Op, err error) error {
	var abort *RowAbort
	if errors.As(err, &abort) {
		return op.ReceiveError(ctx, abort.Err)
	}

	return err
}

type nested interface {
	Pipelines() []*Pipeline
}

type kinded interface {
	Kind() model.OpKind
}

func kindOf(op Op) model.OpKind {
	switch o := op.(type) {
	case kinded:
		return o.Kind()
	case Generator:
		return model.GeneratorOpKind
	case nested:
		return model.NestedOpKind
	default:
		return model.TransformerOpKind
	}
}
