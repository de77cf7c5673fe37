package pipeline

import (
	"context"
	"fmt"

	"github.com/askiada/go-objshell/pkg/env"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

// Receiver is the target of the output of an op.
type Receiver interface {
	// ReceiveInput processes one row.
	ReceiveInput(ctx context.Context, row model.Row) error
	// ReceiveError processes one error value.
	ReceiveError(ctx context.Context, rowErr *model.Error) error
	// ReceiveComplete signals the end of the stream.
	ReceiveComplete(ctx context.Context) error
}

// Op is one stage of a pipeline. Implementations embed Base, which provides
// the links to the rest of the pipeline and a default for every method but Clone.
type Op interface {
	// Name is the name of the op, as used on the command line.
	Name() string
	// Setup1 initialises the op state and validates it.
	Setup1() error
	// Setup2 runs after Setup1 has run for every op of the pipeline.
	Setup2() error
	// Receive processes one input. Returning a *RowAbort aborts this input only,
	// any other error aborts the command.
	Receive(ctx context.Context, row model.Row) error
	// ReceiveError processes an error value sent by the previous op.
	ReceiveError(ctx context.Context, rowErr *model.Error) error
	// Complete is called once, after the last input. It must call SendComplete.
	Complete(ctx context.Context) error
	// MustBeFirst reports whether the op generates values rather than transforming them.
	MustBeFirst() bool
	// Clone returns an independent copy of the op, not attached to any pipeline.
	Clone() Op

	base() *Base
}

// Generator is implemented by ops producing values without input.
// When a Generator is the first op of a pipeline, Run replaces the initial empty input.
type Generator interface {
	Op
	Run(ctx context.Context) error
}

// Specifier is implemented by ops which can be sent to a remote runner.
type Specifier interface {
	Spec() (model.OpSpec, error)
}

// Base holds the links of an op to its pipeline.
type Base struct {
	name     string
	next     Op
	receiver Receiver
	owner    *Pipeline
	info     *model.OpInfo
}

// NewBase creates the base of an op called name.
func NewBase(name string) Base {
	return Base{name: name}
}

func (b *Base) base() *Base {
	return b
}

// Name returns the name of the op.
func (b *Base) Name() string {
	return b.name
}

// CloneBase returns an unlinked base with the same name, for use in Clone.
func (b *Base) CloneBase() Base {
	return Base{name: b.name}
}

// Owner returns the pipeline the op belongs to.
func (b *Base) Owner() *Pipeline {
	return b.owner
}

// Env returns the environment of the pipeline owning the op.
func (b *Base) Env() *env.Env {
	if b.owner == nil {
		return nil
	}

	return b.owner.env
}

// Receiver returns the target of the output of the op.
func (b *Base) Receiver() Receiver {
	return b.receiver
}

// SetReceiver overrides the target of the output of the op.
// When it is set before Setup1, the pipeline keeps it.
func (b *Base) SetReceiver(r Receiver) {
	b.receiver = r
}

// Send passes one row to the receiver.
func (b *Base) Send(ctx context.Context, row model.Row) error {
	if b.receiver == nil {
		return nil
	}

	return b.receiver.ReceiveInput(ctx, row)
}

// SendError passes one error value to the receiver.
func (b *Base) SendError(ctx context.Context, rowErr *model.Error) error {
	if b.receiver == nil {
		return nil
	}

	return b.receiver.ReceiveError(ctx, rowErr)
}

// SendComplete signals the receiver there will be no more output.
func (b *Base) SendComplete(ctx context.Context) error {
	if b.receiver == nil {
		return nil
	}

	return b.receiver.ReceiveComplete(ctx)
}

func (b *Base) Setup1() error {
	return nil
}

func (b *Base) Setup2() error {
	return nil
}

func (b *Base) Receive(context.Context, model.Row) error {
	return nil
}

// ReceiveError forwards rowErr.
func (b *Base) ReceiveError(ctx context.Context, rowErr *model.Error) error {
	return b.SendError(ctx, rowErr)
}

// Complete forwards the end of the stream.
func (b *Base) Complete(ctx context.Context) error {
	return b.SendComplete(ctx)
}

func (b *Base) MustBeFirst() bool {
	return false
}

// NonFatal reports a row failure to the pipeline error handler and returns it,
// so that the caller can also send it downstream. row may be nil.
func (b *Base) NonFatal(row model.Row, message string, cause error) *model.Error {
	rowErr := model.NewError(b.describe(row, message), cause)
	if b.owner != nil {
		b.owner.handleError(b.info, rowErr)
	}

	return rowErr
}

// Fatal reports a row failure and aborts the processing of the current input.
// Use it as the return value of Receive.
func (b *Base) Fatal(row model.Row, message string, cause error) error {
	return &RowAbort{Err: b.NonFatal(row, message, cause)}
}

func (b *Base) describe(row model.Row, message string) string {
	if row == nil {
		return fmt.Sprintf("Running %s: %s", b.name, message)
	}

	return fmt.Sprintf("Running %s on %s: %s", b.name, row, message)
}

// inbox delivers the output of an op to the next op.
type inbox struct {
	op Op
}

func (in inbox) ReceiveInput(ctx context.Context, row model.Row) error {
	return deliver(ctx, in.op, row)
}

func (in inbox) ReceiveError(ctx context.Context, rowErr *model.Error) error {
	return in.op.ReceiveError(ctx, rowErr)
}

func (in inbox) ReceiveComplete(ctx context.Context) error {
	return in.op.Complete(ctx)
}
