package pipeline

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

var (
	ErrPipelineMustBeSet = errors.New("pipeline must be set")
	ErrOpMustBeSet       = errors.New("op must be set")
	ErrOpAlreadyOwned    = errors.New("op already belongs to a pipeline")
	ErrEmptyPipeline     = errors.New("pipeline has no op")
	ErrNoErrorHandler    = errors.New("pipeline has no error handler")
	ErrMustBeFirst       = errors.New("op cannot receive input from a pipe")
	ErrNotSetUp          = errors.New("pipeline is not set up")
	ErrCommandExecuted   = errors.New("command already executed")
	ErrNotSerializable   = errors.New("op cannot be serialized")
	ErrInvalidArgument   = errors.New("invalid argument")
)

// RowAbort aborts the processing of the current input only.
// It is returned by Op.Receive and caught at the input boundary: the wrapped Error
// goes to the ReceiveError method of the op, and the next input is processed normally.
type RowAbort struct {
	Err *model.Error
}

func (ra *RowAbort) Error() string {
	return ra.Err.String()
}

// InvalidArgument reports a bad argument of an op. It aborts the whole command.
func InvalidArgument(opName, format string, args ...any) error {
	return errors.Wrapf(ErrInvalidArgument, "%s: "+format, append([]any{opName}, args...)...)
}
