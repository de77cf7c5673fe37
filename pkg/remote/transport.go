package remote

import (
	"context"
	"io"
	"os/exec"

	"github.com/pkg/errors"
)

// ExecTransport runs the remote runner as a child process, for instance
// "ssh HOST objsh serve".
type ExecTransport struct {
	cmd    *exec.Cmd
	input  io.WriteCloser
	output io.Reader
}

// NewExecTransport starts the command name with args. The command is not bound to ctx:
// a session is stopped with Session.Cancel, which reaches the remote descendants.
func NewExecTransport(ctx context.Context, name string, args ...string) (*ExecTransport, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to start runner")
	}

	cmd := exec.Command(name, args...)

	input, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "unable to open runner input")
	}

	output, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "unable to open runner output")
	}

	err = cmd.Start()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to start %s", name)
	}

	return &ExecTransport{cmd: cmd, input: input, output: output}, nil
}

func (t *ExecTransport) Input() io.WriteCloser {
	return t.input
}

func (t *ExecTransport) Output() io.Reader {
	return t.output
}

func (t *ExecTransport) Wait() error {
	return errors.Wrap(t.cmd.Wait(), "runner exited")
}

// LocalTransport runs a server in the current process, on a goroutine.
type LocalTransport struct {
	input  *io.PipeWriter
	output *io.PipeReader
	done   chan error
}

// NewLocalTransport starts serving on server.
func NewLocalTransport(ctx context.Context, server *Server) *LocalTransport {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	t := &LocalTransport{input: inW, output: outR, done: make(chan error, 1)}

	go func() {
		err := server.Serve(ctx, inR, outW)
		// unblock the client if the server stopped early.
		_ = inR.CloseWithError(io.ErrClosedPipe)
		_ = outW.Close()
		t.done <- err
	}()

	return t
}

func (t *LocalTransport) Input() io.WriteCloser {
	return t.input
}

func (t *LocalTransport) Output() io.Reader {
	return t.output
}

func (t *LocalTransport) Wait() error {
	return <-t.done
}
