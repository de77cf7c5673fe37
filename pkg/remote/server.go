package remote

import (
	"context"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-objshell/pkg/env"
	"github.com/askiada/go-objshell/pkg/op"
	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

var ErrVersionMismatch = errors.New("incompatible protocol version")

// DescendantSweeper signals the descendants of a process.
type DescendantSweeper interface {
	Sweep(ctx context.Context, root int32, sig syscall.Signal) error
}

// Server is the remote runner: it executes the pipelines sent by clients.
type Server struct {
	logger  *slog.Logger
	sweeper DescendantSweeper
	root    int32
	version model.Version
}

// ServerOption configures a Server.
type ServerOption func(s *Server)

// WithLogger sets the logger of the server.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSweeper sets what signals the descendants of the runner.
func WithSweeper(sweeper DescendantSweeper) ServerOption {
	return func(s *Server) {
		s.sweeper = sweeper
	}
}

// WithRoot sets the process whose descendants are signalled, the current process by default.
func WithRoot(pid int32) ServerOption {
	return func(s *Server) {
		s.root = pid
	}
}

// WithVersion sets the protocol version spoken by the server.
func WithVersion(version model.Version) ServerOption {
	return func(s *Server) {
		s.version = version
	}
}

// NewServer creates a server.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		logger:  slog.Default(),
		root:    int32(os.Getpid()),
		version: model.ProtocolVersion,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.sweeper == nil {
		s.sweeper = NewSweeper(WithSweeperLogger(s.logger))
	}

	return s
}

type request struct {
	version  model.Version
	snapshot model.EnvSnapshot
	spec     model.PipelineSpec
}

// Serve runs the pipeline read from in, and writes its output on out, which is closed
// once the command is finished. Serve returns once in is exhausted.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.WriteCloser) error {
	dec := newDecoder(in)
	w := newRecordWriter(out)

	req := request{}
	for _, v := range []any{&req.version, &req.snapshot, &req.spec} {
		err := dec.Decode(v)
		if err != nil {
			return s.refuse(ctx, in, out, w, errors.Wrap(err, "unable to decode request"))
		}
	}

	s.logger.Debug("request received", slog.String("version", req.version.String()), slog.Int("ops", len(req.spec.Ops)))

	if !s.version.Compatible(req.version) {
		return s.refuse(ctx, in, out, w, errors.Wrapf(ErrVersionMismatch, "client speaks %s, server speaks %s", req.version, s.version))
	}

	e, err := env.FromSnapshot(req.snapshot)
	if err != nil {
		return s.refuse(ctx, in, out, w, errors.Wrap(err, "invalid environment"))
	}

	pipe, err := op.Build(req.spec)
	if err != nil {
		return s.refuse(ctx, in, out, w, errors.Wrap(err, "invalid pipeline"))
	}

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	g, gctx := errgroup.WithContext(workerCtx)
	g.Go(func() error {
		defer out.Close()

		err := s.work(gctx, pipe, e, w)
		if err != nil {
			s.logger.Debug("command failed", slog.String("error", err.Error()))

			return w.writeError(model.NewError("remote command failed", err))
		}

		return nil
	})

	signals := s.watch(dec)

	select {
	case sig, ok := <-signals:
		if ok {
			s.logger.Debug("signal received", slog.Int("signal", sig))
			// descendants first, they may be blocking the worker.
			s.sweep(ctx, syscall.Signal(sig))
			cancelWorker()

			return s.wait(g)
		}

		s.logger.Debug("input closed")
	case <-ctx.Done():
		cancelWorker()
	}

	err = s.wait(g)
	s.sweep(context.WithoutCancel(ctx), syscall.SIGTERM)

	return err
}

// watch decodes the optional signal number from dec. The channel is closed without
// value at the end of the input.
func (s *Server) watch(dec interface{ DecodeInt() (int, error) }) <-chan int {
	signals := make(chan int, 1)

	go func() {
		defer close(signals)

		sig, err := dec.DecodeInt()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Warn("unable to decode signal", slog.String("error", err.Error()))
			}

			return
		}

		signals <- sig
	}()

	return signals
}

func (s *Server) work(ctx context.Context, pipe *pipeline.Pipeline, e *env.Env, w *recordWriter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()

	err = pipe.Append(newResultWriter(w))
	if err != nil {
		return err
	}

	pipe.SetErrorHandler(pipeline.LogErrorHandler(s.logger))

	cmd, err := pipeline.NewCommand(pipe.String(), pipe, e, pipeline.WithLogger(s.logger))
	if err != nil {
		return err
	}

	_, err = cmd.Execute(ctx)

	return err
}

func (s *Server) wait(g *errgroup.Group) error {
	return errors.Wrap(g.Wait(), "unable to write the output")
}

func (s *Server) sweep(ctx context.Context, sig syscall.Signal) {
	err := s.sweeper.Sweep(ctx, s.root, sig)
	if err != nil {
		s.logger.Warn("unable to signal descendants", slog.String("signal", sig.String()), slog.String("error", err.Error()))
	}
}

// refuse reports err as the only output, then waits for the end of the input.
func (s *Server) refuse(ctx context.Context, in io.Reader, out io.WriteCloser, w *recordWriter, err error) error {
	s.logger.Warn("request refused", slog.String("error", err.Error()))

	writeErr := w.writeError(model.NewError("remote execution refused", err))
	closeErr := out.Close()

	drained := make(chan struct{})
	go func() {
		defer close(drained)

		_, _ = io.Copy(io.Discard, in)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
	}

	switch {
	case writeErr != nil:
		return writeErr
	case closeErr != nil:
		return errors.Wrap(closeErr, "unable to close output")
	default:
		return err
	}
}

// resultWriter is the last op of a remote pipeline, it writes its input on the output stream.
type resultWriter struct {
	pipeline.Base
	w *recordWriter
}

func newResultWriter(w *recordWriter) *resultWriter {
	return &resultWriter{Base: pipeline.NewBase("write"), w: w}
}

func (r *resultWriter) Receive(_ context.Context, row model.Row) error {
	return r.w.writeRow(row)
}

func (r *resultWriter) ReceiveError(_ context.Context, rowErr *model.Error) error {
	return r.w.writeError(rowErr)
}

func (r *resultWriter) Kind() model.OpKind {
	return model.SinkOpKind
}

func (r *resultWriter) Clone() pipeline.Op {
	return newResultWriter(r.w)
}
