package remote

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

// Transport is the byte streams linking a client to a remote runner.
type Transport interface {
	// Input is the input stream of the runner.
	Input() io.WriteCloser
	// Output is the output stream of the runner.
	Output() io.Reader
	// Wait waits for the runner to exit.
	Wait() error
}

// Session is one pipeline running on a remote runner.
type Session struct {
	ID uuid.UUID

	transport Transport
	dec       *msgpack.Decoder
	logger    *slog.Logger

	mu     sync.Mutex
	enc    *msgpack.Encoder
	closed bool
}

// SessionOption configures a Session.
type SessionOption func(s *Session)

// WithSessionLogger sets the logger of the session.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// Start sends the pipeline described by spec to the runner at the other end of t.
// On failure, the runner input is closed and the runner is waited for.
func Start(ctx context.Context, t Transport, snapshot model.EnvSnapshot, spec model.PipelineSpec, opts ...SessionOption) (*Session, error) {
	s := &Session{
		ID:        uuid.New(),
		transport: t,
		dec:       newDecoder(t.Output()),
		enc:       msgpack.NewEncoder(t.Input()),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := ctx.Err(); err != nil {
		_ = s.Close()

		return nil, errors.Wrap(err, "unable to start session")
	}

	for _, v := range []any{model.ProtocolVersion, snapshot, spec} {
		err := s.enc.Encode(v)
		if err != nil {
			_ = s.Close()

			return nil, errors.Wrap(err, "unable to send request")
		}
	}

	s.logger.Debug("session started", slog.String("session", s.ID.String()), slog.Int("ops", len(spec.Ops)))

	return s, nil
}

// Next returns the next output item, a model.Row or a *model.Error.
// It returns io.EOF once the remote command is finished.
func (s *Session) Next() (any, error) {
	r := record{}

	err := s.dec.Decode(&r)
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}

	if err != nil {
		return nil, errors.Wrap(err, "unable to read record")
	}

	return r.value()
}

// Cancel asks the runner to send sig to all its descendants, and to stop the command.
// It does nothing once the session is closed.
func (s *Session) Cancel(sig syscall.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.logger.Debug("cancelling session", slog.String("session", s.ID.String()), slog.String("signal", sig.String()))

	return errors.Wrap(s.enc.EncodeInt(int64(sig)), "unable to send signal")
}

// Close ends the input of the runner, discards its remaining output, and waits
// for it to exit.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return nil
	}

	s.closed = true
	closeErr := s.transport.Input().Close()
	s.mu.Unlock()

	// the runner may block writing its output until someone reads it.
	_, _ = io.Copy(io.Discard, s.transport.Output())

	err := s.transport.Wait()
	if err != nil {
		return errors.Wrap(err, "remote runner failed")
	}

	return errors.Wrap(closeErr, "unable to close the input of the runner")
}
