package remote

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-objshell/pkg/op"
	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

// HostPlaceholder is replaced by the host name in the command of a CommandDialer.
const HostPlaceholder = "{host}"

// Dialer opens a transport to the runner of host.
type Dialer func(ctx context.Context, host string) (Transport, error)

// CommandDialer runs command, with HostPlaceholder replaced by the host name,
// for instance "ssh {host} objsh serve".
func CommandDialer(command []string) Dialer {
	return func(ctx context.Context, host string) (Transport, error) {
		if len(command) == 0 {
			return nil, errors.New("no remote command configured")
		}

		args := make([]string, len(command))
		for i, arg := range command {
			args[i] = strings.ReplaceAll(arg, HostPlaceholder, host)
		}

		return NewExecTransport(ctx, args[0], args[1:]...)
	}
}

// LocalDialer serves every host with server, in the current process. As with a
// child process, the server is only stopped through the session.
func LocalDialer(server *Server) Dialer {
	return func(ctx context.Context, _ string) (Transport, error) {
		return NewLocalTransport(context.WithoutCancel(ctx), server), nil
	}
}

// RegisterOp makes the remote op available to op.New and op.Build, connecting with dialer.
func RegisterOp(dialer Dialer, logger *slog.Logger) {
	op.Register("remote", func(args []string, pipelines []*pipeline.Pipeline) (pipeline.Op, error) {
		if len(args) < 2 {
			return nil, pipeline.InvalidArgument("remote", "expected hosts and a pipeline")
		}

		template, err := pipeline.ResolveReference(args[len(args)-1], pipelines)
		if err != nil {
			return nil, err
		}

		return NewRemote(dialer, logger, template, args[:len(args)-1]...)
	})
}

// Remote runs a pipeline on several hosts at once. Every row is sent prefixed with
// the name of its host, errors are labelled with it.
type Remote struct {
	pipeline.Base
	hosts    []string
	template *pipeline.Pipeline
	dialer   Dialer
	logger   *slog.Logger
}

// NewRemote creates a remote op.
func NewRemote(dialer Dialer, logger *slog.Logger, template *pipeline.Pipeline, hosts ...string) (*Remote, error) {
	if len(hosts) == 0 {
		return nil, pipeline.InvalidArgument("remote", "no host given")
	}

	for _, host := range hosts {
		if pipeline.IsReference(host) {
			return nil, pipeline.InvalidArgument("remote", "expected one pipeline")
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Remote{
		Base:     pipeline.NewBase("remote"),
		hosts:    hosts,
		template: template,
		dialer:   dialer,
		logger:   logger,
	}, nil
}

func (r *Remote) MustBeFirst() bool {
	return true
}

func (r *Remote) Receive(ctx context.Context, _ model.Row) error {
	return r.Run(ctx)
}

type hostItem struct {
	host  string
	value any
	fail  error
}

func (r *Remote) Run(ctx context.Context) error {
	spec, err := r.template.Spec()
	if err != nil {
		return errors.Wrap(err, "unable to send pipeline")
	}

	snapshot := r.Env().Snapshot()
	sessions := &sessionSet{}
	items := make(chan hostItem)

	g := &errgroup.Group{}
	for _, host := range r.hosts {
		g.Go(func() error {
			r.runHost(ctx, host, snapshot, spec, sessions, items)

			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(items)
	}()

	var sendErr error

	interrupted := ctx.Done()
	for {
		select {
		case <-interrupted:
			interrupted = nil
			sessions.cancel(syscall.SIGTERM)
		case item, ok := <-items:
			if !ok {
				if sendErr != nil {
					return sendErr
				}

				if err := ctx.Err(); err != nil {
					return errors.Wrap(err, "remote interrupted")
				}

				return nil
			}

			// drain the sessions once the command is aborted.
			if sendErr != nil {
				continue
			}

			sendErr = r.forward(ctx, item)
			if sendErr != nil {
				sessions.cancel(syscall.SIGTERM)
			}
		}
	}
}

// runHost runs the pipeline on host, and passes its output to items.
func (r *Remote) runHost(ctx context.Context, host string, snapshot model.EnvSnapshot, spec model.PipelineSpec, sessions *sessionSet, items chan<- hostItem) {
	t, err := r.dialer(ctx, host)
	if err != nil {
		items <- hostItem{host: host, fail: errors.Wrap(err, "unable to reach host")}

		return
	}

	sess, err := Start(ctx, t, snapshot, spec, WithSessionLogger(r.logger))
	if err != nil {
		items <- hostItem{host: host, fail: err}

		return
	}

	sessions.add(sess)

	for {
		v, err := sess.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			items <- hostItem{host: host, fail: err}

			break
		}

		items <- hostItem{host: host, value: v}
	}

	err = sess.Close()
	if err != nil {
		r.logger.Debug("remote session ended with an error", slog.String("host", host), slog.String("error", err.Error()))
	}
}

func (r *Remote) forward(ctx context.Context, item hostItem) error {
	switch v := item.value.(type) {
	case model.Row:
		return r.Send(ctx, model.Row{item.host}.Append(v...))
	case *model.Error:
		return r.SendError(ctx, v.WithLabel(item.host))
	}

	if item.fail != nil {
		return r.SendError(ctx, r.NonFatal(nil, "remote execution failed", item.fail).WithLabel(item.host))
	}

	return nil
}

func (r *Remote) Pipelines() []*pipeline.Pipeline {
	return []*pipeline.Pipeline{r.template}
}

func (r *Remote) Spec() (model.OpSpec, error) {
	nested, err := r.template.Spec()
	if err != nil {
		return model.OpSpec{}, err
	}

	args := append(append([]string(nil), r.hosts...), pipeline.Reference(0))

	return model.OpSpec{Op: "remote", Args: args, Pipelines: []model.PipelineSpec{nested}}, nil
}

func (r *Remote) Clone() pipeline.Op {
	return &Remote{
		Base:     r.CloneBase(),
		hosts:    append([]string(nil), r.hosts...),
		template: r.template.Clone(),
		dialer:   r.dialer,
		logger:   r.logger,
	}
}

// sessionSet holds the open sessions of a remote op, to cancel them.
type sessionSet struct {
	mu        sync.Mutex
	sessions  []*Session
	cancelled syscall.Signal
}

func (s *sessionSet) add(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = append(s.sessions, sess)
	if s.cancelled != 0 {
		_ = sess.Cancel(s.cancelled)
	}
}

func (s *sessionSet) cancel(sig syscall.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled != 0 {
		return
	}

	s.cancelled = sig
	for _, sess := range s.sessions {
		_ = sess.Cancel(sig)
	}
}
