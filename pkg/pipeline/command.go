package pipeline

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/askiada/go-objshell/pkg/env"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

// Command is one execution of a pipeline. It can only be executed once.
type Command struct {
	ID     uuid.UUID
	Source string

	pipeline *Pipeline
	env      *env.Env
	logger   *slog.Logger
	executed atomic.Bool
}

// CommandOption configures a command.
type CommandOption func(c *Command)

// WithLogger sets the logger of the command.
func WithLogger(logger *slog.Logger) CommandOption {
	return func(c *Command) {
		c.logger = logger
	}
}

// NewCommand creates a command running pipe against e. When e is nil,
// the command runs in the current working directory of the process.
func NewCommand(source string, pipe *Pipeline, e *env.Env, opts ...CommandOption) (*Command, error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}

	if e == nil {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "unable to get working directory")
		}

		e = env.New(cwd)
	}

	cmd := &Command{
		ID:       uuid.New(),
		Source:   source,
		pipeline: pipe,
		env:      e,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(cmd)
	}

	return cmd, nil
}

// Pipeline returns the pipeline of the command.
func (c *Command) Pipeline() *Pipeline {
	return c.pipeline
}

// Execute sets the pipeline up and runs it. It returns the directory variables
// of the environment, which ops may have changed.
func (c *Command) Execute(ctx context.Context) (map[string]any, error) {
	if c.executed.Swap(true) {
		return nil, ErrCommandExecuted
	}

	start := time.Now()
	logger := c.logger.With(slog.String("command", c.ID.String()))
	logger.Debug("executing command", slog.String("source", c.Source), slog.String("pipeline", c.pipeline.String()))

	c.pipeline.SetEnv(c.env)

	err := c.pipeline.Setup1()
	if err != nil {
		return nil, errors.Wrap(err, "unable to set up pipeline")
	}

	err = c.pipeline.Setup2()
	if err != nil {
		return nil, errors.Wrap(err, "unable to set up pipeline")
	}

	err = c.pipeline.Run(ctx)
	if err != nil {
		logger.Debug("command aborted", slog.String("error", err.Error()), slog.Duration("elapsed", time.Since(start)))

		return nil, err
	}

	err = c.pipeline.finish()
	if err != nil {
		return nil, err
	}

	logger.Debug("command executed", slog.Duration("elapsed", time.Since(start)))

	return c.env.Dirs().DirectoryVars(), nil
}

func (c *Command) String() string {
	return c.pipeline.String()
}

// NoopErrorHandler ignores row failures, for pipelines whose errors end up in their output.
func NoopErrorHandler(*env.Env, *model.Error) {}

// LogErrorHandler logs every row failure.
func LogErrorHandler(logger *slog.Logger) ErrorHandler {
	return func(_ *env.Env, rowErr *model.Error) {
		logger.Warn("row error", slog.String("error", rowErr.String()))
	}
}
