// Command objsh runs object pipelines described in a YAML file, and serves
// the pipelines sent by remote ops.
//
//	objsh run -config pipeline.yml [-metrics] [-draw graph.dot]
//	objsh serve [-config objsh.yml]
//	objsh draw -config pipeline.yml [-o graph.dot]
//	objsh ops
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/pkg/errors"

	"github.com/askiada/go-objshell/internal/config"
	"github.com/askiada/go-objshell/pkg/op"
	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/drawer"
	"github.com/askiada/go-objshell/pkg/pipeline/measure"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
	"github.com/askiada/go-objshell/pkg/remote"
)

var errUsage = errors.New("usage: objsh run|serve|draw|ops [flags]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "objsh: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.WriteCloser, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "run":
		return runPipeline(ctx, args[1:], stdout, stderr)
	case "serve":
		return serve(ctx, args[1:], stdin, stdout, stderr)
	case "draw":
		return draw(args[1:], stdout, stderr)
	case "ops":
		_, _, err := setup("", stderr)
		if err != nil {
			return err
		}

		for _, name := range op.Names() {
			fmt.Fprintln(stdout, name)
		}

		return nil
	default:
		return errors.Wrap(errUsage, args[0])
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}

	return config.Load(path)
}

func setup(path string, stderr io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, nil, err
	}

	logger, err := cfg.Logger(stderr)
	if err != nil {
		return nil, nil, err
	}

	dialer := remote.CommandDialer(cfg.Remote.Command)
	if cfg.Remote.Local {
		dialer = remote.LocalDialer(remote.NewServer(remote.WithLogger(logger)))
	}

	remote.RegisterOp(dialer, logger)

	return cfg, logger, nil
}

func runPipeline(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "configuration file")
	withMetrics := fs.Bool("metrics", false, "log the metrics of every op")
	drawPath := fs.String("draw", "", "write the DOT graph of the pipeline to this file")

	err := fs.Parse(args)
	if err != nil {
		return err
	}

	cfg, logger, err := setup(*configPath, stderr)
	if err != nil {
		return err
	}

	opts := []model.PipelineOption{}
	m := measure.NewDefaultMeasure()

	if *withMetrics || *drawPath != "" {
		opts = append(opts, measure.PipelineMeasure(m))
	}

	if *drawPath != "" {
		f, err := os.Create(*drawPath)
		if err != nil {
			return errors.Wrap(err, "unable to create graph file")
		}
		defer f.Close()

		opts = append(opts, drawer.PipelineDrawer(drawer.NewDOTDrawer(), m, f))
	}

	pipe, err := op.Build(cfg.Pipeline, opts...)
	if err != nil {
		return err
	}

	pipe.SetErrorHandler(pipeline.LogErrorHandler(logger))

	err = pipe.Append(newPrinter(stdout))
	if err != nil {
		return err
	}

	e, err := cfg.Env()
	if err != nil {
		return err
	}

	cmd, err := pipeline.NewCommand(pipe.String(), pipe, e, pipeline.WithLogger(logger))
	if err != nil {
		return err
	}

	vars, err := cmd.Execute(ctx)
	if err != nil {
		return err
	}

	logger.Debug("command finished", slog.Any("pwd", vars["PWD"]), slog.Any("dirs", vars["DIRS"]))

	if *withMetrics {
		logMetrics(logger, m)
	}

	return nil
}

func logMetrics(logger *slog.Logger, m measure.Measure) {
	metrics := m.AllMetrics()

	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		mt := metrics[name]
		logger.Info("op metrics",
			slog.String("op", name),
			slog.Int64("inputs", mt.Inputs()),
			slog.Int64("errors", mt.Errors()),
			slog.Duration("avg", mt.AVGDuration()),
			slog.Duration("total", mt.TotalDuration()),
		)
	}
}

func serve(ctx context.Context, args []string, stdin io.Reader, stdout io.WriteCloser, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "configuration file")

	err := fs.Parse(args)
	if err != nil {
		return err
	}

	_, logger, err := setup(*configPath, stderr)
	if err != nil {
		return err
	}

	return remote.NewServer(remote.WithLogger(logger)).Serve(ctx, stdin, stdout)
}

func draw(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("draw", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "configuration file")
	outPath := fs.String("o", "", "output file, stdout when empty")

	err := fs.Parse(args)
	if err != nil {
		return err
	}

	cfg, _, err := setup(*configPath, stderr)
	if err != nil {
		return err
	}

	out := stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return errors.Wrap(err, "unable to create graph file")
		}
		defer f.Close()

		out = f
	}

	d := drawer.NewDOTDrawer()

	pipe, err := op.Build(cfg.Pipeline, drawer.PipelineDrawer(d, nil, out))
	if err != nil {
		return err
	}

	pipe.SetErrorHandler(pipeline.NoopErrorHandler)

	// the first setup phase is enough to know the ops and their links.
	err = pipe.Setup1()
	if err != nil {
		return err
	}

	return d.Draw(out)
}

// printer writes every row and error value to w, one per line.
type printer struct {
	pipeline.Base
	w io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{Base: pipeline.NewBase("print"), w: w}
}

func (p *printer) Receive(_ context.Context, row model.Row) error {
	_, err := fmt.Fprintln(p.w, row)

	return errors.Wrap(err, "unable to print row")
}

func (p *printer) ReceiveError(_ context.Context, rowErr *model.Error) error {
	_, err := fmt.Fprintln(p.w, rowErr)

	return errors.Wrap(err, "unable to print error")
}

func (p *printer) Kind() model.OpKind {
	return model.SinkOpKind
}

func (p *printer) Clone() pipeline.Op {
	return &printer{Base: p.CloneBase(), w: p.w}
}
