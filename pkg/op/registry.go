package op

import (
	"flag"
	"io"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

var ErrUnknownOp = errors.New("unknown op")

// Constructor builds an op from its text arguments. Pipeline arguments are
// referenced from args by "pipeline:N" tokens.
type Constructor func(args []string, pipelines []*pipeline.Pipeline) (pipeline.Op, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{
		"case":        newCase,
		"cd":          newCd,
		"dirs":        newDirs,
		"gen":         newGen,
		"ls":          newLs,
		"popd":        newPopd,
		"pushd":       newPushd,
		"red":         newRed,
		"runpipeline": newRunPipeline,
		"select":      newSelect,
		"timer":       newTimer,
	}
)

// Register makes an op available to New and Build. It replaces any op with the same name.
func Register(name string, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry[name] = constructor
}

// Names returns the names of the registered ops, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// New builds the op called name. args are strings, numbers or *pipeline.Pipeline.
func New(name string, args ...any) (pipeline.Op, error) {
	texts, pipelines := pipeline.ExtractPipelines(args)

	return construct(name, texts, pipelines)
}

// FromSpec builds an op from its serializable form.
func FromSpec(spec model.OpSpec) (pipeline.Op, error) {
	pipelines := make([]*pipeline.Pipeline, 0, len(spec.Pipelines))

	for i, nestedSpec := range spec.Pipelines {
		nested, err := Build(nestedSpec)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to build pipeline %d of %s", i, spec.Op)
		}

		pipelines = append(pipelines, nested)
	}

	return construct(spec.Op, spec.Args, pipelines)
}

// Build builds a pipeline from its serializable form. The options only observe
// the top-level pipeline.
func Build(spec model.PipelineSpec, opts ...model.PipelineOption) (*pipeline.Pipeline, error) {
	pipe, err := pipeline.New(opts...)
	if err != nil {
		return nil, err
	}

	for _, opSpec := range spec.Ops {
		op, err := FromSpec(opSpec)
		if err != nil {
			return nil, err
		}

		err = pipe.Append(op)
		if err != nil {
			return nil, err
		}
	}

	if pipe.Len() == 0 {
		return nil, pipeline.ErrEmptyPipeline
	}

	return pipe, nil
}

func construct(name string, args []string, pipelines []*pipeline.Pipeline) (pipeline.Op, error) {
	registryMu.RLock()
	constructor, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, errors.Wrap(ErrUnknownOp, name)
	}

	return constructor(args, pipelines)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	return fs
}

// parseFlags parses the leading flags of args and returns the remaining arguments.
func parseFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	err := fs.Parse(args)
	if err != nil {
		return nil, pipeline.InvalidArgument(fs.Name(), "%s", err)
	}

	return fs.Args(), nil
}

// specs returns the serializable form of pipelines.
func specs(pipelines ...*pipeline.Pipeline) ([]model.PipelineSpec, error) {
	out := make([]model.PipelineSpec, 0, len(pipelines))

	for _, pipe := range pipelines {
		spec, err := pipe.Spec()
		if err != nil {
			return nil, err
		}

		out = append(out, spec)
	}

	return out, nil
}
