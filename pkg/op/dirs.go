package op

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-objshell/pkg/env"
	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

type dirAction func(dirs *env.DirState, dir string) error

// DirOp changes the directory state of the environment: cd, pushd, popd and dirs.
// Every one but cd sends the directory stack afterwards, current directory first.
type DirOp struct {
	pipeline.Base
	dir       string
	action    dirAction
	sendStack bool
}

var dirOps = map[string]struct {
	action    dirAction
	maxArgs   int
	sendStack bool
}{
	"cd": {
		action: func(dirs *env.DirState, dir string) error {
			if dir == "" {
				dir = "~"
			}

			return dirs.Cd(dir)
		},
		maxArgs: 1,
	},
	"pushd": {
		action:    (*env.DirState).Pushd,
		maxArgs:   1,
		sendStack: true,
	},
	"popd": {
		action:    func(dirs *env.DirState, _ string) error { return dirs.Popd() },
		sendStack: true,
	},
	"dirs": {
		action:    func(dirs *env.DirState, _ string) error { return dirs.Clean() },
		sendStack: true,
	},
}

func newCd(args []string, _ []*pipeline.Pipeline) (pipeline.Op, error) {
	return NewDirOp("cd", args...)
}

func newPushd(args []string, _ []*pipeline.Pipeline) (pipeline.Op, error) {
	return NewDirOp("pushd", args...)
}

func newPopd(args []string, _ []*pipeline.Pipeline) (pipeline.Op, error) {
	return NewDirOp("popd", args...)
}

func newDirs(args []string, _ []*pipeline.Pipeline) (pipeline.Op, error) {
	return NewDirOp("dirs", args...)
}

// NewDirOp creates the directory op called name.
func NewDirOp(name string, args ...string) (*DirOp, error) {
	def, ok := dirOps[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownOp, name)
	}

	if len(args) > def.maxArgs {
		return nil, pipeline.InvalidArgument(name, "too many arguments")
	}

	op := &DirOp{Base: pipeline.NewBase(name), action: def.action, sendStack: def.sendStack}
	if len(args) == 1 {
		op.dir = args[0]
	}

	return op, nil
}

func (d *DirOp) MustBeFirst() bool {
	return true
}

func (d *DirOp) Receive(ctx context.Context, _ model.Row) error {
	return d.Run(ctx)
}

func (d *DirOp) Run(ctx context.Context) error {
	dirs := d.Env().Dirs()

	err := d.action(dirs, d.dir)
	switch {
	case errors.Is(err, env.ErrDirsRemoved):
		// the stack has been cleaned, the command goes on.
		sendErr := d.SendError(ctx, d.NonFatal(nil, "directory stack changed", err))
		if sendErr != nil {
			return sendErr
		}
	case err != nil:
		return err
	}

	if !d.sendStack {
		return nil
	}

	for _, dir := range dirs.Stack() {
		err = d.Send(ctx, model.Row{dir})
		if err != nil {
			return err
		}
	}

	return nil
}

func (d *DirOp) Spec() (model.OpSpec, error) {
	spec := model.OpSpec{Op: d.Name()}
	if d.dir != "" {
		spec.Args = []string{d.dir}
	}

	return spec, nil
}

func (d *DirOp) Clone() pipeline.Op {
	return &DirOp{Base: d.CloneBase(), dir: d.dir, action: d.action, sendStack: d.sendStack}
}
