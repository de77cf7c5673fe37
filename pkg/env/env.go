// Package env holds the variables a command runs against, including the
// directory state (PWD and the DIRS stack) that a command may change and that
// the caller absorbs once the command is finished.
package env

import (
	"maps"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

const (
	PWD  = "PWD"
	DIRS = "DIRS"
)

var ErrMissingPWD = errors.New("environment has no PWD")

// Env is the set of variables visible to the ops of a command.
type Env struct {
	vars map[string]any
}

// New creates an environment whose current directory is cwd.
func New(cwd string) *Env {
	cwd = filepath.Clean(cwd)

	return &Env{
		vars: map[string]any{
			PWD:  cwd,
			DIRS: []string{cwd},
		},
	}
}

// FromSnapshot rebuilds an environment sent by a remote client.
func FromSnapshot(snapshot model.EnvSnapshot) (*Env, error) {
	pwd, ok := snapshot.Vars[PWD].(string)
	if !ok || pwd == "" {
		return nil, ErrMissingPWD
	}

	e := &Env{vars: maps.Clone(snapshot.Vars)}
	if e.vars == nil {
		e.vars = map[string]any{}
	}

	dirs, err := toStrings(snapshot.Vars[DIRS])
	if err != nil {
		return nil, errors.Wrap(err, "invalid DIRS")
	}

	if len(dirs) == 0 {
		dirs = []string{pwd}
	}

	e.vars[DIRS] = dirs

	return e, nil
}

// Snapshot returns a copy of the variables, suitable to be sent to a remote runner.
func (e *Env) Snapshot() model.EnvSnapshot {
	vars := maps.Clone(e.vars)
	vars[DIRS] = append([]string(nil), e.stack()...)

	return model.EnvSnapshot{Vars: vars}
}

// Getvar returns the value of a variable.
func (e *Env) Getvar(name string) (any, bool) {
	v, ok := e.vars[name]

	return v, ok
}

// Setvar sets the value of a variable.
func (e *Env) Setvar(name string, value any) {
	e.vars[name] = value
}

// Dirs returns the directory state of the environment.
func (e *Env) Dirs() *DirState {
	return &DirState{env: e}
}

func (e *Env) stack() []string {
	dirs, _ := e.vars[DIRS].([]string)

	return dirs
}

func toStrings(v any) ([]string, error) {
	switch vv := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return append([]string(nil), vv...), nil
	case []any:
		out := make([]string, len(vv))
		for i, x := range vv {
			s, ok := x.(string)
			if !ok {
				return nil, errors.Errorf("entry %d is %T, not a string", i, x)
			}
			out[i] = s
		}

		return out, nil
	default:
		return nil, errors.Errorf("unexpected type %T", v)
	}
}
