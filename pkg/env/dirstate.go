package env

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotDirectory = errors.New("not a directory")
	ErrDirsRemoved  = errors.New("directories removed from the directory stack")
)

// DirState manipulates PWD and the DIRS stack of an environment.
// The top of the stack is always PWD. The process working directory is not touched:
// ops resolve relative paths against Pwd.
type DirState struct {
	env *Env
}

// Pwd returns the current directory.
func (d *DirState) Pwd() string {
	pwd, _ := d.env.vars[PWD].(string)

	return pwd
}

// Resolve makes path absolute relative to the current directory, and cleans it.
func (d *DirState) Resolve(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + path[1:]
		}
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(d.Pwd(), path)
	}

	return filepath.Clean(path)
}

// Cd replaces the top of the stack with dir.
func (d *DirState) Cd(dir string) error {
	target, err := d.checkDir(dir)
	if err != nil {
		return err
	}

	stack := d.env.stack()
	if len(stack) == 0 {
		stack = []string{target}
	} else {
		stack = slices.Clone(stack)
		stack[len(stack)-1] = target
	}

	d.set(stack)

	return nil
}

// Pushd pushes dir and makes it the current directory. With an empty dir,
// the top two entries are swapped.
func (d *DirState) Pushd(dir string) error {
	err := d.Clean()
	if err != nil {
		return err
	}

	// work on a copy, the stack only changes once the target is known to be valid.
	stack := slices.Clone(d.env.stack())

	if dir == "" {
		if len(stack) > 1 {
			stack[len(stack)-1], stack[len(stack)-2] = stack[len(stack)-2], stack[len(stack)-1]
		}
	} else {
		target, err := d.checkDir(dir)
		if err != nil {
			return err
		}

		stack = append(stack, target)
	}

	d.set(stack)

	return nil
}

// Popd drops the top of the stack, the new top becomes the current directory.
func (d *DirState) Popd() error {
	err := d.Clean()
	if err != nil {
		return err
	}

	stack := d.env.stack()
	if len(stack) > 1 {
		d.set(slices.Clone(stack[:len(stack)-1]))
	}

	return nil
}

// Stack returns the directory stack, current directory first.
func (d *DirState) Stack() []string {
	stack := slices.Clone(d.env.stack())
	slices.Reverse(stack)

	return stack
}

// DirectoryVars returns the variables describing the directory state.
func (d *DirState) DirectoryVars() map[string]any {
	return map[string]any{
		PWD:  d.Pwd(),
		DIRS: slices.Clone(d.env.stack()),
	}
}

func (d *DirState) set(stack []string) {
	d.env.vars[DIRS] = stack
	d.env.vars[PWD] = stack[len(stack)-1]
}

func (d *DirState) checkDir(dir string) (string, error) {
	target := d.Resolve(dir)

	info, err := os.Stat(target)
	if err != nil {
		return "", errors.Wrapf(err, "unable to change directory to %s", target)
	}

	if !info.IsDir() {
		return "", errors.Wrap(ErrNotDirectory, target)
	}

	return target, nil
}

// Clean removes the entries which are no longer accessible directories.
func (d *DirState) Clean() error {
	stack := d.env.stack()
	kept := make([]string, 0, len(stack))
	removed := []string{}

	for _, dir := range stack {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			removed = append(removed, dir)

			continue
		}

		kept = append(kept, dir)
	}

	if len(removed) == 0 {
		return nil
	}

	if len(kept) == 0 {
		kept = []string{string(filepath.Separator)}
	}

	d.set(kept)

	return errors.Wrap(ErrDirsRemoved, strings.Join(removed, ", "))
}
