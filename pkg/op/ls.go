package op

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

// LsOptions selects what ls lists. With no depth flag, ls lists the given
// directories and their children. With no kind flag, every kind is listed.
type LsOptions struct {
	Depth0    bool
	Depth1    bool
	Recursive bool
	Files     bool
	Dirs      bool
	Symlinks  bool
}

// Ls lists paths, each one as a *File row. Paths are glob patterns relative to the
// current directory. Without path, the children of the current directory are listed.
// A path is never sent twice.
type Ls struct {
	pipeline.Base
	opts     LsOptions
	patterns []string
}

func newLs(args []string, _ []*pipeline.Pipeline) (pipeline.Op, error) {
	fs := newFlagSet("ls")
	opts := LsOptions{}
	fs.BoolVar(&opts.Depth0, "0", false, "do not descend into directories")
	fs.BoolVar(&opts.Depth1, "1", false, "descend into the given directories")
	fs.BoolVar(&opts.Recursive, "r", false, "descend into all directories")
	fs.BoolVar(&opts.Files, "f", false, "list files")
	fs.BoolVar(&opts.Dirs, "d", false, "list directories")
	fs.BoolVar(&opts.Symlinks, "s", false, "list symbolic links")

	patterns, err := parseFlags(fs, args)
	if err != nil {
		return nil, err
	}

	return NewLs(opts, patterns...)
}

// NewLs creates an ls op.
func NewLs(opts LsOptions, patterns ...string) (*Ls, error) {
	depths := 0
	for _, set := range []bool{opts.Depth0, opts.Depth1, opts.Recursive} {
		if set {
			depths++
		}
	}

	if depths > 1 {
		return nil, pipeline.InvalidArgument("ls", "-0, -1 and -r are mutually exclusive")
	}

	return &Ls{Base: pipeline.NewBase("ls"), opts: opts, patterns: patterns}, nil
}

func (l *Ls) MustBeFirst() bool {
	return true
}

func (l *Ls) Receive(ctx context.Context, _ model.Row) error {
	return l.Run(ctx)
}

func (l *Ls) Run(ctx context.Context) error {
	dirs := l.Env().Dirs()
	opts := l.opts

	if !opts.Depth0 && !opts.Recursive {
		opts.Depth1 = true
	}

	if !opts.Files && !opts.Dirs && !opts.Symlinks {
		opts.Files, opts.Dirs, opts.Symlinks = true, true, true
	}

	w := &lsWalker{ls: l, opts: opts, emitted: map[string]struct{}{}, entered: map[string]struct{}{}}

	if len(l.patterns) == 0 {
		w.base = dirs.Pwd()

		// the current directory itself is only listed at depth 0.
		return w.visit(ctx, dirs.Pwd(), 0, opts.Depth0)
	}

	roots := []string{}

	for _, pattern := range l.patterns {
		matches, err := filepath.Glob(dirs.Resolve(pattern))
		if err != nil {
			return pipeline.InvalidArgument("ls", "bad pattern %q", pattern)
		}

		if len(matches) == 0 {
			err = l.SendError(ctx, l.NonFatal(nil, "no such file or directory: "+pattern, nil))
			if err != nil {
				return err
			}
		}

		roots = append(roots, matches...)
	}

	sort.Strings(roots)

	if len(roots) == 1 {
		w.base = roots[0]
		if info, err := os.Stat(roots[0]); err != nil || !info.IsDir() {
			w.base = filepath.Dir(roots[0])
		}
	}

	for _, root := range roots {
		err := w.visit(ctx, root, 0, true)
		if err != nil {
			return err
		}
	}

	return nil
}

func (l *Ls) Spec() (model.OpSpec, error) {
	args := []string{}

	for flag, set := range map[string]bool{
		"-0": l.opts.Depth0, "-1": l.opts.Depth1, "-r": l.opts.Recursive,
		"-f": l.opts.Files, "-d": l.opts.Dirs, "-s": l.opts.Symlinks,
	} {
		if set {
			args = append(args, flag)
		}
	}

	sort.Strings(args)

	return model.OpSpec{Op: "ls", Args: append(args, l.patterns...)}, nil
}

func (l *Ls) Clone() pipeline.Op {
	return &Ls{Base: l.CloneBase(), opts: l.opts, patterns: append([]string(nil), l.patterns...)}
}

type lsWalker struct {
	ls      *Ls
	opts    LsOptions
	base    string
	emitted map[string]struct{}
	entered map[string]struct{}
}

func (w *lsWalker) visit(ctx context.Context, path string, level int, emit bool) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "ls interrupted")
	}

	path = filepath.Clean(path)

	_, err := os.Lstat(path)
	if err != nil {
		return w.ls.SendError(ctx, w.ls.NonFatal(nil, path+": no such file or directory", err))
	}

	// a broken link resolves to itself.
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}

	if emit {
		err = w.send(ctx, path, resolved)
		if err != nil {
			return err
		}
	}

	// links to directories are followed, each directory is entered once.
	target, err := os.Stat(path)
	if err != nil || !target.IsDir() || !(w.opts.Recursive || (level == 0 && w.opts.Depth1)) {
		return nil
	}

	if _, ok := w.entered[resolved]; ok {
		return nil
	}

	w.entered[resolved] = struct{}{}

	entries, err := os.ReadDir(path)
	if err != nil {
		return w.ls.SendError(ctx, w.ls.NonFatal(nil, path+": unable to read directory", err))
	}

	for _, entry := range entries {
		err = w.visit(ctx, filepath.Join(path, entry.Name()), level+1, true)
		if err != nil {
			return err
		}
	}

	return nil
}

// send lists path, unless a path with the same resolved path was already listed.
func (w *lsWalker) send(ctx context.Context, path, resolved string) error {
	if _, ok := w.emitted[resolved]; ok {
		return nil
	}

	file, err := newFile(path, w.base)
	if err != nil {
		return w.ls.SendError(ctx, w.ls.NonFatal(nil, "unable to list "+path, err))
	}

	listed := (w.opts.Files && file.Mode.IsRegular()) ||
		(w.opts.Dirs && file.IsDir()) ||
		(w.opts.Symlinks && file.IsSymlink())
	if !listed {
		return nil
	}

	w.emitted[resolved] = struct{}{}

	return w.ls.Send(ctx, model.Row{file})
}
