package remote

import (
	"context"
	"log/slog"
	"slices"
	"syscall"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/askiada/go-objshell/internal/store"
)

// Proc is one entry of the process table.
type Proc struct {
	Pid  int32
	Ppid int32
}

// ProcessTable lists and signals the processes of the host.
type ProcessTable interface {
	Processes(ctx context.Context) ([]Proc, error)
	Signal(ctx context.Context, pid int32, sig syscall.Signal) error
}

// HostProcesses is the process table of the host.
type HostProcesses struct{}

func (HostProcesses) Processes(ctx context.Context) ([]Proc, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "unable to list processes")
	}

	out := make([]Proc, 0, len(procs))
	for _, p := range procs {
		ppid, err := p.PpidWithContext(ctx)
		if err != nil {
			// the process is gone.
			continue
		}

		out = append(out, Proc{Pid: p.Pid, Ppid: ppid})
	}

	return out, nil
}

func (HostProcesses) Signal(ctx context.Context, pid int32, sig syscall.Signal) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return errors.Wrapf(err, "unable to find process %d", pid)
	}

	return errors.Wrapf(p.SendSignalWithContext(ctx, sig), "unable to signal process %d", pid)
}

// Sweeper signals the descendants of a process.
type Sweeper struct {
	table  ProcessTable
	logger *slog.Logger
}

// SweeperOption configures a Sweeper.
type SweeperOption func(s *Sweeper)

// WithProcessTable sets the process table, HostProcesses by default.
func WithProcessTable(table ProcessTable) SweeperOption {
	return func(s *Sweeper) {
		s.table = table
	}
}

// WithSweeperLogger sets the logger reporting the processes which could not be signalled.
func WithSweeperLogger(logger *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

// NewSweeper creates a Sweeper.
func NewSweeper(opts ...SweeperOption) *Sweeper {
	s := &Sweeper{table: HostProcesses{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func pidHash(pid int32) int32 {
	return pid
}

// Descendants returns the pids of the processes descending from root, sorted.
// root itself is never part of the result.
func (s *Sweeper) Descendants(ctx context.Context, root int32) ([]int32, error) {
	procs, err := s.table.Processes(ctx)
	if err != nil {
		return nil, err
	}

	tree := graph.NewWithStore(pidHash, store.New[int32, int32](), graph.Directed(), graph.Tree())

	for _, p := range procs {
		err = tree.AddVertex(p.Pid)
		if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, errors.Wrapf(err, "unable to add process %d", p.Pid)
		}
	}

	for _, p := range procs {
		if p.Ppid == p.Pid {
			continue
		}

		err = tree.AddEdge(p.Ppid, p.Pid)
		if err != nil && !errors.Is(err, graph.ErrVertexNotFound) && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			s.logger.Debug("process left out of the tree", slog.Int("pid", int(p.Pid)), slog.String("error", err.Error()))
		}
	}

	descendants := []int32{}

	if _, err = tree.Vertex(root); err != nil {
		// root has exited already.
		return descendants, nil
	}

	err = graph.DFS(tree, root, func(pid int32) bool {
		if pid != root {
			descendants = append(descendants, pid)
		}

		return false
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to walk the process tree")
	}

	slices.Sort(descendants)

	return descendants, nil
}

// Sweep sends sig to every descendant of root. A process which cannot be signalled
// is logged and skipped.
func (s *Sweeper) Sweep(ctx context.Context, root int32, sig syscall.Signal) error {
	pids, err := s.Descendants(ctx, root)
	if err != nil {
		return err
	}

	s.logger.Debug("sweeping descendants", slog.Int("root", int(root)), slog.Int("count", len(pids)), slog.String("signal", sig.String()))

	for _, pid := range pids {
		err = s.table.Signal(ctx, pid, sig)
		if err != nil {
			s.logger.Warn("unable to signal process", slog.Int("pid", int(pid)), slog.String("error", err.Error()))
		}
	}

	return nil
}
