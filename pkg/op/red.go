package op

import (
	"bytes"
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

// GroupMarker marks a grouping column in the function list of red.
const GroupMarker = "."

// reducer folds x into the accumulated value acc. acc is nil for the first value of a group.
type reducer func(acc, x any) (any, error)

var reducers = map[string]reducer{
	"+": func(acc, x any) (any, error) {
		if acc == nil {
			return normalize(x), nil
		}

		return add(acc, x)
	},
	"*": func(acc, x any) (any, error) {
		if acc == nil {
			return normalize(x), nil
		}

		return multiply(acc, x)
	},
	"min": func(acc, x any) (any, error) {
		if acc == nil {
			return normalize(x), nil
		}

		c, err := compare(x, acc)
		if err != nil || c >= 0 {
			return acc, err
		}

		return normalize(x), nil
	},
	"max": func(acc, x any) (any, error) {
		if acc == nil {
			return normalize(x), nil
		}

		c, err := compare(x, acc)
		if err != nil || c <= 0 {
			return acc, err
		}

		return normalize(x), nil
	},
	"count": func(acc, _ any) (any, error) {
		n, _ := acc.(int64)

		return n + 1, nil
	},
	"concat": func(acc, x any) (any, error) {
		values, _ := acc.([]any)
		out := make([]any, len(values), len(values)+1)
		copy(out, values)

		return append(out, x), nil
	},
	"and": func(acc, x any) (any, error) {
		b, ok := x.(bool)
		if !ok {
			return nil, errors.Wrapf(ErrIncompatibleTypes, "and needs a bool, got %T", x)
		}

		if acc == nil {
			return b, nil
		}

		return acc.(bool) && b, nil
	},
	"or": func(acc, x any) (any, error) {
		b, ok := x.(bool)
		if !ok {
			return nil, errors.Wrapf(ErrIncompatibleTypes, "or needs a bool, got %T", x)
		}

		if acc == nil {
			return b, nil
		}

		return acc.(bool) || b, nil
	},
}

// Red reduces its input with one function per column. Columns marked with GroupMarker
// define groups, reduced independently. In incremental mode, every input is sent
// followed by the current values of its group, otherwise one row per group is sent
// at the end of the stream, in the order the groups were first seen.
type Red struct {
	pipeline.Base
	incremental bool
	functions   []string

	reducers []reducer
	grouping []int
	data     []int

	accumulators map[string]model.Row
	order        []string
}

func newRed(args []string, _ []*pipeline.Pipeline) (pipeline.Op, error) {
	fs := newFlagSet("red")
	incremental := fs.Bool("i", false, "send the partially reduced values for every input")

	functions, err := parseFlags(fs, args)
	if err != nil {
		return nil, err
	}

	return NewRed(*incremental, functions...)
}

// NewRed creates a red op.
func NewRed(incremental bool, functions ...string) (*Red, error) {
	if len(functions) == 0 {
		return nil, pipeline.InvalidArgument("red", "no function given")
	}

	for _, function := range functions {
		if _, ok := reducers[function]; !ok && function != GroupMarker {
			return nil, pipeline.InvalidArgument("red", "unknown function %q", function)
		}
	}

	return &Red{
		Base:        pipeline.NewBase("red"),
		incremental: incremental,
		functions:   functions,
	}, nil
}

func (r *Red) Setup1() error {
	r.reducers = make([]reducer, len(r.functions))
	r.grouping = nil
	r.data = nil

	for i, function := range r.functions {
		if function == GroupMarker {
			r.grouping = append(r.grouping, i)

			continue
		}

		r.reducers[i] = reducers[function]
		r.data = append(r.data, i)
	}

	r.accumulators = map[string]model.Row{}
	r.order = nil

	return nil
}

func (r *Red) Receive(ctx context.Context, row model.Row) error {
	if len(row) < len(r.functions) {
		return r.Fatal(row, "input has fewer values than there are functions", nil)
	}

	key, err := r.groupKey(row)
	if err != nil {
		return r.Fatal(row, "unable to build group key", err)
	}

	acc, seen := r.accumulators[key]
	if !seen {
		acc = make(model.Row, len(r.functions))
	}

	// the accumulator only changes once every column has been reduced.
	next := make(model.Row, len(acc))

	for i, red := range r.reducers {
		if red == nil {
			next[i] = row[i]

			continue
		}

		next[i], err = red(acc[i], row[i])
		if err != nil {
			return r.Fatal(row, r.functions[i]+" failed", err)
		}
	}

	if !seen {
		r.order = append(r.order, key)
	}

	r.accumulators[key] = next

	if !r.incremental {
		return nil
	}

	out := row.Copy()
	for _, i := range r.data {
		out = append(out, next[i])
	}

	return r.Send(ctx, out)
}

func (r *Red) Complete(ctx context.Context) error {
	if !r.incremental {
		if len(r.order) == 0 && len(r.grouping) == 0 {
			err := r.Send(ctx, make(model.Row, len(r.functions)))
			if err != nil {
				return err
			}
		}

		for _, key := range r.order {
			err := r.Send(ctx, r.accumulators[key].Copy())
			if err != nil {
				return err
			}
		}
	}

	return r.SendComplete(ctx)
}

func (r *Red) groupKey(row model.Row) (string, error) {
	if len(r.grouping) == 0 {
		return "", nil
	}

	values := make([]any, len(r.grouping))
	for i, col := range r.grouping {
		values[i] = groupValue(row[col])
	}

	buf := &bytes.Buffer{}
	enc := msgpack.NewEncoder(buf)
	enc.SetSortMapKeys(true)

	err := enc.Encode(values)
	if err != nil {
		return "", errors.Wrap(err, "unable to encode group")
	}

	return buf.String(), nil
}

// groupValue makes equal numbers equal keys: an integral float is the same group as the integer.
func groupValue(v any) any {
	v = normalize(v)

	f, ok := v.(float64)
	if ok && f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f)
	}

	return v
}

func (r *Red) Spec() (model.OpSpec, error) {
	args := []string{}
	if r.incremental {
		args = append(args, "-i")
	}

	return model.OpSpec{Op: "red", Args: append(args, r.functions...)}, nil
}

func (r *Red) Clone() pipeline.Op {
	return &Red{
		Base:        r.CloneBase(),
		incremental: r.incremental,
		functions:   append([]string(nil), r.functions...),
	}
}
