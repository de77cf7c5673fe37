package op_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-objshell/pkg/op"
	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

func groupInput() *source {
	return newSource(
		model.Row{int64(1), int64(5)},
		model.Row{int64(1), int64(6)},
		model.Row{int64(2), int64(1)},
	)
}

func TestRedGrouping(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		args     []any
		expected []any
	}{
		"incremental": {
			args: []any{"-i", ".", "+"},
			expected: rows(
				[]any{int64(1), int64(5), int64(5)},
				[]any{int64(1), int64(6), int64(11)},
				[]any{int64(2), int64(1), int64(1)},
			),
		},
		"at the end": {
			args: []any{".", "+"},
			expected: rows(
				[]any{int64(1), int64(11)},
				[]any{int64(2), int64(1)},
			),
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			items := mustCollect(t, groupInput(), mustOp(t, "red", tc.args...))
			assert.Equal(t, tc.expected, items)
		})
	}
}

func TestRedSeveralGroupColumns(t *testing.T) {
	t.Parallel()

	input := newSource(
		model.Row{int64(1), int64(5), int64(10), int64(100)},
		model.Row{int64(1), int64(6), int64(10), int64(200)},
		model.Row{int64(1), int64(4), int64(11), int64(100)},
		model.Row{int64(1), int64(3), int64(11), int64(200)},
		model.Row{int64(2), int64(8), int64(20), int64(100)},
		model.Row{int64(2), int64(9), int64(20), int64(200)},
		model.Row{int64(2), int64(10), int64(20), int64(300)},
		model.Row{int64(3), int64(5), int64(30), int64(100)},
	)

	items := mustCollect(t, input, mustOp(t, "red", ".", "+", ".", "+"))
	assert.Equal(t, rows(
		[]any{int64(1), int64(11), int64(10), int64(300)},
		[]any{int64(1), int64(7), int64(11), int64(300)},
		[]any{int64(2), int64(17), int64(20), int64(300)},
		[]any{int64(3), int64(5), int64(30), int64(100)},
	), items)
}

func TestRedGroupKeys(t *testing.T) {
	t.Parallel()

	t.Run("maps with the same content", func(t *testing.T) {
		t.Parallel()

		input := []model.Row{}
		for range 50 {
			value := map[string]any{"a": int64(1), "b": "x", "c": true, "d": 2.5}
			input = append(input, model.Row{value, int64(1)})
		}

		items := mustCollect(t, newSource(input...), mustOp(t, "red", ".", "count"))
		require.Len(t, items, 1)
		assert.Equal(t, int64(50), items[0].(model.Row)[1])
	})

	t.Run("equal numbers of different types", func(t *testing.T) {
		t.Parallel()

		input := newSource(
			model.Row{int64(1), int64(5)},
			model.Row{float64(1), int64(6)},
			model.Row{int32(1), int64(1)},
			model.Row{1.5, int64(2)},
		)

		items := mustCollect(t, input, mustOp(t, "red", ".", "+"))
		require.Len(t, items, 2)
		assert.Equal(t, int64(12), items[0].(model.Row)[1])
		assert.Equal(t, rows([]any{1.5, int64(2)})[0], items[1])
	})
}

func TestRedFunctions(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		function string
		input    []any
		expected any
	}{
		"sum":            {function: "+", input: []any{int64(1), int64(2), int64(3)}, expected: int64(6)},
		"sum of floats":  {function: "+", input: []any{int64(1), 0.5}, expected: 1.5},
		"concatenation":  {function: "+", input: []any{"a", "b"}, expected: "ab"},
		"product":        {function: "*", input: []any{int64(2), int64(3), int64(4)}, expected: int64(24)},
		"min":            {function: "min", input: []any{int64(3), int64(1), int64(2)}, expected: int64(1)},
		"max of strings": {function: "max", input: []any{"b", "c", "a"}, expected: "c"},
		"count":          {function: "count", input: []any{"x", nil, "y"}, expected: int64(3)},
		"concat":         {function: "concat", input: []any{int64(1), "a"}, expected: []any{int64(1), "a"}},
		"and":            {function: "and", input: []any{true, false, true}, expected: false},
		"or":             {function: "or", input: []any{false, true}, expected: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			input := newSource()
			for _, v := range tc.input {
				input.rows = append(input.rows, model.Row{v})
			}

			items := mustCollect(t, input, mustOp(t, "red", tc.function))
			assert.Equal(t, rows([]any{tc.expected}), items)
		})
	}
}

func TestRedNoInput(t *testing.T) {
	t.Parallel()

	items := mustCollect(t, newSource(), mustOp(t, "red", "+", "count"))
	assert.Equal(t, rows([]any{nil, nil}), items)

	items = mustCollect(t, newSource(), mustOp(t, "red", ".", "+"))
	assert.Empty(t, items)
}

func TestRedRowErrors(t *testing.T) {
	t.Parallel()

	input := newSource(
		model.Row{"a", int64(1)},
		model.Row{"a"},
		model.Row{"a", "x"},
		model.Row{"a", int64(2)},
	)

	items := mustCollect(t, input, mustOp(t, "red", "-i", ".", "+"))
	require.Len(t, items, 4)

	assert.Equal(t, model.Row{"a", int64(1), int64(1)}, items[0])
	assert.IsType(t, &model.Error{}, items[1])
	assert.IsType(t, &model.Error{}, items[2])
	// the failed rows left the accumulator untouched.
	assert.Equal(t, model.Row{"a", int64(2), int64(3)}, items[3])

	rowErr := items[2].(*model.Error)
	require.ErrorIs(t, rowErr.Cause(), op.ErrIncompatibleTypes)
}

func TestRedArguments(t *testing.T) {
	t.Parallel()

	tcs := map[string][]any{
		"no function":      {},
		"unknown function": {"avg"},
		"unknown flag":     {"-x", "+"},
	}

	for name, args := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := op.New("red", args...)
			require.ErrorIs(t, err, pipeline.ErrInvalidArgument)
		})
	}
}

func TestRedClone(t *testing.T) {
	t.Parallel()

	red, err := op.NewRed(false, ".", "+")
	require.NoError(t, err)

	spec, err := red.Spec()
	require.NoError(t, err)
	assert.Equal(t, model.OpSpec{Op: "red", Args: []string{".", "+"}}, spec)

	first := mustCollect(t, groupInput(), red.Clone())
	second := mustCollect(t, groupInput(), red.Clone())
	assert.Equal(t, first, second)
}
