package measure_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-objshell/pkg/env"
	"github.com/askiada/go-objshell/pkg/op"
	"github.com/askiada/go-objshell/pkg/pipeline"
	"github.com/askiada/go-objshell/pkg/pipeline/measure"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

func TestMetric(t *testing.T) {
	t.Parallel()

	m := measure.NewDefaultMeasure()
	mt := m.AddMetric("1. gen", model.GeneratorOpKind)
	assert.Same(t, mt, m.AddMetric("1. gen", model.TransformerOpKind))
	assert.Equal(t, model.GeneratorOpKind, mt.Kind())
	assert.Zero(t, mt.AVGDuration())

	mt.AddDuration(10 * time.Millisecond)
	mt.AddDuration(30 * time.Millisecond)
	mt.AddError()

	assert.EqualValues(t, 2, mt.Inputs())
	assert.EqualValues(t, 1, mt.Errors())
	assert.Equal(t, 20*time.Millisecond, mt.AVGDuration())
	assert.Equal(t, 40*time.Millisecond, mt.TotalDuration())

	assert.Nil(t, m.Metric("2. red"))
	assert.Len(t, m.AllMetrics(), 1)
}

func TestMetricConcurrent(t *testing.T) {
	t.Parallel()

	m := measure.NewDefaultMeasure()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			m.AddMetric("1. ls", model.GeneratorOpKind).AddDuration(time.Millisecond)
		}()
	}

	wg.Wait()

	assert.EqualValues(t, 10, m.Metric("1. ls").Inputs())
}

func TestPipelineMeasure(t *testing.T) {
	t.Parallel()

	m := measure.NewDefaultMeasure()

	pipe, err := pipeline.New(measure.PipelineMeasure(m))
	require.NoError(t, err)

	gen, err := op.NewGen(0, 4)
	require.NoError(t, err)
	sel, err := op.NewSelect("1 == 2")
	require.NoError(t, err)

	require.NoError(t, pipe.Append(gen))
	require.NoError(t, pipe.Append(sel))
	pipe.SetErrorHandler(pipeline.NoopErrorHandler)

	cmd, err := pipeline.NewCommand("gen 4 | select 1 == 2", pipe, env.New(t.TempDir()))
	require.NoError(t, err)

	_, err = cmd.Execute(context.Background())
	require.NoError(t, err)

	metrics := m.AllMetrics()
	require.Len(t, metrics, 2)
	assert.Equal(t, model.GeneratorOpKind, metrics["1. gen"].Kind())
	// the generator is driven by Run, not by inputs.
	assert.Zero(t, metrics["1. gen"].Inputs())
	assert.EqualValues(t, 4, metrics["2. select"].Inputs())
	assert.EqualValues(t, 4, metrics["2. select"].Errors())
}
