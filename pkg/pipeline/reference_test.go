package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-objshell/pkg/pipeline"
)

func TestReferenceRoundTrip(t *testing.T) {
	t.Parallel()

	first := mustPipeline(t, newGen(1))
	second := mustPipeline(t, newGen(2))

	texts, pipelines := pipeline.ExtractPipelines([]any{"-i", first, 3, "pipeline", second, "x"})
	assert.Equal(t, []string{"-i", "pipeline:0", "3", "pipeline", "pipeline:1", "x"}, texts)
	require.Len(t, pipelines, 2)

	got, err := pipeline.ResolveReference(texts[1], pipelines)
	require.NoError(t, err)
	assert.Same(t, first, got)

	got, err = pipeline.ResolveReference(texts[4], pipelines)
	require.NoError(t, err)
	assert.Same(t, second, got)
}

func TestResolveReferenceErrors(t *testing.T) {
	t.Parallel()

	pipelines := []*pipeline.Pipeline{mustPipeline(t, newGen(1))}

	tcs := map[string]string{
		"not a reference": "gen",
		"no index":        "pipeline:",
		"not a number":    "pipeline:x",
		"negative":        "pipeline:-1",
		"out of range":    "pipeline:1",
	}

	for name, arg := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := pipeline.ResolveReference(arg, pipelines)
			require.ErrorIs(t, err, pipeline.ErrBadReference)
		})
	}
}
