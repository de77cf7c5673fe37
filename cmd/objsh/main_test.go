package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error {
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "objsh.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

const sumConfig = `
pipeline:
  ops:
    - op: gen
      args: ["3"]
    - op: red
      args: ["+"]
log:
  level: info
`

func TestRun(t *testing.T) {
	t.Parallel()

	stdout := nopCloser{&bytes.Buffer{}}
	stderr := &bytes.Buffer{}
	dot := filepath.Join(t.TempDir(), "graph.dot")

	err := run(context.Background(), []string{"run", "-config", writeConfig(t, sumConfig), "-metrics", "-draw", dot}, nil, stdout, stderr)
	require.NoError(t, err)

	assert.Equal(t, "(3)\n", stdout.String())
	assert.Contains(t, stderr.String(), "op metrics")
	assert.Contains(t, stderr.String(), `op="2. red" inputs=3 errors=0`)
	assert.Contains(t, stderr.String(), " total=")

	graph, err := os.ReadFile(dot)
	require.NoError(t, err)
	assert.Contains(t, string(graph), `"2. red" -> "3. print"`)
}

func TestRunRowErrors(t *testing.T) {
	t.Parallel()

	config := `
pipeline:
  ops:
    - op: gen
      args: ["2"]
    - op: select
      args: ["1", "==", "0"]
`
	stdout := nopCloser{&bytes.Buffer{}}
	stderr := &bytes.Buffer{}

	err := run(context.Background(), []string{"run", "-config", writeConfig(t, config)}, nil, stdout, stderr)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(stdout.String(), "Error(Running select on"))
	assert.Equal(t, 2, strings.Count(stderr.String(), "row error"))
}

func TestDraw(t *testing.T) {
	t.Parallel()

	stdout := nopCloser{&bytes.Buffer{}}

	err := run(context.Background(), []string{"draw", "-config", writeConfig(t, sumConfig)}, nil, stdout, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), `"start" -> "1. gen"`)
	assert.Contains(t, stdout.String(), `"2. red" -> "end"`)
}

func TestServe(t *testing.T) {
	t.Parallel()

	in := &bytes.Buffer{}
	enc := msgpack.NewEncoder(in)
	require.NoError(t, enc.Encode(model.ProtocolVersion))
	require.NoError(t, enc.Encode(model.EnvSnapshot{Vars: map[string]any{"PWD": t.TempDir()}}))
	require.NoError(t, enc.Encode(model.PipelineSpec{Ops: []model.OpSpec{{Op: "gen", Args: []string{"2"}}}}))

	stdout := nopCloser{&bytes.Buffer{}}

	err := run(context.Background(), []string{"serve"}, in, stdout, &bytes.Buffer{})
	require.NoError(t, err)
	assert.NotZero(t, stdout.Len())
}

func TestOps(t *testing.T) {
	t.Parallel()

	stdout := nopCloser{&bytes.Buffer{}}

	require.NoError(t, run(context.Background(), []string{"ops"}, nil, stdout, &bytes.Buffer{}))
	assert.Contains(t, strings.Fields(stdout.String()), "red")
	assert.Contains(t, strings.Fields(stdout.String()), "remote")
}

func TestUsage(t *testing.T) {
	t.Parallel()

	stdout := nopCloser{&bytes.Buffer{}}

	require.ErrorIs(t, run(context.Background(), nil, nil, stdout, &bytes.Buffer{}), errUsage)
	require.ErrorIs(t, run(context.Background(), []string{"nope"}, nil, stdout, &bytes.Buffer{}), errUsage)
	require.Error(t, run(context.Background(), []string{"run", "-config", "missing.toml"}, nil, stdout, &bytes.Buffer{}))
}
