package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symtrace/internal/ir"
	"github.com/roach88/symtrace/internal/store"
	"github.com/roach88/symtrace/internal/testutil"
)

var scenarioDir = filepath.Join("..", "..", "testdata", "scenarios")

func executeTrace(t *testing.T, opts *TraceOptions, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := newTraceCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestTraceText(t *testing.T) {
	opts := &TraceOptions{RootOptions: &RootOptions{Format: "text"}}
	out, _, err := executeTrace(t, opts, filepath.Join(scenarioDir, "relu_add.yaml"))
	require.NoError(t, err)

	golden, err := os.ReadFile(filepath.Join(scenarioDir, "golden", "relu_add.golden"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, string(golden)), "output:\n%s", out)
	assert.Regexp(t, `\nhash: [0-9a-f]{64}\n$`, out)
}

func TestTraceJSON(t *testing.T) {
	opts := &TraceOptions{RootOptions: &RootOptions{Format: "json"}}
	out, _, err := executeTrace(t, opts, filepath.Join(scenarioDir, "relu_add.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "relu_add", resp.Data.Scenario)
	assert.True(t, resp.Data.Pass)
	assert.Equal(t, 4, resp.Data.Nodes)
	assert.Nil(t, resp.Data.Stored)

	g, err := ir.UnmarshalGraph(resp.Data.Graph)
	require.NoError(t, err)
	assert.Equal(t, resp.Data.Hash, ir.MustGraphHash(g))
}

func TestTraceVerboseLogsToStderr(t *testing.T) {
	opts := &TraceOptions{RootOptions: &RootOptions{Format: "json", Verbose: true}}
	out, errOut, err := executeTrace(t, opts, filepath.Join(scenarioDir, "relu_add.yaml"))
	require.NoError(t, err)

	assert.Contains(t, errOut, "scenario traced")
	assert.NotContains(t, out, "scenario traced")
}

func TestTracePersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "graphs.db")
	ids := testutil.NewFixedIDGenerator("")
	opts := &TraceOptions{
		RootOptions: &RootOptions{Format: "text"},
		IDGenerator: ids,
	}

	out, _, err := executeTrace(t, opts, filepath.Join(scenarioDir, "relu_add.yaml"), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "stored: graph-0001 (seq 1)")

	// Same ID and content: the write is a no-op.
	ids.Reset()
	out, _, err = executeTrace(t, opts, filepath.Join(scenarioDir, "relu_add.yaml"), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "already stored: graph-0001 (seq 1)")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	rec, g, err := st.ReadGraph(t.Context(), "graph-0001")
	require.NoError(t, err)
	assert.Equal(t, "relu_add", rec.Name)
	assert.Equal(t, 4, g.Len())
}

func TestTracePersistsUnderName(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "graphs.db")
	opts := &TraceOptions{
		RootOptions: &RootOptions{Format: "json"},
		IDGenerator: testutil.NewFixedIDGenerator("run"),
	}

	out, _, err := executeTrace(t, opts, filepath.Join(scenarioDir, "relu_add.yaml"), "--db", dbPath, "--name", "baseline")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "run-0001", resp.GraphID)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	records, err := st.ListGraphs(t.Context())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "baseline", records[0].Name)
}

func TestTraceMissingScenario(t *testing.T) {
	opts := &TraceOptions{RootOptions: &RootOptions{Format: "text"}}
	out, _, err := executeTrace(t, opts, "/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E009]")
}

func TestTraceStepFailure(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "branch.yaml", `
name: branch
description: "branches on a proxy"
inputs: [x]
steps:
  - bool: $x
assertions:
  - type: node_count
    count: 1
`)

	opts := &TraceOptions{RootOptions: &RootOptions{Format: "text"}}
	out, _, err := executeTrace(t, opts, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_TRACE_FAILED]")
	assert.Contains(t, out, "control flow")
}

func TestTraceAssertionFailure(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "count.yaml", `
name: count
description: "wrong count"
inputs: [x]
assertions:
  - type: node_count
    count: 3
`)

	opts := &TraceOptions{RootOptions: &RootOptions{Format: "json"}}
	out, _, err := executeTrace(t, opts, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string      `json:"status"`
		Error  *CLIError   `json:"error"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTraceFailed, resp.Error.Code)
	assert.False(t, resp.Data.Pass)
	require.Len(t, resp.Data.Errors, 1)
}

func TestTraceUnwritableDatabase(t *testing.T) {
	opts := &TraceOptions{RootOptions: &RootOptions{Format: "text"}}
	out, _, err := executeTrace(t, opts, filepath.Join(scenarioDir, "relu_add.yaml"), "--db", "/nonexistent/dir/graphs.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E010]")
}
