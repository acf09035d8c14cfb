package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/linearfn/internal/store"
)

// recordDefs compiles the test definitions into a new store and returns
// its path and the compiled results.
func recordDefs(t *testing.T) (string, []CompiledQuery) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "history.db")
	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "json"}), defsPath, "--store", dbPath)
	require.NoError(t, err)
	var resp compileResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return dbPath, resp.Data
}

func TestHistory_ListText(t *testing.T) {
	dbPath, results := recordDefs(t)

	out, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), "--store", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, results[0].ID)
	assert.Contains(t, out, results[1].ID)
	assert.Contains(t, out, "scenario")
	assert.Contains(t, out, "2 predicate(s), 2 rule(s)")
}

func TestHistory_ListFilters(t *testing.T) {
	dbPath, results := recordDefs(t)

	out, err := execute(t, NewHistoryCommand(&RootOptions{Format: "json"}), "--store", dbPath, "--query", "scenario")
	require.NoError(t, err)

	var resp struct {
		Data []store.Compilation `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, results[1].ID, resp.Data[0].ID)

	out, err = execute(t, NewHistoryCommand(&RootOptions{Format: "json"}), "--store", dbPath, "-n", "1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "scenario", resp.Data[0].QueryName)
}

func TestHistory_Show(t *testing.T) {
	dbPath, results := recordDefs(t)

	out, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), "--store", dbPath, results[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "query:    path")
	assert.Contains(t, out, "p1/2: 2 rule(s), recursive")
	assert.Contains(t, out, "p0/2: 1 rule(s)\n")
	assert.Contains(t, out, results[0].Text)
}

func TestHistory_Empty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	out, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), "--store", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No compilations recorded")
}

func TestHistory_Errors(t *testing.T) {
	dbPath, _ := recordDefs(t)

	out, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), "--store", dbPath, "missing-id")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeUnknownName+"]")

	_, err = execute(t, NewHistoryCommand(&RootOptions{Format: "text"}))
	assert.Error(t, err, "--store is required")
}
