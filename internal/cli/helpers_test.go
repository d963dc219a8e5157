package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seqforge/seqforge/internal/limits"
	"github.com/seqforge/seqforge/internal/seq"
	"github.com/seqforge/seqforge/internal/store"
)

// runCommand executes the root command with args and captured output.
func runCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// tempDB returns a database path inside a fresh temp dir.
func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "archive.db")
}

// archiveDemo runs the demo command against db and returns the archived
// sequence ID parsed from the JSON response.
func archiveDemo(t *testing.T, db string) string {
	t.Helper()
	stdout, _, err := runCommand(t, "--db", db, "--format", "json", "demo")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "demo data payload: %v", resp.Data)
	id, ok := data["id"].(string)
	require.True(t, ok)
	return id
}

// saveSequence writes a prebuilt sequence straight into the archive.
func saveSequence(t *testing.T, db string, sq *seq.Sequence) {
	t.Helper()
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	_, err = st.Save(context.Background(), sq)
	require.NoError(t, err)
}

func defaultLimits(t *testing.T) limits.Limits {
	t.Helper()
	return limits.Default()
}
