package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveList_Empty(t *testing.T) {
	db := tempDB(t)
	stdout, _, err := runCommand(t, "--db", db, "archive", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "archive is empty")
}

func TestArchiveList_JSON(t *testing.T) {
	db := tempDB(t)
	id := archiveDemo(t, db)

	stdout, _, err := runCommand(t, "--db", db, "--format", "json", "archive", "list")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Equal(t, "ok", resp.Status)
	entries := resp.Data.([]any)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, id, entry["id"])
	assert.NotEmpty(t, entry["content_hash"])
}

func TestArchiveDelete(t *testing.T) {
	db := tempDB(t)
	id := archiveDemo(t, db)

	stdout, _, err := runCommand(t, "--db", db, "archive", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, stdout, "deleted "+id)

	stdout, _, err = runCommand(t, "--db", db, "archive", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "archive is empty")
}

func TestArchiveDelete_Missing(t *testing.T) {
	db := tempDB(t)
	_, _, err := runCommand(t, "--db", db, "archive", "delete", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
