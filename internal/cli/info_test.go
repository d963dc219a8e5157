package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoCommand_Text(t *testing.T) {
	db := tempDB(t)
	id := archiveDemo(t, db)

	stdout, _, err := runCommand(t, "--db", db, "info", id)
	require.NoError(t, err)
	assert.Contains(t, stdout, id)
	assert.Contains(t, stdout, "blocks     32")
	assert.Contains(t, stdout, "Name = gre-demo")
}

func TestInfoCommand_JSON(t *testing.T) {
	db := tempDB(t)
	id := archiveDemo(t, db)

	stdout, _, err := runCommand(t, "--db", db, "--format", "json", "info", id)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, id, data["id"])
	assert.Equal(t, float64(32), data["num_blocks"])

	counts := data["event_counts"].(map[string]any)
	assert.Equal(t, float64(8), counts["rf"])
	assert.Equal(t, float64(8), counts["adc"])
}

func TestInfoCommand_UnknownID(t *testing.T) {
	db := tempDB(t)
	archiveDemo(t, db)

	_, _, err := runCommand(t, "--db", db, "info", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
