package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaveformsCommand_Text(t *testing.T) {
	db := tempDB(t)
	id := archiveDemo(t, db)

	stdout, _, err := runCommand(t, "--db", db, "waveforms", id)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Greater(t, len(lines), 1)
	assert.Contains(t, lines[0], "gx")
	assert.Len(t, strings.Split(lines[1], "\t"), 4, "t, gx, gy, gz columns")
}

func TestWaveformsCommand_JSON(t *testing.T) {
	db := tempDB(t)
	id := archiveDemo(t, db)

	stdout, _, err := runCommand(t, "--db", db, "--format", "json", "waveforms", id)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, 1e-05, data["raster_time_s"])

	gx := data["gx"].([]any)
	gy := data["gy"].([]any)
	gz := data["gz"].([]any)
	assert.Equal(t, len(gx), len(gy))
	assert.Equal(t, len(gx), len(gz))
	assert.NotEmpty(t, gx)
}

func TestWaveformsCommand_UnknownID(t *testing.T) {
	db := tempDB(t)
	archiveDemo(t, db)

	_, _, err := runCommand(t, "--db", db, "waveforms", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
