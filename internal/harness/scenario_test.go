package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/archive_demo.yaml")
	require.NoError(t, err)

	assert.Equal(t, "archive_demo", sc.Name)
	assert.Equal(t, "01912345-6789-7abc-8def-0123456789ab", sc.ID)
	require.Len(t, sc.Blocks, 2)
	require.NotNil(t, sc.Blocks[0].Delay)
	assert.InDelta(t, 1e-4, *sc.Blocks[0].Delay, 1e-12)
	require.Len(t, sc.Blocks[1].Grads, 1)
	assert.Equal(t, "trap", sc.Blocks[1].Grads[0].Type)

	require.NotNil(t, sc.Expect.Blocks)
	assert.Equal(t, 2, *sc.Expect.Blocks)
	assert.Equal(t, 1, sc.Expect.LibraryEntries["grad"])
}

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, `
name: typo
blocks:
  - delay: 1.0e-5
    graids:
      - channel: x
`)
	_, err := LoadScenario(path)
	require.Error(t, err, "misspelled keys must not be silently dropped")
}

func TestLoadScenario_RequiresName(t *testing.T) {
	path := writeScenario(t, "blocks:\n  - delay: 1.0e-5\n")
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoadScenario_RequiresBlocks(t *testing.T) {
	path := writeScenario(t, "name: empty\n")
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one block")
}

func TestLoadScenarioDir(t *testing.T) {
	scs, err := LoadScenarioDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scs)
	assert.Equal(t, "archive_demo", scs[0].Name)
}
