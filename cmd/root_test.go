// File: cmd/root_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/gridclick/internal/geometry"
)

// execute runs a fresh command tree and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func decodePoints(t *testing.T, out string) pointsReport {
	t.Helper()
	var report pointsReport
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	return report
}

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "gridclick version "+Version)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "gridclick "+Version)
}

func TestRootCmd_NoArgs(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "sweeps a screen region")
}

func TestPointsCmd_DefaultsAutoPlaceOnDryScreen(t *testing.T) {
	out, err := execute(t, "points", "--format", "json", "--h-cells", "1", "--v-cells", "1")
	require.NoError(t, err)

	report := decodePoints(t, out)
	assert.Equal(t, geometry.NewRect(533, 280, 320, 240), report.Region)
	require.Len(t, report.Points, 1)
	assert.Equal(t, scanPoint{Index: 0, X: 693, Y: 400, PX: 693, PY: 400}, report.Points[0])
}

func TestPointsCmd_FlagsPinTheRegion(t *testing.T) {
	out, err := execute(t, "points", "-f", "json",
		"--left", "0", "--top", "0", "--width", "300", "--height", "200",
		"--h-cells", "2", "--v-cells", "1")
	require.NoError(t, err)

	report := decodePoints(t, out)
	assert.Equal(t, geometry.NewRect(0, 0, 300, 200), report.Region)
	require.Len(t, report.Points, 2)
	assert.Equal(t, 100, report.Points[0].PX)
	assert.Equal(t, 66, report.Points[0].PY)
	assert.Equal(t, 200, report.Points[1].PX)
	assert.Equal(t, 133, report.Points[1].PY)
}

func TestPointsCmd_Table(t *testing.T) {
	out, err := execute(t, "points", "--left", "0", "--top", "0", "--width", "300", "--height", "200", "--h-cells", "2", "--v-cells", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "# region 0,0 300x200, grid 2x1")
	assert.Contains(t, out, "INDEX")
	assert.Contains(t, out, "100.00")
}

func TestPointsCmd_UnknownFormat(t *testing.T) {
	_, err := execute(t, "points", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestConfigFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sampler:
  region:
    left: 10
    top: 20
    width: 40
    height: 40
    auto_place: false
grid:
  h_cells: 1
  v_cells: 1
`), 0o600))

	t.Run("config file is read", func(t *testing.T) {
		out, err := execute(t, "--config", path, "points", "-f", "json")
		require.NoError(t, err)
		report := decodePoints(t, out)
		assert.Equal(t, geometry.NewRect(10, 20, 40, 40), report.Region)
		assert.Len(t, report.Points, 1)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Setenv("GRIDCLICK_GRID_H_CELLS", "3")
		out, err := execute(t, "--config", path, "points", "-f", "json")
		require.NoError(t, err)
		assert.Equal(t, 3, decodePoints(t, out).HCells)
	})

	t.Run("flags override the environment", func(t *testing.T) {
		t.Setenv("GRIDCLICK_GRID_H_CELLS", "3")
		out, err := execute(t, "--config", path, "points", "-f", "json", "--h-cells", "5")
		require.NoError(t, err)
		assert.Equal(t, 5, decodePoints(t, out).HCells)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		_, err := execute(t, "--config", path, "points", "--v-cells", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cell counts must be at least 1")
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := execute(t, "--config", filepath.Join(dir, "nope.yaml"), "points")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})
}

func TestConfigFromContext(t *testing.T) {
	_, err := configFromContext(context.Background())
	assert.Error(t, err)
}
