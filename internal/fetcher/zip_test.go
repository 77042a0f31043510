package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range entries {
		ew, err := w.Create(name)
		require.NoError(t, err)
		_, err = ew.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestExtractRaster(t *testing.T) {
	zipPath := writeZip(t, map[string]string{
		"lka_ppp_2020.asc": "ncols 2\nnrows 2\n",
		"lka_ppp_2020.prj": "GEOGCS[...]",
	})
	destDir := t.TempDir()

	got, err := ExtractRaster(zipPath, destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "lka_ppp_2020.asc"), got)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ncols 2")

	// Sidecar extracted next to the grid.
	_, err = os.Stat(filepath.Join(destDir, "lka_ppp_2020.prj"))
	assert.NoError(t, err)
}

func TestExtractRaster_Nested(t *testing.T) {
	zipPath := writeZip(t, map[string]string{
		"data/grid.nc": "netcdf",
	})
	destDir := t.TempDir()

	got, err := ExtractRaster(zipPath, destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "data", "grid.nc"), got)
}

func TestExtractRaster_NoRaster(t *testing.T) {
	zipPath := writeZip(t, map[string]string{"readme.txt": "nothing here"})

	_, err := ExtractRaster(zipPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no raster file")
}

func TestExtractRaster_MultipleRasters(t *testing.T) {
	zipPath := writeZip(t, map[string]string{
		"a.asc": "x",
		"b.asc": "y",
	})

	_, err := ExtractRaster(zipPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one raster")
}

func TestExtractRaster_ZipSlip(t *testing.T) {
	zipPath := writeZip(t, map[string]string{"../evil.asc": "x"})

	_, err := ExtractRaster(zipPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip slip")
}

func TestExtractRaster_MissingArchive(t *testing.T) {
	_, err := ExtractRaster(filepath.Join(t.TempDir(), "nope.zip"), t.TempDir())
	require.Error(t, err)
}
