package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractRaster extracts the raster file from a zip archive to the
// destination directory and returns its path. Sidecar files (.prj and
// friends) are extracted alongside it. Errors when the archive holds
// no raster or more than one.
func ExtractRaster(zipPath, destDir string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	var rasterPath string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		path, err := extractZIPEntry(f, destDir)
		if err != nil {
			return "", err
		}
		if isRasterFile(f.Name) {
			if rasterPath != "" {
				return "", eris.Errorf("zip: %s holds more than one raster", filepath.Base(zipPath))
			}
			rasterPath = path
		}
	}

	if rasterPath == "" {
		return "", eris.Errorf("zip: no raster file in %s", filepath.Base(zipPath))
	}
	return rasterPath, nil
}

// extractZIPEntry extracts a single zip.File to the destination directory.
func extractZIPEntry(f *zip.File, destDir string) (string, error) {
	// Sanitize against zip slip
	destPath := filepath.Join(destDir, f.Name)
	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", eris.Errorf("zip: illegal path %q (zip slip attempt)", f.Name)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", eris.Wrap(err, "zip: create parent directory")
	}

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrap(err, "zip: open entry")
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return "", eris.Wrap(err, "zip: create file")
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return "", eris.Wrap(err, "zip: write file")
	}

	return destPath, nil
}
