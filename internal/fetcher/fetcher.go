// Package fetcher downloads population rasters over HTTP or FTP.
// WorldPop and SEDAC publish grids as bare files or single-file zip
// archives; FetchRaster handles both and returns a local path ready
// for raster.Open.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Options configures FetchRaster.
type Options struct {
	Timeout time.Duration
	Retries int
}

// rasterExts are the grid formats the reader understands, in
// preference order when an archive holds more than one.
var rasterExts = []string{".asc", ".agr", ".nc", ".ncf"}

func isRasterFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range rasterExts {
		if ext == e {
			return true
		}
	}
	return false
}

// FetchRaster downloads the raster at rawURL into destDir, extracting
// it when the remote file is a zip archive. It returns the path to the
// raster file. An existing non-empty file with the expected name is
// reused without re-downloading.
func FetchRaster(ctx context.Context, rawURL, destDir string, opts Options) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: parse url")
	}

	name := filepath.Base(u.Path)
	if name == "." || name == "/" {
		return "", eris.Errorf("fetcher: url %s has no file name", rawURL)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "fetcher: create dest dir")
	}

	zipped := strings.EqualFold(filepath.Ext(name), ".zip")
	localPath := filepath.Join(destDir, name)
	if !zipped {
		if !isRasterFile(name) {
			return "", eris.Errorf("fetcher: %s is not a recognized raster format", name)
		}
		if fi, statErr := os.Stat(localPath); statErr == nil && fi.Size() > 0 {
			zap.L().Info("fetcher: reusing existing raster", zap.String("path", localPath))
			return localPath, nil
		}
	}

	var f Fetcher
	switch u.Scheme {
	case "http", "https":
		f = NewHTTPFetcher(HTTPOptions{Timeout: opts.Timeout, MaxRetries: opts.Retries})
	case "ftp":
		f = NewFTPFetcher(FTPOptions{Timeout: opts.Timeout})
	default:
		return "", eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}

	n, err := downloadTo(ctx, f, rawURL, localPath)
	if err != nil {
		return "", err
	}
	zap.L().Info("fetcher: downloaded",
		zap.String("url", rawURL),
		zap.String("path", localPath),
		zap.Int64("bytes", n),
	)

	if !zipped {
		return localPath, nil
	}

	rasterPath, err := ExtractRaster(localPath, destDir)
	if err != nil {
		return "", err
	}
	return rasterPath, nil
}

// downloadTo streams the URL into path through a temp file in the same
// directory, renaming only on success. A raster is hundreds of
// megabytes; an interrupted transfer must never leave a truncated grid
// under the name FetchRaster would later reuse.
func downloadTo(ctx context.Context, f Fetcher, rawURL, path string) (int64, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	tmp := path + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create temp file")
	}

	n, err := io.Copy(file, body)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return n, eris.Wrap(err, "fetcher: write temp file")
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return n, eris.Wrap(err, "fetcher: flush temp file")
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return n, eris.Wrap(err, "fetcher: finalize download")
	}
	return n, nil
}
