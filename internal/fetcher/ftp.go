package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout time.Duration
}

// FTPFetcher downloads rasters over FTP. WorldPop's archive only
// allows anonymous access, so no credentials are taken.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher creates a new FTPFetcher with the given options.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}
	return &FTPFetcher{opts: opts}
}

// parseFTPURL extracts host (with port) and path from an FTP URL.
func parseFTPURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "fetcher: parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("fetcher: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", eris.New("fetcher: empty path in ftp url")
	}

	return host, path, nil
}

// ftpTransfer ties the data stream to its control connection: a raster
// transfer holds both for the whole download, and Close releases them
// in protocol order.
type ftpTransfer struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (t *ftpTransfer) Read(p []byte) (int, error) {
	return t.resp.Read(p)
}

func (t *ftpTransfer) Close() error {
	respErr := t.resp.Close()
	quitErr := t.conn.Quit()
	if respErr != nil {
		return eris.Wrap(respErr, "fetcher: close ftp transfer")
	}
	if quitErr != nil {
		return eris.Wrap(quitErr, "fetcher: quit ftp connection")
	}
	return nil
}

// Download connects anonymously, starts retrieving the remote file, and
// returns a reader over the transfer. The caller must close it to
// release the FTP connection.
func (f *FTPFetcher) Download(ctx context.Context, ftpURL string) (io.ReadCloser, error) {
	host, remotePath, err := parseFTPURL(ftpURL)
	if err != nil {
		return nil, err
	}

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: ftp dial %s", host)
	}

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		_ = conn.Quit()
		return nil, eris.Wrap(err, "fetcher: ftp login")
	}

	// SIZE is advisory; mirrors that refuse it still serve the file.
	if size, sizeErr := conn.FileSize(remotePath); sizeErr == nil {
		zap.L().Info("fetcher: ftp transfer starting",
			zap.String("host", host),
			zap.String("path", remotePath),
			zap.Int64("bytes", size),
		)
	}

	resp, err := conn.Retr(remotePath)
	if err != nil {
		_ = conn.Quit()
		return nil, eris.Wrapf(err, "fetcher: ftp retrieve %s", remotePath)
	}

	return &ftpTransfer{resp: resp, conn: conn}, nil
}
