package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPFetcher downloads bulk registry drops published on FTP servers.
type FTPFetcher struct {
	timeout time.Duration
}

// NewFTPFetcher builds an FTPFetcher. A zero timeout defaults to 30s.
func NewFTPFetcher(timeout time.Duration) *FTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FTPFetcher{timeout: timeout}
}

// DownloadToFile retrieves ftpURL into dest and returns the bytes written.
func (f *FTPFetcher) DownloadToFile(ctx context.Context, ftpURL, dest string) (int64, error) {
	host, path, err := splitFTPURL(ftpURL)
	if err != nil {
		return 0, err
	}

	zap.L().Debug("ftp download",
		zap.String("host", host),
		zap.String("path", path),
		zap.String("dest", dest))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return 0, eris.Wrapf(err, "fetcher: ftp dial %s", host)
	}
	defer conn.Quit() //nolint:errcheck

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		return 0, eris.Wrap(err, "fetcher: ftp login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		return 0, eris.Wrapf(err, "fetcher: ftp retrieve %s", path)
	}
	defer resp.Close() //nolint:errcheck

	file, err := os.Create(dest)
	if err != nil {
		return 0, eris.Wrapf(err, "fetcher: create %s", dest)
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, resp)
	if err != nil {
		return n, eris.Wrapf(err, "fetcher: write %s", dest)
	}
	return n, nil
}

func splitFTPURL(raw string) (host, path string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", eris.Wrapf(err, "fetcher: parse ftp url %s", raw)
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("fetcher: expected ftp scheme in %s", raw)
	}
	if u.Path == "" {
		return "", "", eris.Errorf("fetcher: empty path in ftp url %s", raw)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}
	return host, u.Path, nil
}
