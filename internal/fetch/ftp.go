package fetch

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPFetcher downloads guideline files from FTP servers. Some agencies
// still publish historical tables over plain FTP.
type FTPFetcher struct {
	timeout time.Duration
	user    string
	pass    string
}

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout  time.Duration
	User     string
	Password string
}

// NewFTPFetcher creates an FTP fetcher. Empty credentials mean anonymous login.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	user := opts.User
	pass := opts.Password
	if user == "" {
		user = "anonymous"
		pass = "anonymous"
	}
	return &FTPFetcher{timeout: opts.Timeout, user: user, pass: pass}
}

// parseFTPURL splits an ftp:// URL into host:port and remote path.
func parseFTPURL(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("unsupported scheme %q, want ftp", u.Scheme)
	}
	host := u.Host
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "21")
	}
	path := u.Path
	if path == "" || path == "/" {
		return "", "", eris.Errorf("ftp url %s has no file path", rawURL)
	}
	return host, path, nil
}

// ftpConnReader wraps an FTP response so closing the body also quits the
// control connection.
type ftpConnReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpConnReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpConnReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return respErr
	}
	return quitErr
}

func (f *FTPFetcher) connect(ctx context.Context, host string) (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(host,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(f.timeout),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "ftp dial %s", host)
	}
	if err := conn.Login(f.user, f.pass); err != nil {
		_ = conn.Quit()
		return nil, eris.Wrap(err, "ftp login")
	}
	return conn, nil
}

// Download retrieves the file at the ftp:// URL. The returned reader owns
// the connection; Close releases both.
func (f *FTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	host, path, err := parseFTPURL(rawURL)
	if err != nil {
		return nil, err
	}

	conn, err := f.connect(ctx, host)
	if err != nil {
		return nil, err
	}

	resp, err := conn.Retr(path)
	if err != nil {
		_ = conn.Quit()
		return nil, eris.Wrapf(err, "ftp retrieve %s", path)
	}

	zap.L().Debug("ftp download started",
		zap.String("host", host),
		zap.String("path", path),
	)

	return &ftpConnReader{resp: resp, conn: conn}, nil
}

// DownloadToFile retrieves the file at the ftp:// URL to a local path.
func (f *FTPFetcher) DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, body)
	if err != nil {
		return n, eris.Wrap(err, "write file")
	}

	return n, nil
}

// HeadETag is unsupported over FTP; it reports the remote file size and
// modification time as a weak change token instead.
func (f *FTPFetcher) HeadETag(ctx context.Context, rawURL string) (string, error) {
	host, path, err := parseFTPURL(rawURL)
	if err != nil {
		return "", err
	}

	conn, err := f.connect(ctx, host)
	if err != nil {
		return "", err
	}
	defer conn.Quit() //nolint:errcheck

	size, err := conn.FileSize(path)
	if err != nil {
		return "", eris.Wrapf(err, "ftp size %s", path)
	}

	mtime, err := conn.GetTime(path)
	if err != nil {
		// Not all servers support MDTM; size alone still detects most changes.
		return strconv.FormatInt(size, 10), nil
	}

	return strconv.FormatInt(size, 10) + "-" + mtime.UTC().Format(time.RFC3339), nil
}

// DownloadIfChanged fetches the file only when its weak change token differs.
func (f *FTPFetcher) DownloadIfChanged(ctx context.Context, rawURL string, etag string) (io.ReadCloser, string, bool, error) {
	current, err := f.HeadETag(ctx, rawURL)
	if err != nil {
		return nil, "", false, err
	}
	if etag != "" && current == etag {
		return nil, etag, false, nil
	}

	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return nil, "", false, err
	}
	return body, current, true, nil
}
