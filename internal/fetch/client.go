// Package fetch performs single-attempt downloads of one file to disk.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spachava753/rawfetch/internal/models"
)

// maxDrainBytes bounds how much of an error body is read to allow connection reuse.
const maxDrainBytes = 64 * 1024

// tempSuffix ends the name of a download that has not been renamed into place.
const tempSuffix = ".part"

// ErrTruncated is reported when a body ends before its declared Content-Length.
var ErrTruncated = errors.New("fetch: response body truncated")

// errTooLarge is returned by limitedWriter once MaxBytes is exceeded.
var errTooLarge = errors.New("fetch: response body exceeds size limit")

// Options configures the client.
type Options struct {
	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 100
	MaxIdleConnsPerHost int

	// UserAgent is sent with every request when non-empty.
	UserAgent string

	// MaxBytes caps the size of a single file. 0 means unlimited.
	MaxBytes int64
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxIdleConnsPerHost: 100,
		UserAgent:           "rawfetch",
	}
}

// Client issues one GET per call and streams the body to its destination.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a new client with the given options.
func NewClient(opts Options) *Client {
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = DefaultOptions().MaxIdleConnsPerHost
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = opts.MaxIdleConnsPerHost
	transport.MaxIdleConns = opts.MaxIdleConnsPerHost * 2
	transport.IdleConnTimeout = 90 * time.Second

	return NewClientWithHTTPClient(&http.Client{Transport: transport}, opts)
}

// NewClientWithHTTPClient creates a client around an existing http.Client.
// Deadlines are applied per call, so hc.Timeout should normally be zero.
func NewClientWithHTTPClient(hc *http.Client, opts Options) *Client {
	return &Client{client: hc, opts: opts}
}

// Fetch downloads req.URL to req.Destination within timeout. The outcome is
// Success only once the file is fully written, synced and in place; on any
// failure the destination is left untouched.
func (c *Client) Fetch(ctx context.Context, req models.FetchRequest, timeout time.Duration) models.FetchOutcome {
	start := time.Now()
	outcome := c.fetch(ctx, req, timeout)
	outcome.Attempts = 1
	outcome.DurationSec = time.Since(start).Seconds()
	return outcome
}

func (c *Client) fetch(ctx context.Context, req models.FetchRequest, timeout time.Duration) models.FetchOutcome {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, http.NoBody)
	if err != nil {
		return models.Failure(models.ErrTransport, "create request: %s", err)
	}
	for name, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if c.opts.UserAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", c.opts.UserAgent)
	}

	slog.Debug("fetching", "url", req.URL, "destination", req.Destination)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyTransportError(ctx, err, req.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drain(resp.Body)
		return models.StatusFailure(resp.StatusCode, req.URL)
	}

	written, err := c.writeAtomic(resp.Body, resp.ContentLength, req.Destination)
	if err != nil {
		var fsErr *filesystemError
		switch {
		case errors.As(err, &fsErr):
			return models.Failure(models.ErrFilesystem, "%s", fsErr.err)
		case errors.Is(err, errTooLarge):
			return models.Failure(models.ErrSizeLimit, "%s exceeds %d bytes", req.URL, c.opts.MaxBytes)
		default:
			return classifyTransportError(ctx, err, req.URL)
		}
	}

	return models.Success(req.Destination, written)
}

// IsTempFile reports whether the base name belongs to an unfinished download,
// such as one left behind when the process was killed mid-transfer.
func IsTempFile(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, tempSuffix)
}

// filesystemError marks local I/O failures so they are not mistaken for network ones.
type filesystemError struct {
	err error
}

func (e *filesystemError) Error() string { return e.err.Error() }
func (e *filesystemError) Unwrap() error { return e.err }

// writeAtomic streams body into an exclusively created temp file next to dest,
// then renames it into place.
func (c *Client) writeAtomic(body io.Reader, contentLength int64, dest string) (int64, error) {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*"+tempSuffix)
	if err != nil {
		return 0, &filesystemError{fmt.Errorf("creating temp file: %w", err)}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := io.Writer(tmp)
	if c.opts.MaxBytes > 0 {
		w = &limitedWriter{w: tmp, remaining: c.opts.MaxBytes}
	}

	written, err := copyBody(w, body)
	if err != nil {
		return written, err
	}
	if contentLength >= 0 && written != contentLength {
		return written, fmt.Errorf("%w: got %d of %d bytes", ErrTruncated, written, contentLength)
	}

	if err := tmp.Sync(); err != nil {
		return written, &filesystemError{fmt.Errorf("syncing %s: %w", tmpName, err)}
	}
	if err := tmp.Close(); err != nil {
		return written, &filesystemError{fmt.Errorf("closing %s: %w", tmpName, err)}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return written, &filesystemError{fmt.Errorf("chmod %s: %w", tmpName, err)}
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return written, &filesystemError{fmt.Errorf("renaming into %s: %w", dest, err)}
	}
	committed = true

	return written, nil
}

// copyBody is io.Copy that tags write-side failures as filesystem errors.
func copyBody(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			nw, writeErr := dst.Write(buf[:n])
			written += int64(nw)
			if writeErr != nil {
				if errors.Is(writeErr, errTooLarge) {
					return written, writeErr
				}
				return written, &filesystemError{fmt.Errorf("write: %w", writeErr)}
			}
			if nw != n {
				return written, &filesystemError{io.ErrShortWrite}
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, fmt.Errorf("read: %w", readErr)
		}
	}
}

type limitedWriter struct {
	w         io.Writer
	remaining int64
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if int64(len(p)) > l.remaining {
		return 0, errTooLarge
	}
	n, err := l.w.Write(p)
	l.remaining -= int64(n)
	return n, err
}

// classifyTransportError maps a request or body error to Timeout or Transport.
func classifyTransportError(ctx context.Context, err error, url string) models.FetchOutcome {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return models.Failure(models.ErrTimeout, "%s", url)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.Failure(models.ErrTimeout, "%s", url)
	}
	return models.Failure(models.ErrTransport, "%s", err)
}

func drain(body io.Reader) {
	io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes))
}
