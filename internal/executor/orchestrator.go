package executor

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/spachava753/rawfetch/internal/auth"
	"github.com/spachava753/rawfetch/internal/models"
	"github.com/spachava753/rawfetch/internal/paths"
)

// DefaultRawHost serves raw file contents of public and private GitHub repositories.
const DefaultRawHost = "https://raw.githubusercontent.com"

// Fetcher performs a single attempt to download one request.
type Fetcher interface {
	Fetch(ctx context.Context, req models.FetchRequest, timeout time.Duration) models.FetchOutcome
}

// Options configures a BatchDownloader.
type Options struct {
	// RawHost is the base URL files are fetched from.
	RawHost string

	// Timeout bounds each attempt of each item independently.
	Timeout time.Duration

	// MaxConcurrency caps in-flight items. 0 means every item at once.
	MaxConcurrency int

	// RateLimit caps request starts per second across the batch. 0 disables it.
	RateLimit float64

	// Retry controls re-attempts of retryable failures. MaxAttempts <= 1 disables retries.
	Retry models.RetryConfig
}

// Batch describes one invocation's worth of includes.
type Batch struct {
	Repo       string
	Ref        string
	OutputRoot string
	Credential string
	Includes   []string // raw "remote:local" lines
}

// BatchDownloader fetches every include of a batch concurrently and waits for
// all of them.
type BatchDownloader struct {
	fetcher Fetcher
	opts    Options
	limiter *rate.Limiter
}

// NewBatchDownloader creates a new batch downloader.
func NewBatchDownloader(fetcher Fetcher, opts Options) *BatchDownloader {
	if opts.RawHost == "" {
		opts.RawHost = DefaultRawHost
	}
	d := &BatchDownloader{fetcher: fetcher, opts: opts}
	if opts.RateLimit > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return d
}

// Run validates and plans the whole batch, then fetches every item. Any
// configuration problem is returned before a single request is made; after
// that, per-item failures are recorded in the result and never returned.
func (d *BatchDownloader) Run(ctx context.Context, batch Batch) (*models.BatchResult, error) {
	requests, err := d.Plan(batch)
	if err != nil {
		return nil, err
	}

	result := &models.BatchResult{
		Repo:       batch.Repo,
		Ref:        batch.Ref,
		OutputRoot: batch.OutputRoot,
		Requested:  make([]models.IncludeSpec, 0, len(requests)),
		Outcomes:   make(map[models.IncludeSpec]models.FetchOutcome, len(requests)),
		StartedAt:  time.Now(),
	}
	for _, req := range requests {
		result.Requested = append(result.Requested, req.Spec)
	}

	slog.Info("starting batch",
		"repo", batch.Repo,
		"ref", batch.Ref,
		"items", len(requests),
		"max_concurrency", d.opts.MaxConcurrency)

	var mu sync.Mutex
	g := new(errgroup.Group)
	if d.opts.MaxConcurrency > 0 {
		g.SetLimit(d.opts.MaxConcurrency)
	}

	for _, req := range requests {
		req := req
		g.Go(func() error {
			outcome := d.runItem(ctx, req)

			mu.Lock()
			result.Outcomes[req.Spec] = outcome
			mu.Unlock()

			if outcome.Succeeded() {
				slog.Info("downloaded", "remote", req.Spec.RemotePath, "destination", outcome.Destination, "bytes", outcome.Bytes)
			} else {
				slog.Warn("download failed",
					"remote", req.Spec.RemotePath,
					"cause", outcome.Failure.Cause,
					"detail", outcome.Failure.Detail,
					"attempts", outcome.Attempts)
			}
			// Never return an error: one item must not cancel its siblings.
			return nil
		})
	}
	// Items record failures in their outcomes, so Wait never reports one.
	_ = g.Wait()

	result.EndedAt = time.Now()
	return result, nil
}

// Plan parses and resolves every include into a FetchRequest without touching
// the network or the filesystem.
func (d *BatchDownloader) Plan(batch Batch) ([]models.FetchRequest, error) {
	if err := validateBatch(batch); err != nil {
		return nil, err
	}

	specs, err := models.ParseIncludes(batch.Includes)
	if err != nil {
		return nil, err
	}

	headers := auth.Headers(batch.Credential)
	requests := make([]models.FetchRequest, 0, len(specs))
	owners := make(map[string]models.IncludeSpec, len(specs))

	for _, spec := range specs {
		dest, err := paths.Resolve(batch.OutputRoot, spec.LocalPath)
		if err != nil {
			return nil, err
		}
		if prev, dup := owners[dest]; dup {
			return nil, models.NewConfigError("includes", "%q and %q both write %s", prev.String(), spec.String(), dest)
		}
		owners[dest] = spec

		requests = append(requests, models.FetchRequest{
			Spec:        spec,
			URL:         BuildURL(d.opts.RawHost, batch.Repo, batch.Ref, spec.RemotePath),
			Destination: dest,
			Headers:     headers.Clone(),
		})
	}

	// A destination may not be a directory another item writes into.
	for _, req := range requests {
		for dir := filepath.Dir(req.Destination); dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			if owner, ok := owners[dir]; ok {
				return nil, models.NewConfigError("includes", "%q writes %s, which %q needs as a directory", owner.String(), dir, req.Spec.String())
			}
		}
	}

	return requests, nil
}

func validateBatch(batch Batch) error {
	if strings.TrimSpace(batch.Repo) == "" {
		return models.NewConfigError("repo", "is required")
	}
	if strings.TrimSpace(batch.Ref) == "" {
		return models.NewConfigError("ref", "is required")
	}
	if strings.TrimSpace(batch.OutputRoot) == "" {
		return models.NewConfigError("output-directory", "is required")
	}
	if len(batch.Includes) == 0 {
		return models.NewConfigError("includes", "at least one include is required")
	}
	return nil
}

// BuildURL returns <host>/<repo>/<ref>/<remotePath>. Segments of ref and
// remotePath are escaped individually so slashes keep their meaning.
func BuildURL(host, repo, ref, remotePath string) string {
	return fmt.Sprintf("%s/%s/%s/%s",
		strings.TrimRight(host, "/"),
		strings.Trim(repo, "/"),
		escapeSegments(ref),
		escapeSegments(strings.TrimLeft(remotePath, "/")))
}

func escapeSegments(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// runItem creates the destination's parent and fetches it, retrying per policy.
func (d *BatchDownloader) runItem(ctx context.Context, req models.FetchRequest) models.FetchOutcome {
	start := time.Now()

	if err := paths.EnsureParent(req.Destination); err != nil {
		outcome := models.Failure(models.ErrFilesystem, "%s", err)
		outcome.DurationSec = time.Since(start).Seconds()
		return outcome
	}

	var outcome models.FetchOutcome
	attempts := 0
	for {
		attempts++

		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				outcome = models.Failure(models.ErrTransport, "rate limit wait: %s", err)
				break
			}
		}

		outcome = d.fetcher.Fetch(ctx, req, d.opts.Timeout)
		if outcome.Succeeded() || !shouldRetry(outcome, attempts, d.opts.Retry) {
			break
		}

		delay := backoff(d.opts.Retry, attempts)
		slog.Debug("retrying",
			"url", req.URL,
			"attempt", attempts,
			"cause", outcome.Failure.Cause,
			"delay", delay)
		if err := sleep(ctx, delay); err != nil {
			break
		}
	}

	outcome.Attempts = attempts
	outcome.DurationSec = time.Since(start).Seconds()
	return outcome
}

// DefaultOptions returns options with the public raw host and a 30s timeout.
func DefaultOptions() Options {
	return Options{
		RawHost: DefaultRawHost,
		Timeout: 30 * time.Second,
		Retry: models.RetryConfig{
			MaxAttempts:    1,
			InitialDelayMs: 1000,
			MaxDelayMs:     30000,
			Multiplier:     2.0,
		},
	}
}
