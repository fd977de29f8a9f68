package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spachava753/rawfetch/internal/fetch"
	"github.com/spachava753/rawfetch/internal/models"
	"github.com/spachava753/rawfetch/internal/reconcile"
	"github.com/spachava753/rawfetch/internal/revision"
	"github.com/spachava753/rawfetch/internal/util"
)

// RefResolver pins a ref to a commit SHA.
type RefResolver interface {
	Resolve(ctx context.Context, repo, ref string) (string, error)
}

// Run is everything a report needs about one invocation.
type Run struct {
	Config  models.RunConfig
	Result  *models.BatchResult
	Listing models.FileListing
}

// Deps lets callers swap the network-facing collaborators. Nil fields are
// built from the config.
type Deps struct {
	Fetcher  Fetcher
	Resolver RefResolver
}

// OptionsFromConfig maps a RunConfig onto downloader options.
func OptionsFromConfig(cfg models.RunConfig) Options {
	opts := DefaultOptions()
	if cfg.RawHost != "" {
		opts.RawHost = cfg.RawHost
	}
	if cfg.TimeoutSec > 0 {
		opts.Timeout = cfg.Timeout()
	}
	opts.MaxConcurrency = cfg.MaxConcurrency
	opts.RateLimit = cfg.RateLimit
	if cfg.Retry.MaxAttempts > 0 {
		opts.Retry = cfg.Retry
	}
	return opts
}

// RunFromConfig fetches the configured batch and reconciles the output root.
// Configuration errors are returned before any network activity; per-item
// failures are in Run.Result.
func RunFromConfig(ctx context.Context, cfg models.RunConfig, deps Deps) (*Run, error) {
	fetcher := deps.Fetcher
	if fetcher == nil {
		maxBytes, err := util.ParseSize(cfg.MaxFileSize)
		if err != nil {
			return nil, models.NewConfigError("max-file-size", "%s", err)
		}
		fopts := fetch.DefaultOptions()
		fopts.MaxBytes = maxBytes
		fetcher = fetch.NewClient(fopts)
	}

	downloader := NewBatchDownloader(fetcher, OptionsFromConfig(cfg))
	batch := Batch{
		Repo:       cfg.Repo,
		Ref:        cfg.Ref,
		OutputRoot: cfg.OutputDirectory,
		Credential: cfg.Credential,
		Includes:   cfg.Includes,
	}

	// Validate everything up front so a bad include fails before the ref lookup too.
	if _, err := downloader.Plan(batch); err != nil {
		return nil, err
	}

	var commit string
	if cfg.PinRef {
		resolver := deps.Resolver
		if resolver == nil {
			r, err := revision.NewResolver(ctx, cfg.Credential, cfg.APIURL)
			if err != nil {
				return nil, fmt.Errorf("creating ref resolver: %w", err)
			}
			resolver = r
		}
		sha, err := resolver.Resolve(ctx, cfg.Repo, cfg.Ref)
		if err != nil {
			return nil, fmt.Errorf("pinning ref: %w", err)
		}
		slog.Info("pinned ref", "ref", cfg.Ref, "commit", sha)
		commit = sha
		batch.Ref = sha
	}

	result, err := downloader.Run(ctx, batch)
	if err != nil {
		return nil, err
	}
	result.Ref = cfg.Ref
	result.Commit = commit

	listing, err := reconcile.ListFiles(cfg.OutputDirectory)
	if err != nil {
		return nil, fmt.Errorf("reconciling output directory: %w", err)
	}

	return &Run{Config: cfg, Result: result, Listing: listing}, nil
}
