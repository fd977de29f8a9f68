// Package cli wires the rawfetch command line onto the config, executor and
// report packages.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/spachava753/rawfetch/internal/config"
	"github.com/spachava753/rawfetch/internal/executor"
	"github.com/spachava753/rawfetch/internal/logging"
	"github.com/spachava753/rawfetch/internal/models"
	"github.com/spachava753/rawfetch/internal/report"
)

// version is set at build time via -ldflags.
var version = "dev"

// ErrItemsFailed is returned in strict mode when at least one include failed.
var ErrItemsFailed = errors.New("one or more files failed to download")

// Seams for tests.
var (
	lookupEnv config.LookupFunc = os.LookupEnv
	runBatch                    = executor.RunFromConfig
	newRunID                    = func() string { return uuid.NewString() }
)

type rootOptions struct {
	configPath   string
	includes     []string
	includesFile string
	retries      int
	verbose      bool
	cfg          models.RunConfig
}

// NewRootCmd builds the rawfetch command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{cfg: config.DefaultRunConfig()}

	cmd := &cobra.Command{
		Use:   "rawfetch [remote:local ...]",
		Short: "Download files from a GitHub repository into a local directory",
		Long: `rawfetch downloads a list of files from a GitHub repository at a given ref.
Each include is "remote:local": the path in the repository, a colon, and the
path under the output directory to write it to. Files are fetched concurrently;
one failing file never stops the others.

Settings come from defaults, then --config, then GitHub Actions inputs
(INPUT_REPO, INPUT_INCLUDES, ...), then flags. GITHUB_TOKEN is used when no
other credential is given.`,
		Example: `  rawfetch --repo acme/widgets --ref main -o vendor \
    -i src/config.yaml:config/app.yaml -i README.md:README.md`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, args, opts)
		},
	}

	def := opts.cfg
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML or TOML config file")
	f.StringVar(&opts.cfg.Repo, "repo", "", "repository in owner/name form")
	f.StringVar(&opts.cfg.Ref, "ref", "", "branch, tag or commit to read from")
	f.StringVarP(&opts.cfg.OutputDirectory, "output-directory", "o", "", "directory files are written under")
	f.StringArrayVarP(&opts.includes, "include", "i", nil, `"remote:local" pair, repeatable`)
	f.StringVar(&opts.includesFile, "includes-file", "", "file with one remote:local pair per line")
	f.StringVar(&opts.cfg.Credential, "token", "", "personal access token sent as 'Authorization: token <value>'")
	f.StringVar(&opts.cfg.RawHost, "raw-host", def.RawHost, "base URL raw files are served from")
	f.StringVar(&opts.cfg.APIURL, "api-url", def.APIURL, "GitHub API URL used by --pin-ref")
	f.Float64Var(&opts.cfg.TimeoutSec, "timeout", def.TimeoutSec, "per-file timeout in seconds")
	f.IntVar(&opts.cfg.MaxConcurrency, "max-concurrency", 0, "maximum files in flight (0 = all)")
	f.Float64Var(&opts.cfg.RateLimit, "rate-limit", 0, "maximum requests started per second (0 = unlimited)")
	f.StringVar(&opts.cfg.MaxFileSize, "max-file-size", "", "reject files larger than this, e.g. 10M")
	f.IntVar(&opts.retries, "retries", def.Retry.MaxAttempts-1, "retries for timeouts, transport errors, 429 and 5xx")
	f.BoolVar(&opts.cfg.PinRef, "pin-ref", false, "resolve the ref to a commit first so every file comes from it")
	f.BoolVar(&opts.cfg.Strict, "strict", false, "exit non-zero if any file fails")
	f.StringVar(&opts.cfg.ReportJSON, "report-json", "", "also write the summary as JSON to this path")
	f.BoolVar(&opts.cfg.StepSummary, "step-summary", def.StepSummary, "append the summary to $GITHUB_STEP_SUMMARY when set")
	f.StringVar(&opts.cfg.LogLevel, "log-level", "", "debug, info, warn or error (default $LOG_LEVEL or info)")
	f.StringVar(&opts.cfg.LogFormat, "log-format", "", "text or json (default $LOG_FORMAT or text)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "shorthand for --log-level debug")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func runRoot(cmd *cobra.Command, args []string, opts *rootOptions) error {
	cfg, err := resolveConfig(cmd, args, opts)
	if err != nil {
		return err
	}

	runID := newRunID()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr()).With("run_id", runID)
	slog.SetDefault(logger)

	if err := config.Validate(cfg); err != nil {
		return err
	}

	slog.Debug("resolved config",
		"repo", cfg.Repo,
		"ref", cfg.Ref,
		"output_directory", cfg.OutputDirectory,
		"includes", len(cfg.Includes),
		"authenticated", cfg.Credential != "")

	run, err := runBatch(cmd.Context(), cfg, executor.Deps{})
	if err != nil {
		return err
	}

	summary := report.Build(runID, cfg, run.Result, run.Listing)
	if err := report.RenderTerminal(cmd.OutOrStdout(), summary); err != nil {
		return fmt.Errorf("rendering summary: %w", err)
	}
	if cfg.StepSummary {
		if _, err := report.AppendStepSummary(summary); err != nil {
			return err
		}
	}
	if cfg.ReportJSON != "" {
		if err := report.WriteJSON(cfg.ReportJSON, summary); err != nil {
			return err
		}
	}

	slog.Info("batch finished",
		"downloaded", len(summary.Downloaded),
		"failed", len(summary.Failed),
		"duration_sec", summary.DurationSec)

	if cfg.Strict && summary.HasFailures() {
		return fmt.Errorf("%w: %d of %d", ErrItemsFailed, len(summary.Failed), summary.Requested)
	}
	return nil
}

// resolveConfig layers explicitly set flags and positional includes over
// the file and environment configuration.
func resolveConfig(cmd *cobra.Command, args []string, opts *rootOptions) (models.RunConfig, error) {
	cfg, err := config.Load(opts.configPath, lookupEnv)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	changed := flags.Changed
	set := func(name string, apply func()) {
		if changed(name) {
			apply()
		}
	}
	set("repo", func() { cfg.Repo = opts.cfg.Repo })
	set("ref", func() { cfg.Ref = opts.cfg.Ref })
	set("output-directory", func() { cfg.OutputDirectory = opts.cfg.OutputDirectory })
	set("token", func() { cfg.Credential = opts.cfg.Credential })
	set("raw-host", func() { cfg.RawHost = opts.cfg.RawHost })
	set("api-url", func() { cfg.APIURL = opts.cfg.APIURL })
	set("timeout", func() { cfg.TimeoutSec = opts.cfg.TimeoutSec })
	set("max-concurrency", func() { cfg.MaxConcurrency = opts.cfg.MaxConcurrency })
	set("rate-limit", func() { cfg.RateLimit = opts.cfg.RateLimit })
	set("max-file-size", func() { cfg.MaxFileSize = opts.cfg.MaxFileSize })
	set("retries", func() { cfg.Retry.MaxAttempts = opts.retries + 1 })
	set("pin-ref", func() { cfg.PinRef = opts.cfg.PinRef })
	set("strict", func() { cfg.Strict = opts.cfg.Strict })
	set("report-json", func() { cfg.ReportJSON = opts.cfg.ReportJSON })
	set("step-summary", func() { cfg.StepSummary = opts.cfg.StepSummary })
	set("log-level", func() { cfg.LogLevel = opts.cfg.LogLevel })
	set("log-format", func() { cfg.LogFormat = opts.cfg.LogFormat })
	if opts.verbose {
		cfg.LogLevel = "debug"
	}

	var includes []string
	if opts.includesFile != "" {
		data, err := os.ReadFile(opts.includesFile)
		if err != nil {
			return cfg, models.NewConfigError("includes-file", "%s", err)
		}
		includes = append(includes, config.SplitLines(string(data))...)
	}
	includes = append(includes, opts.includes...)
	includes = append(includes, args...)
	if len(includes) > 0 {
		cfg.Includes = includes
	}

	return config.ApplyTokenFallback(cfg, lookupEnv), nil
}
