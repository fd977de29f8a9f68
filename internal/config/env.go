package config

import (
	"strconv"
	"strings"

	"github.com/spachava753/rawfetch/internal/models"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// InputKey returns the environment variable GitHub Actions uses for an input:
// INPUT_ followed by the upper-cased name, spaces replaced by underscores.
func InputKey(name string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
}

// Input returns the trimmed value of an action input, or "" when unset.
func Input(lookup LookupFunc, name string) string {
	v, _ := lookup(InputKey(name))
	return strings.TrimSpace(v)
}

// MultilineInput splits an input on newlines, trimming each line and
// dropping empty ones.
func MultilineInput(lookup LookupFunc, name string) []string {
	v, _ := lookup(InputKey(name))
	return SplitLines(v)
}

// SplitLines splits s on newlines, trimming each line and dropping empty ones.
func SplitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// BoolInput parses a boolean input the way the Actions toolkit does: only
// true/True/TRUE and false/False/FALSE are accepted.
func BoolInput(lookup LookupFunc, name string) (value, set bool, err error) {
	v := Input(lookup, name)
	switch v {
	case "":
		return false, false, nil
	case "true", "True", "TRUE":
		return true, true, nil
	case "false", "False", "FALSE":
		return false, true, nil
	default:
		return false, false, models.NewConfigError(name, "%q is not a boolean (true|True|TRUE|false|False|FALSE)", v)
	}
}

// ApplyEnv overlays action inputs onto cfg. Unset or empty
// inputs leave the current value alone.
func ApplyEnv(cfg models.RunConfig, lookup LookupFunc) (models.RunConfig, error) {
	setString := func(dst *string, name string) {
		if v := Input(lookup, name); v != "" {
			*dst = v
		}
	}
	setString(&cfg.Repo, "repo")
	setString(&cfg.Ref, "ref")
	setString(&cfg.OutputDirectory, "output-directory")
	setString(&cfg.Credential, "git-pat")
	setString(&cfg.RawHost, "raw-host")
	setString(&cfg.APIURL, "api-url")
	setString(&cfg.MaxFileSize, "max-file-size")
	setString(&cfg.ReportJSON, "report-json")

	if includes := MultilineInput(lookup, "includes"); len(includes) > 0 {
		cfg.Includes = includes
	}

	if v := Input(lookup, "timeout"); v != "" {
		sec, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, models.NewConfigError("timeout", "%q is not a number of seconds", v)
		}
		cfg.TimeoutSec = sec
	}
	if v := Input(lookup, "max-concurrency"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, models.NewConfigError("max-concurrency", "%q is not an integer", v)
		}
		cfg.MaxConcurrency = n
	}
	if v := Input(lookup, "retries"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, models.NewConfigError("retries", "%q is not an integer", v)
		}
		cfg.Retry.MaxAttempts = n + 1
	}

	for name, dst := range map[string]*bool{
		"strict":       &cfg.Strict,
		"pin-ref":      &cfg.PinRef,
		"step-summary": &cfg.StepSummary,
	} {
		v, set, err := BoolInput(lookup, name)
		if err != nil {
			return cfg, err
		}
		if set {
			*dst = v
		}
	}

	return cfg, nil
}

// ApplyTokenFallback uses GITHUB_TOKEN as the credential when no other layer
// supplied one. It runs last so an explicit --token or git-pat always wins.
func ApplyTokenFallback(cfg models.RunConfig, lookup LookupFunc) models.RunConfig {
	if cfg.Credential != "" {
		return cfg
	}
	if tok, ok := lookup("GITHUB_TOKEN"); ok {
		cfg.Credential = strings.TrimSpace(tok)
	}
	return cfg
}
