package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spachava753/rawfetch/internal/config"
	"github.com/spachava753/rawfetch/internal/models"
)

func envMap(m map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "rawfetch.yaml", `repo: acme/widgets
ref: v1.2.0
output_directory: vendor/widgets
includes:
  - src/config.yaml:config/app.yaml
  - README.md:README.md
timeout_sec: 5.5
max_concurrency: 4
pin_ref: true
retry:
  max_attempts: 3
`)

	cfg, err := config.LoadFile(path, config.DefaultRunConfig())
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Repo != "acme/widgets" {
		t.Errorf("expected repo acme/widgets, got %s", cfg.Repo)
	}
	if cfg.Ref != "v1.2.0" {
		t.Errorf("expected ref v1.2.0, got %s", cfg.Ref)
	}
	if len(cfg.Includes) != 2 || cfg.Includes[0] != "src/config.yaml:config/app.yaml" {
		t.Errorf("unexpected includes: %v", cfg.Includes)
	}
	if cfg.TimeoutSec != 5.5 {
		t.Errorf("expected timeout 5.5, got %f", cfg.TimeoutSec)
	}
	if cfg.MaxConcurrency != 4 {
		t.Errorf("expected max concurrency 4, got %d", cfg.MaxConcurrency)
	}
	if !cfg.PinRef {
		t.Error("expected pin_ref to be true")
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("expected 3 attempts, got %d", cfg.Retry.MaxAttempts)
	}
	// Unset nested fields keep their defaults.
	if cfg.Retry.InitialDelayMs != 1000 {
		t.Errorf("expected default initial delay 1000, got %d", cfg.Retry.InitialDelayMs)
	}
	if cfg.RawHost != config.DefaultRawHost {
		t.Errorf("expected default raw host, got %s", cfg.RawHost)
	}
	if !cfg.StepSummary {
		t.Error("expected step summary to default to true")
	}
}

func TestLoadFileTOML(t *testing.T) {
	path := writeFile(t, "rawfetch.toml", `repo = "acme/widgets"
ref = "main"
output_directory = "out"
includes = ["a.txt:a.txt"]
strict = true
max_file_size = "10M"

[retry]
max_attempts = 2
multiplier = 1.5
`)

	cfg, err := config.LoadFile(path, config.DefaultRunConfig())
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.OutputDirectory != "out" {
		t.Errorf("expected output directory out, got %s", cfg.OutputDirectory)
	}
	if !cfg.Strict {
		t.Error("expected strict to be true")
	}
	if cfg.MaxFileSize != "10M" {
		t.Errorf("expected max file size 10M, got %s", cfg.MaxFileSize)
	}
	if cfg.Retry.MaxAttempts != 2 || cfg.Retry.Multiplier != 1.5 {
		t.Errorf("unexpected retry config: %+v", cfg.Retry)
	}
	if cfg.TimeoutSec != 30 {
		t.Errorf("expected default timeout 30, got %f", cfg.TimeoutSec)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), config.DefaultRunConfig()); err == nil {
		t.Error("expected error for missing file")
	}

	bad := writeFile(t, "bad.yaml", "repo: [unterminated")
	if _, err := config.LoadFile(bad, config.DefaultRunConfig()); err == nil {
		t.Error("expected error for malformed yaml")
	}

	json := writeFile(t, "rawfetch.json", "{}")
	_, err := config.LoadFile(json, config.DefaultRunConfig())
	if !models.IsConfigError(err) {
		t.Errorf("expected config error for unsupported extension, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := envMap(map[string]string{
		"INPUT_REPO":             "acme/widgets",
		"INPUT_REF":              "main",
		"INPUT_OUTPUT-DIRECTORY": "  vendored  ",
		"INPUT_INCLUDES":         "src/a.txt:a.txt\n\n   src/b.txt:nested/b.txt  \n",
		"INPUT_GIT-PAT":          "pat-value",
		"INPUT_STRICT":           "True",
		"INPUT_TIMEOUT":          "12",
		"INPUT_RETRIES":          "2",
		"INPUT_STEP-SUMMARY":     "",
	})

	cfg, err := config.ApplyEnv(config.DefaultRunConfig(), env)
	if err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if cfg.OutputDirectory != "vendored" {
		t.Errorf("expected trimmed output directory, got %q", cfg.OutputDirectory)
	}
	want := []string{"src/a.txt:a.txt", "src/b.txt:nested/b.txt"}
	if !reflect.DeepEqual(cfg.Includes, want) {
		t.Errorf("expected includes %v, got %v", want, cfg.Includes)
	}
	if cfg.Credential != "pat-value" {
		t.Errorf("expected credential from git-pat, got %q", cfg.Credential)
	}
	if !cfg.Strict {
		t.Error("expected strict to be true")
	}
	if cfg.TimeoutSec != 12 {
		t.Errorf("expected timeout 12, got %f", cfg.TimeoutSec)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("expected 3 attempts for 2 retries, got %d", cfg.Retry.MaxAttempts)
	}
	if !cfg.StepSummary {
		t.Error("empty input must not override step summary default")
	}
}

func TestApplyEnvKeepsLowerLayers(t *testing.T) {
	base := config.DefaultRunConfig()
	base.Repo = "from/file"
	base.Includes = []string{"x:y"}

	cfg, err := config.ApplyEnv(base, envMap(map[string]string{"INPUT_REPO": "   "}))
	if err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.Repo != "from/file" {
		t.Errorf("blank input must not override repo, got %q", cfg.Repo)
	}
	if !reflect.DeepEqual(cfg.Includes, []string{"x:y"}) {
		t.Errorf("unset includes must not override, got %v", cfg.Includes)
	}
}

func TestApplyEnvInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		field string
	}{
		{"bad bool", "INPUT_STRICT", "yes", "strict"},
		{"bad timeout", "INPUT_TIMEOUT", "soon", "timeout"},
		{"bad concurrency", "INPUT_MAX-CONCURRENCY", "many", "max-concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.ApplyEnv(config.DefaultRunConfig(), envMap(map[string]string{tt.key: tt.value}))
			var cfgErr *models.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected config error, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestApplyTokenFallback(t *testing.T) {
	env := envMap(map[string]string{"GITHUB_TOKEN": "ghs_fallback"})

	cfg := config.ApplyTokenFallback(config.DefaultRunConfig(), env)
	if cfg.Credential != "ghs_fallback" {
		t.Errorf("expected fallback token, got %q", cfg.Credential)
	}

	explicit := config.DefaultRunConfig()
	explicit.Credential = "explicit"
	cfg = config.ApplyTokenFallback(explicit, env)
	if cfg.Credential != "explicit" {
		t.Errorf("fallback must not replace an explicit credential, got %q", cfg.Credential)
	}

	cfg = config.ApplyTokenFallback(config.DefaultRunConfig(), envMap(nil))
	if cfg.Credential != "" {
		t.Errorf("expected no credential, got %q", cfg.Credential)
	}
}

func TestLoadLayering(t *testing.T) {
	path := writeFile(t, "rawfetch.yaml", "repo: file/repo\nref: file-ref\nincludes: [\"a:a\"]\n")
	env := envMap(map[string]string{"INPUT_REF": "env-ref"})

	cfg, err := config.Load(path, env)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Repo != "file/repo" {
		t.Errorf("expected repo from file, got %s", cfg.Repo)
	}
	if cfg.Ref != "env-ref" {
		t.Errorf("expected ref from env, got %s", cfg.Ref)
	}
}

func TestValidate(t *testing.T) {
	valid := func() models.RunConfig {
		cfg := config.DefaultRunConfig()
		cfg.Repo = "acme/widgets"
		cfg.Ref = "main"
		cfg.OutputDirectory = "out"
		cfg.Includes = []string{"a:a"}
		return cfg
	}

	if err := config.Validate(valid()); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*models.RunConfig)
		field  string
	}{
		{"missing repo", func(c *models.RunConfig) { c.Repo = "" }, "repo"},
		{"repo without owner", func(c *models.RunConfig) { c.Repo = "widgets" }, "repo"},
		{"repo with extra segment", func(c *models.RunConfig) { c.Repo = "acme/widgets/extra" }, "repo"},
		{"missing ref", func(c *models.RunConfig) { c.Ref = "" }, "ref"},
		{"missing output", func(c *models.RunConfig) { c.OutputDirectory = " " }, "output-directory"},
		{"no includes", func(c *models.RunConfig) { c.Includes = nil }, "includes"},
		{"zero timeout", func(c *models.RunConfig) { c.TimeoutSec = 0 }, "timeout"},
		{"negative concurrency", func(c *models.RunConfig) { c.MaxConcurrency = -1 }, "max-concurrency"},
		{"negative rate", func(c *models.RunConfig) { c.RateLimit = -2 }, "rate-limit"},
		{"zero attempts", func(c *models.RunConfig) { c.Retry.MaxAttempts = 0 }, "retry.max_attempts"},
		{"bad size", func(c *models.RunConfig) { c.MaxFileSize = "10Q" }, "max-file-size"},
		{"bad log format", func(c *models.RunConfig) { c.LogFormat = "xml" }, "log-format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := config.Validate(cfg)
			var cfgErr *models.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected config error, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestDefaultRunConfig(t *testing.T) {
	cfg := config.DefaultRunConfig()

	if cfg.TimeoutSec != 30 {
		t.Errorf("expected default timeout 30, got %f", cfg.TimeoutSec)
	}
	if cfg.Retry.MaxAttempts != 1 {
		t.Errorf("expected 1 attempt, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Strict {
		t.Error("expected strict to default to false")
	}
	if cfg.APIURL != config.DefaultAPIURL {
		t.Errorf("expected default api url, got %s", cfg.APIURL)
	}
}
