package models

import "time"

// RunConfig is the fully resolved configuration of one invocation. It is built
// once by the config package and passed by value from then on.
type RunConfig struct {
	Repo            string      `yaml:"repo" toml:"repo" json:"repo"`
	Ref             string      `yaml:"ref" toml:"ref" json:"ref"`
	OutputDirectory string      `yaml:"output_directory" toml:"output_directory" json:"output_directory"`
	Includes        []string    `yaml:"includes" toml:"includes" json:"includes"`
	Credential      string      `yaml:"credential,omitempty" toml:"credential,omitempty" json:"-"`
	RawHost         string      `yaml:"raw_host" toml:"raw_host" json:"raw_host"`
	APIURL          string      `yaml:"api_url" toml:"api_url" json:"api_url"`
	TimeoutSec      float64     `yaml:"timeout_sec" toml:"timeout_sec" json:"timeout_sec"`
	MaxConcurrency  int         `yaml:"max_concurrency" toml:"max_concurrency" json:"max_concurrency"`
	RateLimit       float64     `yaml:"rate_limit" toml:"rate_limit" json:"rate_limit"` // requests per second, 0 = unlimited
	MaxFileSize     string      `yaml:"max_file_size,omitempty" toml:"max_file_size,omitempty" json:"max_file_size,omitempty"`
	Retry           RetryConfig `yaml:"retry" toml:"retry" json:"retry"`
	PinRef          bool        `yaml:"pin_ref" toml:"pin_ref" json:"pin_ref"`
	Strict          bool        `yaml:"strict" toml:"strict" json:"strict"`
	ReportJSON      string      `yaml:"report_json,omitempty" toml:"report_json,omitempty" json:"report_json,omitempty"`
	StepSummary     bool        `yaml:"step_summary" toml:"step_summary" json:"step_summary"`
	LogLevel        string      `yaml:"log_level,omitempty" toml:"log_level,omitempty" json:"log_level,omitempty"`
	LogFormat       string      `yaml:"log_format,omitempty" toml:"log_format,omitempty" json:"log_format,omitempty"`
}

// Timeout returns the per-attempt request timeout.
func (c RunConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec * float64(time.Second))
}

type RetryConfig struct {
	MaxAttempts    int     `yaml:"max_attempts" toml:"max_attempts" json:"max_attempts"`
	InitialDelayMs int     `yaml:"initial_delay_ms" toml:"initial_delay_ms" json:"initial_delay_ms"`
	MaxDelayMs     int     `yaml:"max_delay_ms" toml:"max_delay_ms" json:"max_delay_ms"`
	Multiplier     float64 `yaml:"multiplier" toml:"multiplier" json:"multiplier"`
}
