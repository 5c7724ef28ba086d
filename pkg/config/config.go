// Package config holds the validator run configuration.
//
// A YAML file provides the base values; command line flags and environment
// variables are applied on top by the caller:
//
//	provider: github
//	dir: ./statements
//	output: output.xlsx
//	compression_level: 3
//	rate_limit: 5000
//	github:
//	  token: ${GITHUB_TOKEN}
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/exploopio/statement-validator/pkg/compress"
	"github.com/exploopio/statement-validator/pkg/errors"
	"github.com/exploopio/statement-validator/pkg/report"
	"github.com/exploopio/statement-validator/pkg/resolve"
	"github.com/exploopio/statement-validator/pkg/verifier"
	"github.com/exploopio/statement-validator/pkg/verifier/github"
	"github.com/exploopio/statement-validator/pkg/verifier/gitlab"
)

// Supported hosting providers.
const (
	ProviderGitHub = "github"
	ProviderGitLab = "gitlab"
)

// Token environment variables, by provider.
const (
	EnvGitHubToken = "GITHUB_TOKEN"
	EnvGitLabToken = "GITLAB_TOKEN"
)

// Config is the full validator configuration.
type Config struct {
	// Dir is the statements directory.
	Dir string `yaml:"dir"`

	// Provider selects the hosting API backend: "github" or "gitlab".
	Provider string `yaml:"provider"`

	// HostPrefix is stripped from repository URLs. Defaults to the provider's
	// web origin.
	HostPrefix string `yaml:"host_prefix"`

	// RateLimit is the request budget per hour. 0 disables pacing.
	RateLimit int `yaml:"rate_limit"`

	// Output is the report path. The extension selects the format.
	Output string `yaml:"output"`

	// CompressionLevel applies to .json.zst and .json.gz reports, 1 (fastest)
	// to 9 (best).
	CompressionLevel int `yaml:"compression_level"`

	// MetricsFile, when set, receives Prometheus text metrics after the run.
	MetricsFile string `yaml:"metrics_file"`

	// AuditLog, when set, receives a JSON-lines trail of the run.
	AuditLog string `yaml:"audit_log"`

	Verbose bool `yaml:"verbose"`

	GitHub github.Config `yaml:"github"`
	GitLab gitlab.Config `yaml:"gitlab"`
}

// Default returns the configuration used when nothing is specified.
func Default() *Config {
	return &Config{
		Provider:  ProviderGitHub,
		RateLimit: verifier.DefaultRateLimit,
		Output:    report.DefaultPath,

		CompressionLevel: int(compress.LevelDefault),
		GitHub: github.Config{
			BaseURL:       github.DefaultBaseURL,
			MaxBranchScan: github.DefaultMaxBranchScan,
		},
		GitLab: gitlab.Config{
			BaseURL: gitlab.DefaultBaseURL,
		},
	}
}

// Load reads a YAML file over the defaults. Environment variables in the file
// are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.E(errors.KindIO, "config.Load", "read config", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, errors.E(errors.KindInvalidInput, "config.Load", "parse config", err)
	}
	return cfg, nil
}

// GetEnvOrFlag returns flagVal, or the named environment variable when the
// flag is empty.
func GetEnvOrFlag(flagVal, envName string) string {
	if flagVal != "" {
		return flagVal
	}
	return os.Getenv(envName)
}

// Token returns the token of the selected provider.
func (c *Config) Token() string {
	if c.Provider == ProviderGitLab {
		return c.GitLab.Token
	}
	return c.GitHub.Token
}

// SetToken sets the token of the selected provider.
func (c *Config) SetToken(token string) {
	if c.Provider == ProviderGitLab {
		c.GitLab.Token = token
		return
	}
	c.GitHub.Token = token
}

// TokenEnv returns the environment variable holding the provider token.
func (c *Config) TokenEnv() string {
	if c.Provider == ProviderGitLab {
		return EnvGitLabToken
	}
	return EnvGitHubToken
}

// SetBaseURL sets the API base URL of the selected provider.
func (c *Config) SetBaseURL(baseURL string) {
	if c.Provider == ProviderGitLab {
		c.GitLab.BaseURL = baseURL
		return
	}
	c.GitHub.BaseURL = baseURL
}

// ResolvedHostPrefix returns HostPrefix, or the web origin repository URLs
// are expected to start with for the selected provider.
func (c *Config) ResolvedHostPrefix() string {
	if c.HostPrefix != "" {
		return c.HostPrefix
	}
	if c.Provider == ProviderGitLab {
		if c.GitLab.BaseURL != "" {
			return strings.TrimSuffix(c.GitLab.BaseURL, "/")
		}
		return gitlab.DefaultBaseURL
	}
	return resolve.GitHubWebOrigin
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return errors.ErrMissingDirectory
	}
	if c.Provider != ProviderGitHub && c.Provider != ProviderGitLab {
		return errors.E(errors.KindInvalidInput, "config.Validate",
			fmt.Sprintf("unknown provider %q (want %s or %s)", c.Provider, ProviderGitHub, ProviderGitLab), errors.ErrInvalidConfig)
	}
	if c.Token() == "" {
		return errors.E(errors.KindAuthentication, "config.Validate",
			fmt.Sprintf("no %s token (pass it as an argument, with -token, or in %s)", c.Provider, c.TokenEnv()), errors.ErrMissingToken)
	}
	if c.Output == "" {
		return errors.E(errors.KindInvalidInput, "config.Validate", "output path is required", errors.ErrInvalidConfig)
	}
	if !compress.Level(c.CompressionLevel).Valid() {
		return errors.E(errors.KindInvalidInput, "config.Validate",
			fmt.Sprintf("compression_level must be between %d and %d", compress.LevelFastest, compress.LevelBest), errors.ErrInvalidConfig)
	}
	if c.RateLimit < 0 {
		return errors.E(errors.KindInvalidInput, "config.Validate", "rate_limit must not be negative", errors.ErrInvalidConfig)
	}
	return nil
}
