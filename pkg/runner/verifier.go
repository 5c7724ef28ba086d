package runner

import (
	"context"

	"github.com/exploopio/statement-validator/pkg/config"
	"github.com/exploopio/statement-validator/pkg/core"
	"github.com/exploopio/statement-validator/pkg/errors"
	"github.com/exploopio/statement-validator/pkg/metrics"
	"github.com/exploopio/statement-validator/pkg/verifier"
	"github.com/exploopio/statement-validator/pkg/verifier/github"
	"github.com/exploopio/statement-validator/pkg/verifier/gitlab"
)

// NewVerifier builds the configured backend, paced by the rate limit and
// instrumented with collector and logger.
func NewVerifier(ctx context.Context, cfg *config.Config, collector metrics.Collector, logger core.Logger) (verifier.Verifier, error) {
	var (
		backend verifier.Verifier
		err     error
	)
	switch cfg.Provider {
	case config.ProviderGitHub:
		gh := cfg.GitHub
		backend, err = github.New(ctx, &gh)
	case config.ProviderGitLab:
		gl := cfg.GitLab
		backend, err = gitlab.New(&gl)
	default:
		return nil, errors.E(errors.KindInvalidInput, "runner.NewVerifier", "unknown provider "+cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	limited := verifier.RateLimited(backend, verifier.NewLimiter(cfg.RateLimit, 0))
	return verifier.Instrumented(limited, collector, logger), nil
}
