package verifier

import (
	"context"

	"github.com/exploopio/statement-validator/pkg/core"
	"github.com/exploopio/statement-validator/pkg/errors"
	"github.com/exploopio/statement-validator/pkg/metrics"
)

type instrumented struct {
	next      Verifier
	collector metrics.Collector
	logger    core.Logger
}

// Instrumented wraps v so every check is timed, counted, and logged at debug
// level. Nil collector or logger fall back to no-op implementations.
func Instrumented(v Verifier, collector metrics.Collector, logger core.Logger) Verifier {
	if collector == nil {
		collector = &metrics.NopCollector{}
	}
	return &instrumented{next: v, collector: collector, logger: core.OrNop(logger)}
}

func (i *instrumented) observe(check Check, subject string, call func() error) error {
	timer := metrics.NewTimer(i.collector, metrics.VerifierRequestDuration.Name, "check", string(check))
	err := call()
	d := timer.ObserveDuration()

	status := metrics.CheckStatusOK
	if err != nil {
		status = metrics.CheckStatusFailed
		i.logger.Debug("%s check failed for %s after %s: status=%d %s", check, subject, d, errors.StatusCode(err), errors.Detail(err))
	} else {
		i.logger.Debug("%s check passed for %s in %s", check, subject, d)
	}
	i.collector.CounterInc(metrics.ChecksTotal.Name, "check", string(check), "status", status)
	return err
}

func (i *instrumented) RepositoryExists(ctx context.Context, repo string) error {
	return i.observe(CheckRepository, repo, func() error {
		return i.next.RepositoryExists(ctx, repo)
	})
}

func (i *instrumented) BranchExists(ctx context.Context, repo, branch string) error {
	return i.observe(CheckBranch, repo+"@"+branch, func() error {
		return i.next.BranchExists(ctx, repo, branch)
	})
}

func (i *instrumented) CommitExists(ctx context.Context, repo, sha string) error {
	return i.observe(CheckCommit, repo+"@"+sha, func() error {
		return i.next.CommitExists(ctx, repo, sha)
	})
}

func (i *instrumented) CommitHasBranch(ctx context.Context, repo, sha string) error {
	return i.observe(CheckCommitBranch, repo+"@"+sha, func() error {
		return i.next.CommitHasBranch(ctx, repo, sha)
	})
}
