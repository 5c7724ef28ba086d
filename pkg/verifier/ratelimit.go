package verifier

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/exploopio/statement-validator/pkg/errors"
)

// DefaultRateLimit is GitHub's authenticated request budget per hour.
const DefaultRateLimit = 5000

// NewLimiter converts a requests-per-hour budget into a token bucket.
// A non-positive budget returns nil (unlimited).
func NewLimiter(perHour, burst int) *rate.Limiter {
	if perHour <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 10
	}
	return rate.NewLimiter(rate.Limit(float64(perHour)/3600.0), burst)
}

// rateLimited waits on a limiter before every call. Waiting is pacing only:
// a failed call is still returned as is.
type rateLimited struct {
	next    Verifier
	limiter *rate.Limiter
}

// RateLimited wraps v so each check first waits for the limiter. A nil
// limiter returns v unchanged.
func RateLimited(v Verifier, limiter *rate.Limiter) Verifier {
	if limiter == nil {
		return v
	}
	return &rateLimited{next: v, limiter: limiter}
}

func (r *rateLimited) wait(ctx context.Context, op string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return errors.E(errors.KindRateLimit, op, "rate limit wait", err)
	}
	return nil
}

func (r *rateLimited) RepositoryExists(ctx context.Context, repo string) error {
	if err := r.wait(ctx, "verifier.RepositoryExists"); err != nil {
		return err
	}
	return r.next.RepositoryExists(ctx, repo)
}

func (r *rateLimited) BranchExists(ctx context.Context, repo, branch string) error {
	if err := r.wait(ctx, "verifier.BranchExists"); err != nil {
		return err
	}
	return r.next.BranchExists(ctx, repo, branch)
}

func (r *rateLimited) CommitExists(ctx context.Context, repo, sha string) error {
	if err := r.wait(ctx, "verifier.CommitExists"); err != nil {
		return err
	}
	return r.next.CommitExists(ctx, repo, sha)
}

func (r *rateLimited) CommitHasBranch(ctx context.Context, repo, sha string) error {
	if err := r.wait(ctx, "verifier.CommitHasBranch"); err != nil {
		return err
	}
	return r.next.CommitHasBranch(ctx, repo, sha)
}
