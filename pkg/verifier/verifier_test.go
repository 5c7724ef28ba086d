package verifier_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/exploopio/statement-validator/pkg/core"
	"github.com/exploopio/statement-validator/pkg/errors"
	"github.com/exploopio/statement-validator/pkg/metrics"
	"github.com/exploopio/statement-validator/pkg/verifier"
	"github.com/exploopio/statement-validator/pkg/verifier/verifiertest"
)

func TestNewLimiter(t *testing.T) {
	if verifier.NewLimiter(0, 5) != nil {
		t.Error("NewLimiter(0) should be unlimited")
	}

	l := verifier.NewLimiter(3600, 0)
	if l == nil {
		t.Fatal("NewLimiter(3600) returned nil")
	}
	if l.Limit() != rate.Limit(1) {
		t.Errorf("Limit() = %v, want 1/s", l.Limit())
	}
	if l.Burst() != 10 {
		t.Errorf("Burst() = %d, want default 10", l.Burst())
	}
}

func TestRateLimited_PassesThrough(t *testing.T) {
	stub := verifiertest.New().FailCommit("/org/repo", "abc", 422)
	v := verifier.RateLimited(stub, rate.NewLimiter(rate.Inf, 1))
	ctx := context.Background()

	if err := v.RepositoryExists(ctx, "/org/repo"); err != nil {
		t.Errorf("RepositoryExists() = %v", err)
	}
	if err := v.BranchExists(ctx, "/org/repo", "main"); err != nil {
		t.Errorf("BranchExists() = %v", err)
	}
	if err := v.CommitExists(ctx, "/org/repo", "abc"); errors.StatusCode(err) != 422 {
		t.Errorf("CommitExists() status = %d, want 422", errors.StatusCode(err))
	}
	if err := v.CommitHasBranch(ctx, "/org/repo", "abc"); err != nil {
		t.Errorf("CommitHasBranch() = %v", err)
	}
	if len(stub.Calls()) != 4 {
		t.Errorf("calls = %d, want 4", len(stub.Calls()))
	}
}

func TestRateLimited_NilLimiter(t *testing.T) {
	stub := verifiertest.New()
	if verifier.RateLimited(stub, nil) != verifier.Verifier(stub) {
		t.Error("nil limiter should return the verifier unchanged")
	}
}

func TestRateLimited_CancelledContext(t *testing.T) {
	stub := verifiertest.New()
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	limiter.Allow() // drain the burst
	v := verifier.RateLimited(stub, limiter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := v.RepositoryExists(ctx, "/org/repo")
	if errors.GetKind(err) != errors.KindRateLimit {
		t.Errorf("error kind = %v, want rate_limit", errors.GetKind(err))
	}
	if len(stub.Calls()) != 0 {
		t.Error("verifier should not be called when the wait fails")
	}
}

func TestInstrumented(t *testing.T) {
	stub := verifiertest.New().FailBranch("/org/repo", "dev", 404)
	collector := metrics.NewInMemoryCollector()
	var buf bytes.Buffer
	logger := core.NewDefaultLogger("test", core.LogLevelDebug)
	logger.SetOutput(&buf)

	v := verifier.Instrumented(stub, collector, logger)
	ctx := context.Background()

	_ = v.RepositoryExists(ctx, "/org/repo")
	_ = v.BranchExists(ctx, "/org/repo", "dev")
	_ = v.CommitExists(ctx, "/org/repo", "abc")
	_ = v.CommitHasBranch(ctx, "/org/repo", "abc")

	if got := collector.GetCounter(metrics.ChecksTotal.Name, "check", "branch", "status", metrics.CheckStatusFailed); got != 1 {
		t.Errorf("failed branch checks = %v, want 1", got)
	}
	for _, check := range []verifier.Check{verifier.CheckRepository, verifier.CheckCommit, verifier.CheckCommitBranch} {
		if got := collector.GetCounter(metrics.ChecksTotal.Name, "check", string(check), "status", metrics.CheckStatusOK); got != 1 {
			t.Errorf("ok %s checks = %v, want 1", check, got)
		}
		if got := collector.GetHistogram(metrics.VerifierRequestDuration.Name, "check", string(check)); len(got) != 1 {
			t.Errorf("%s durations = %d, want 1", check, len(got))
		}
	}
	if !strings.Contains(buf.String(), "branch check failed for /org/repo@dev") {
		t.Errorf("missing debug line for failed check:\n%s", buf.String())
	}
}

func TestChecks(t *testing.T) {
	got := verifier.Checks()
	want := []verifier.Check{verifier.CheckRepository, verifier.CheckBranch, verifier.CheckCommit, verifier.CheckCommitBranch}
	if len(got) != len(want) {
		t.Fatalf("Checks() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Checks()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
