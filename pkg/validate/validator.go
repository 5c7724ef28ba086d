// Package validate checks every reference in a statement and aggregates the
// failures into a Result.
//
// References are checked in declaration order, one at a time. Within a
// statement a failed repository is asked about once and a failed branch id is
// asked about once; later references to either reuse the recorded failure.
// Nothing is cached across statements.
package validate

import (
	"context"
	"fmt"

	"github.com/exploopio/statement-validator/pkg/core"
	"github.com/exploopio/statement-validator/pkg/errors"
	"github.com/exploopio/statement-validator/pkg/metrics"
	"github.com/exploopio/statement-validator/pkg/purl"
	"github.com/exploopio/statement-validator/pkg/resolve"
	"github.com/exploopio/statement-validator/pkg/statement"
	"github.com/exploopio/statement-validator/pkg/verifier"
)

// CheckPURL names the package identifier check in failures and metrics.
const CheckPURL verifier.Check = "purl"

// Failure is one failed check.
type Failure struct {
	Check verifier.Check

	// Subject is what failed: the raw repository URL, the branch id, the
	// commit id, or the artifact id.
	Subject string

	// Repository is the resolved repository path, empty for PURL failures.
	Repository string

	// Status is the HTTP status returned by the hosting API, 0 when the call
	// never got an answer.
	Status int

	// Cached is set when the failure was taken from an earlier check of the
	// same repository instead of a new remote call.
	Cached bool

	Err error
}

// Message returns the diagnostic line written to the report's error log.
// PURL failures have no log line.
func (f Failure) Message() string {
	switch f.Check {
	case verifier.CheckRepository:
		return fmt.Sprintf("git api failed to get %s with http status code %d", f.Subject, f.Status)
	case verifier.CheckBranch:
		return fmt.Sprintf("git api failed to get branch %s with http status code %d", f.Subject, f.Status)
	case verifier.CheckCommit:
		return fmt.Sprintf("git api failed to get %s with http status code %d", f.Subject, f.Status)
	case verifier.CheckCommitBranch:
		return errors.Detail(f.Err)
	default:
		return ""
	}
}

// =============================================================================
// Validator
// =============================================================================

// Validator runs the checks for one statement at a time.
type Validator struct {
	verifier  verifier.Verifier
	purl      purl.Validator
	resolver  *resolve.Resolver
	logger    core.Logger
	collector metrics.Collector
}

// Option configures a Validator.
type Option func(*Validator)

// WithPURLValidator replaces the packageurl-go parser.
func WithPURLValidator(p purl.Validator) Option {
	return func(v *Validator) {
		v.purl = p
	}
}

// WithResolver sets the repository URL resolver (default: GitHub web origin).
func WithResolver(r *resolve.Resolver) Option {
	return func(v *Validator) {
		v.resolver = r
	}
}

// WithLogger sets the logger used for per-failure debug lines.
func WithLogger(l core.Logger) Option {
	return func(v *Validator) {
		v.logger = l
	}
}

// WithCollector sets the metrics collector.
func WithCollector(c metrics.Collector) Option {
	return func(v *Validator) {
		v.collector = c
	}
}

// New creates a Validator asking ver about repository references.
func New(ver verifier.Verifier, opts ...Option) *Validator {
	v := &Validator{
		verifier: ver,
		purl:     purl.NewParser(),
		resolver: resolve.New(resolve.GitHubWebOrigin),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = core.OrNop(v.logger)
	if v.collector == nil {
		v.collector = &metrics.NopCollector{}
	}
	return v
}

// Validate checks every fix, commit, and artifact of st. Failed checks never
// stop the walk; they are all recorded in the returned Result.
func (v *Validator) Validate(ctx context.Context, st *statement.Statement) *Result {
	p := &pass{
		Validator:              v,
		result:                 NewResult(st.VulnerabilityID),
		seenRepositoryFailures: make(map[string]int),
		seenBranchFailures:     make(map[string]struct{}),
	}

	for _, fix := range st.Fixes {
		for _, ref := range fix.Commits {
			p.checkReference(ctx, fix, ref)
		}
	}
	for _, artifact := range st.Artifacts {
		p.checkArtifact(artifact)
	}
	return p.result
}

// pass holds the state of one Validate call.
type pass struct {
	*Validator

	result *Result

	// raw repository URL -> status of its failed existence check
	seenRepositoryFailures map[string]int
	seenBranchFailures     map[string]struct{}
}

// checkReference runs the repository, branch, commit, and reachability checks
// for one commit reference. Only a repository failure stops the sequence.
func (p *pass) checkReference(ctx context.Context, fix statement.Fix, ref statement.Commit) {
	repo := p.resolver.Normalize(ref.Repository)

	if status, seen := p.seenRepositoryFailures[ref.Repository]; seen {
		p.record(Failure{Check: verifier.CheckRepository, Subject: ref.Repository, Repository: repo, Status: status, Cached: true})
		p.skip(verifier.CheckBranch, verifier.CheckCommit, verifier.CheckCommitBranch)
		return
	}
	if err := p.verifier.RepositoryExists(ctx, repo); err != nil {
		status := errors.StatusCode(err)
		p.seenRepositoryFailures[ref.Repository] = status
		p.record(Failure{Check: verifier.CheckRepository, Subject: ref.Repository, Repository: repo, Status: status, Err: err})
		p.skip(verifier.CheckBranch, verifier.CheckCommit, verifier.CheckCommitBranch)
		return
	}

	if !fix.IsDefaultBranch() {
		if _, failed := p.seenBranchFailures[fix.BranchID]; !failed {
			if err := p.verifier.BranchExists(ctx, repo, fix.BranchID); err != nil {
				p.seenBranchFailures[fix.BranchID] = struct{}{}
				p.record(Failure{Check: verifier.CheckBranch, Subject: fix.BranchID, Repository: repo, Status: errors.StatusCode(err), Err: err})
			}
		}
	}

	if err := p.verifier.CommitExists(ctx, repo, ref.ID); err != nil {
		p.record(Failure{Check: verifier.CheckCommit, Subject: ref.ID, Repository: repo, Status: errors.StatusCode(err), Err: err})
	}
	if err := p.verifier.CommitHasBranch(ctx, repo, ref.ID); err != nil {
		p.record(Failure{Check: verifier.CheckCommitBranch, Subject: ref.ID, Repository: repo, Status: errors.StatusCode(err), Err: err})
	}
}

func (p *pass) checkArtifact(artifact statement.Artifact) {
	if err := p.purl.Validate(artifact.ID); err != nil {
		p.record(Failure{Check: CheckPURL, Subject: artifact.ID, Err: err})
		return
	}
	p.collector.CounterInc(metrics.ChecksTotal.Name, "check", string(CheckPURL), "status", metrics.CheckStatusOK)
}

func (p *pass) skip(checks ...verifier.Check) {
	for _, c := range checks {
		p.collector.CounterInc(metrics.ChecksTotal.Name, "check", string(c), "status", metrics.CheckStatusSkipped)
	}
}

// record files f under the matching error set and the error log.
func (p *pass) record(f Failure) {
	r := p.result
	r.Failures = append(r.Failures, f)

	switch f.Check {
	case verifier.CheckRepository:
		r.RepositoryErrors.Add(f.Subject)
	case verifier.CheckBranch:
		r.BranchErrors.Add(f.Subject)
	case verifier.CheckCommit:
		r.CommitErrors.Add(f.Subject)
	case verifier.CheckCommitBranch:
		r.CommitsWithoutBranchErrors.Add(f.Subject)
	case CheckPURL:
		r.PURLErrors.Add(f.Subject)
		p.collector.CounterInc(metrics.ChecksTotal.Name, "check", string(CheckPURL), "status", metrics.CheckStatusFailed)
	}

	if msg := f.Message(); msg != "" {
		r.ErrorLog.Add(msg)
	}
	if f.Cached {
		p.logger.Debug("[%s] %s check reused earlier failure for %s", r.VulnerabilityID, f.Check, f.Subject)
	} else {
		p.logger.Debug("[%s] %s check failed for %s: %v", r.VulnerabilityID, f.Check, f.Subject, f.Err)
	}
}
