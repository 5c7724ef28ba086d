// Package verifier defines the questions the validator asks a source hosting
// service, and decorators shared by every backend.
//
// Each check returns nil when the reference is real. A negative answer from the
// service is an *errors.APIError carrying the HTTP status and detail body; a
// call that never reached the service is an *errors.Error of KindNetwork.
// Backends never retry.
package verifier

import "context"

// Verifier answers existence questions about repository references.
// Repository arguments are paths produced by the resolve package.
type Verifier interface {
	RepositoryExists(ctx context.Context, repo string) error
	BranchExists(ctx context.Context, repo, branch string) error
	CommitExists(ctx context.Context, repo, sha string) error

	// CommitHasBranch reports whether sha is reachable from at least one branch.
	CommitHasBranch(ctx context.Context, repo, sha string) error
}

// Check names one of the Verifier questions.
type Check string

const (
	CheckRepository   Check = "repository"
	CheckBranch       Check = "branch"
	CheckCommit       Check = "commit"
	CheckCommitBranch Check = "commit_branch"
)

// Checks lists every Check in the order the validator asks them.
func Checks() []Check {
	return []Check{CheckRepository, CheckBranch, CheckCommit, CheckCommitBranch}
}
