// Package verifiertest provides a scriptable in-memory Verifier for tests.
package verifiertest

import (
	"context"
	"sync"

	"github.com/exploopio/statement-validator/pkg/errors"
	"github.com/exploopio/statement-validator/pkg/verifier"
)

// Call records one verifier invocation.
type Call struct {
	Check  verifier.Check
	Repo   string
	Branch string
	SHA    string
}

// Stub answers every check successfully unless a failure was registered for
// the reference. It records every call.
type Stub struct {
	mu       sync.Mutex
	failures map[string]error
	calls    []Call
}

// New creates an empty Stub.
func New() *Stub {
	return &Stub{failures: make(map[string]error)}
}

func key(check verifier.Check, parts ...string) string {
	k := string(check)
	for _, p := range parts {
		k += "|" + p
	}
	return k
}

// FailRepository makes RepositoryExists(repo) fail with the given status.
func (s *Stub) FailRepository(repo string, status int) *Stub {
	return s.fail(key(verifier.CheckRepository, repo), status, "Not Found")
}

// FailBranch makes BranchExists(repo, branch) fail with the given status.
func (s *Stub) FailBranch(repo, branch string, status int) *Stub {
	return s.fail(key(verifier.CheckBranch, repo, branch), status, "Branch not found")
}

// FailCommit makes CommitExists(repo, sha) fail with the given status.
func (s *Stub) FailCommit(repo, sha string, status int) *Stub {
	return s.fail(key(verifier.CheckCommit, repo, sha), status, "No commit found for SHA: "+sha)
}

// FailCommitBranch makes CommitHasBranch(repo, sha) fail with detail.
func (s *Stub) FailCommitBranch(repo, sha, detail string) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[key(verifier.CheckCommitBranch, repo, sha)] = errors.NewAPIError(404, "commit_without_branch", detail)
	return s
}

// FailWith registers an arbitrary error for a check and its arguments.
func (s *Stub) FailWith(check verifier.Check, err error, args ...string) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[key(check, args...)] = err
	return s
}

func (s *Stub) fail(k string, status int, detail string) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[k] = errors.NewAPIError(status, "", detail)
	return s
}

func (s *Stub) answer(call Call, k string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	return s.failures[k]
}

func (s *Stub) RepositoryExists(_ context.Context, repo string) error {
	return s.answer(Call{Check: verifier.CheckRepository, Repo: repo}, key(verifier.CheckRepository, repo))
}

func (s *Stub) BranchExists(_ context.Context, repo, branch string) error {
	return s.answer(Call{Check: verifier.CheckBranch, Repo: repo, Branch: branch}, key(verifier.CheckBranch, repo, branch))
}

func (s *Stub) CommitExists(_ context.Context, repo, sha string) error {
	return s.answer(Call{Check: verifier.CheckCommit, Repo: repo, SHA: sha}, key(verifier.CheckCommit, repo, sha))
}

func (s *Stub) CommitHasBranch(_ context.Context, repo, sha string) error {
	return s.answer(Call{Check: verifier.CheckCommitBranch, Repo: repo, SHA: sha}, key(verifier.CheckCommitBranch, repo, sha))
}

// Calls returns a copy of the recorded calls.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Count returns how many times check was called.
func (s *Stub) Count(check verifier.Check) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Check == check {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls but keeps registered failures.
func (s *Stub) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

var _ verifier.Verifier = (*Stub)(nil)
