// Package github verifies statement references against the GitHub REST API.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"

	"github.com/exploopio/statement-validator/pkg/errors"
	"github.com/exploopio/statement-validator/pkg/resolve"
	"github.com/exploopio/statement-validator/pkg/verifier"
)

const (
	// DefaultBaseURL is the default GitHub API base URL.
	DefaultBaseURL = "https://api.github.com/"

	// DefaultMaxBranchScan bounds the branch comparison fallback.
	DefaultMaxBranchScan = 50

	// maxBranchRedirects is how many renames GetBranch follows.
	maxBranchRedirects = 3
)

// Config holds GitHub verifier configuration.
type Config struct {
	// Token is a personal access token or app token. Empty means anonymous.
	Token string `yaml:"token" json:"token"`

	// BaseURL for the GitHub API. For GitHub Enterprise use
	// https://<host>/api/v3/.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// MaxBranchScan bounds how many non-default branches CommitHasBranch
	// compares against (default 50).
	MaxBranchScan int `yaml:"max_branch_scan" json:"max_branch_scan"`
}

// Verifier checks repositories, branches, and commits through go-github.
type Verifier struct {
	client        *github.Client
	maxBranchScan int
}

// New creates a GitHub verifier.
func New(ctx context.Context, cfg *Config) (*Verifier, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	var httpClient *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(ctx, ts)
	}
	client := github.NewClient(httpClient)

	if cfg.BaseURL != "" && cfg.BaseURL != DefaultBaseURL {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, errors.E(errors.KindInvalidInput, "github.New", "invalid base URL", err)
		}
		client.BaseURL = u
	}

	return &Verifier{client: client, maxBranchScan: branchScan(cfg.MaxBranchScan)}, nil
}

// NewWithClient wraps an existing go-github client.
func NewWithClient(client *github.Client, maxBranchScan int) *Verifier {
	return &Verifier{client: client, maxBranchScan: branchScan(maxBranchScan)}
}

func branchScan(n int) int {
	if n <= 0 {
		return DefaultMaxBranchScan
	}
	return n
}

func split(op, repo string) (string, string, error) {
	owner, name, ok := resolve.SplitOwnerRepo(repo)
	if !ok {
		return "", "", errors.E(errors.KindInvalidInput, op, fmt.Sprintf("%q is not an owner/repository path", repo))
	}
	return owner, name, nil
}

// RepositoryExists checks GET /repos/{owner}/{repo}.
func (v *Verifier) RepositoryExists(ctx context.Context, repo string) error {
	owner, name, err := split("github.RepositoryExists", repo)
	if err != nil {
		return err
	}
	_, resp, err := v.client.Repositories.Get(ctx, owner, name)
	return apiError("github.RepositoryExists", resp, err)
}

// BranchExists checks GET /repos/{owner}/{repo}/branches/{branch}.
func (v *Verifier) BranchExists(ctx context.Context, repo, branch string) error {
	owner, name, err := split("github.BranchExists", repo)
	if err != nil {
		return err
	}
	_, resp, err := v.client.Repositories.GetBranch(ctx, owner, name, branch, maxBranchRedirects)
	return apiError("github.BranchExists", resp, err)
}

// CommitExists checks GET /repos/{owner}/{repo}/commits/{sha}.
func (v *Verifier) CommitExists(ctx context.Context, repo, sha string) error {
	owner, name, err := split("github.CommitExists", repo)
	if err != nil {
		return err
	}
	_, resp, err := v.client.Repositories.GetCommit(ctx, owner, name, sha, nil)
	return apiError("github.CommitExists", resp, err)
}

// CommitHasBranch fails when no branch contains sha. Branch heads are checked
// first, then the default branch, then up to MaxBranchScan other branches.
func (v *Verifier) CommitHasBranch(ctx context.Context, repo, sha string) error {
	const op = "github.CommitHasBranch"
	owner, name, err := split(op, repo)
	if err != nil {
		return err
	}

	heads, resp, err := v.client.Repositories.ListBranchesHeadCommit(ctx, owner, name, sha)
	if err != nil {
		return apiError(op, resp, err)
	}
	if len(heads) > 0 {
		return nil
	}

	r, resp, err := v.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return apiError(op, resp, err)
	}
	defaultBranch := r.GetDefaultBranch()
	if defaultBranch != "" {
		found, err := v.contains(ctx, owner, name, defaultBranch, sha)
		if err != nil || found {
			return err
		}
	}

	scanned := 0
	opts := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for scanned < v.maxBranchScan {
		branches, resp, err := v.client.Repositories.ListBranches(ctx, owner, name, opts)
		if err != nil {
			return apiError(op, resp, err)
		}
		for _, b := range branches {
			if b.GetName() == defaultBranch {
				continue
			}
			if scanned >= v.maxBranchScan {
				break
			}
			scanned++
			found, err := v.contains(ctx, owner, name, b.GetName(), sha)
			if err != nil || found {
				return err
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return errors.NewAPIError(http.StatusNotFound, "commit_without_branch",
		fmt.Sprintf("commit %s of repository %s is not part of any branch", sha, repo))
}

// contains reports whether sha is an ancestor of (or equal to) branch.
func (v *Verifier) contains(ctx context.Context, owner, name, branch, sha string) (bool, error) {
	cmp, resp, err := v.client.Repositories.CompareCommits(ctx, owner, name, branch, sha, &github.ListOptions{PerPage: 1})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, apiError("github.CommitHasBranch", resp, err)
	}
	switch cmp.GetStatus() {
	case "identical", "behind":
		return true, nil
	default:
		return false, nil
	}
}

// apiError maps a go-github call outcome onto the verifier error contract.
func apiError(op string, resp *github.Response, err error) error {
	if err == nil {
		return nil
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return errors.NewAPIError(ghErr.Response.StatusCode, "", ghErr.Message)
	}
	var rlErr *github.RateLimitError
	if errors.As(err, &rlErr) && rlErr.Response != nil {
		return errors.NewAPIError(rlErr.Response.StatusCode, "rate_limited", rlErr.Message)
	}
	if resp != nil && resp.Response != nil {
		return errors.NewAPIError(resp.StatusCode, "", err.Error())
	}
	return errors.E(errors.KindNetwork, op, err)
}

var _ verifier.Verifier = (*Verifier)(nil)
