// Package gitlab verifies statement references against the GitLab REST API.
package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/exploopio/statement-validator/pkg/errors"
	"github.com/exploopio/statement-validator/pkg/verifier"
)

// DefaultBaseURL is the GitLab.com server URL.
const DefaultBaseURL = "https://gitlab.com"

// Config holds GitLab verifier configuration.
type Config struct {
	// Token is a personal, project, or group access token.
	Token string `yaml:"token" json:"token"`

	// BaseURL is the GitLab server URL (default: https://gitlab.com).
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// Verifier checks projects, branches, and commits through client-go.
type Verifier struct {
	client *gitlab.Client
}

// New creates a GitLab verifier. The client's built-in retries are disabled:
// every failed call is final.
func New(cfg *Config) (*Verifier, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client, err := gitlab.NewClient(cfg.Token, gitlab.WithBaseURL(baseURL), gitlab.WithoutRetries())
	if err != nil {
		return nil, errors.E(errors.KindInvalidInput, "gitlab.New", "failed to create GitLab client", err)
	}
	return &Verifier{client: client}, nil
}

// projectID turns a resolved path ("/group/sub/project") into a project path.
func projectID(repo string) string {
	return strings.Trim(repo, "/")
}

// RepositoryExists checks GET /projects/:id.
func (v *Verifier) RepositoryExists(ctx context.Context, repo string) error {
	_, resp, err := v.client.Projects.GetProject(projectID(repo), nil, gitlab.WithContext(ctx))
	return apiError("gitlab.RepositoryExists", resp, err)
}

// BranchExists checks GET /projects/:id/repository/branches/:branch.
func (v *Verifier) BranchExists(ctx context.Context, repo, branch string) error {
	_, resp, err := v.client.Branches.GetBranch(projectID(repo), branch, gitlab.WithContext(ctx))
	return apiError("gitlab.BranchExists", resp, err)
}

// CommitExists checks GET /projects/:id/repository/commits/:sha.
func (v *Verifier) CommitExists(ctx context.Context, repo, sha string) error {
	_, resp, err := v.client.Commits.GetCommit(projectID(repo), sha, nil, gitlab.WithContext(ctx))
	return apiError("gitlab.CommitExists", resp, err)
}

// CommitHasBranch checks GET /projects/:id/repository/commits/:sha/refs?type=branch.
func (v *Verifier) CommitHasBranch(ctx context.Context, repo, sha string) error {
	opts := &gitlab.GetCommitRefsOptions{Type: gitlab.Ptr("branch")}
	refs, resp, err := v.client.Commits.GetCommitRefs(projectID(repo), sha, opts, gitlab.WithContext(ctx))
	if err != nil {
		return apiError("gitlab.CommitHasBranch", resp, err)
	}
	if len(refs) == 0 {
		return errors.NewAPIError(http.StatusNotFound, "commit_without_branch",
			fmt.Sprintf("commit %s of repository %s is not part of any branch", sha, repo))
	}
	return nil
}

// apiError maps a client-go call outcome onto the verifier error contract.
func apiError(op string, resp *gitlab.Response, err error) error {
	if err == nil {
		return nil
	}

	var glErr *gitlab.ErrorResponse
	if errors.As(err, &glErr) && glErr.Response != nil {
		return errors.NewAPIError(glErr.Response.StatusCode, "", glErr.Message)
	}
	if resp != nil && resp.Response != nil {
		return errors.NewAPIError(resp.StatusCode, "", err.Error())
	}
	return errors.E(errors.KindNetwork, op, err)
}

var _ verifier.Verifier = (*Verifier)(nil)
