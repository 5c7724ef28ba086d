// Package resolve turns repository URLs as authored in statements into the
// repository paths understood by the hosting API.
package resolve

import "strings"

// GitHubWebOrigin is the host prefix stripped by Normalize.
const GitHubWebOrigin = "https://github.com"

// Resolver strips a hosting web origin from repository URLs.
type Resolver struct {
	// HostPrefix is removed from the start of a URL when present.
	HostPrefix string
}

// New creates a Resolver for the given web origin. A trailing slash on the
// origin is ignored so the resolved path keeps its leading slash.
func New(hostPrefix string) *Resolver {
	return &Resolver{HostPrefix: strings.TrimSuffix(hostPrefix, "/")}
}

// Normalize resolves rawURL against the GitHub web origin.
func Normalize(rawURL string) string {
	return New(GitHubWebOrigin).Normalize(rawURL)
}

// Normalize returns the repository path for rawURL.
//
// A ".git" URL loses the host prefix and the suffix. Any other URL loses the
// host prefix and exactly one trailing slash. Nothing else is touched.
func (r *Resolver) Normalize(rawURL string) string {
	repo := rawURL
	if r.HostPrefix != "" {
		repo = strings.TrimPrefix(repo, r.HostPrefix)
	}
	if strings.HasSuffix(rawURL, ".git") {
		return strings.TrimSuffix(repo, ".git")
	}
	return strings.TrimSuffix(repo, "/")
}

// SplitOwnerRepo splits "/owner/repo" into its owner and repository name.
// Everything after the first segment is the repository name.
func SplitOwnerRepo(path string) (owner, repo string, ok bool) {
	owner, repo, found := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if !found || owner == "" || repo == "" {
		return "", "", false
	}
	return owner, repo, true
}
