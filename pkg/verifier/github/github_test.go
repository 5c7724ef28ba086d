package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/exploopio/statement-validator/pkg/errors"
)

// fakeGitHub serves the subset of the REST API the verifier uses.
func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	notFound := func(w http.ResponseWriter, msg string) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": msg})
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
			return
		}

		switch path := r.URL.Path; path {
		case "/repos/org/repo":
			writeJSON(w, http.StatusOK, map[string]any{"full_name": "org/repo", "default_branch": "main"})
		case "/repos/org/missing":
			notFound(w, "Not Found")
		case "/repos/org/repo/branches/dev":
			writeJSON(w, http.StatusOK, map[string]any{"name": "dev"})
		case "/repos/org/repo/branches/nope":
			notFound(w, "Branch not found")
		case "/repos/org/repo/commits/abc", "/repos/org/repo/commits/old", "/repos/org/repo/commits/orphan":
			writeJSON(w, http.StatusOK, map[string]any{"sha": strings.TrimPrefix(path, "/repos/org/repo/commits/")})
		case "/repos/org/repo/commits/bad":
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "No commit found for SHA: bad"})
		case "/repos/org/repo/commits/abc/branches-where-head":
			writeJSON(w, http.StatusOK, []map[string]any{{"name": "main"}})
		case "/repos/org/repo/commits/old/branches-where-head", "/repos/org/repo/commits/orphan/branches-where-head":
			writeJSON(w, http.StatusOK, []map[string]any{})
		case "/repos/org/repo/compare/main...old":
			writeJSON(w, http.StatusOK, map[string]any{"status": "behind"})
		case "/repos/org/repo/compare/main...orphan", "/repos/org/repo/compare/dev...orphan":
			writeJSON(w, http.StatusOK, map[string]any{"status": "diverged"})
		case "/repos/org/repo/branches":
			writeJSON(w, http.StatusOK, []map[string]any{{"name": "main"}, {"name": "dev"}})
		default:
			notFound(w, "Not Found")
		}
	}))
}

func newTestVerifier(t *testing.T, srv *httptest.Server) *Verifier {
	t.Helper()
	v, err := New(context.Background(), &Config{Token: "test-token", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return v
}

func TestVerifier_RepositoryExists(t *testing.T) {
	srv := fakeGitHub(t)
	defer srv.Close()
	v := newTestVerifier(t, srv)
	ctx := context.Background()

	if err := v.RepositoryExists(ctx, "/org/repo"); err != nil {
		t.Errorf("RepositoryExists(/org/repo) = %v, want nil", err)
	}

	err := v.RepositoryExists(ctx, "/org/missing")
	if errors.StatusCode(err) != http.StatusNotFound {
		t.Errorf("RepositoryExists(/org/missing) status = %d, want 404 (err=%v)", errors.StatusCode(err), err)
	}
	if errors.Detail(err) != "Not Found" {
		t.Errorf("detail = %q, want %q", errors.Detail(err), "Not Found")
	}

	err = v.RepositoryExists(ctx, "not-a-path")
	if errors.GetKind(err) != errors.KindInvalidInput {
		t.Errorf("RepositoryExists(not-a-path) kind = %v, want invalid_input", errors.GetKind(err))
	}
}

func TestVerifier_BranchExists(t *testing.T) {
	srv := fakeGitHub(t)
	defer srv.Close()
	v := newTestVerifier(t, srv)
	ctx := context.Background()

	if err := v.BranchExists(ctx, "/org/repo", "dev"); err != nil {
		t.Errorf("BranchExists(dev) = %v, want nil", err)
	}
	if err := v.BranchExists(ctx, "/org/repo", "nope"); errors.StatusCode(err) != http.StatusNotFound {
		t.Errorf("BranchExists(nope) status = %d, want 404", errors.StatusCode(err))
	}
}

func TestVerifier_CommitExists(t *testing.T) {
	srv := fakeGitHub(t)
	defer srv.Close()
	v := newTestVerifier(t, srv)
	ctx := context.Background()

	if err := v.CommitExists(ctx, "/org/repo", "abc"); err != nil {
		t.Errorf("CommitExists(abc) = %v, want nil", err)
	}

	err := v.CommitExists(ctx, "/org/repo", "bad")
	if errors.StatusCode(err) != http.StatusUnprocessableEntity {
		t.Errorf("CommitExists(bad) status = %d, want 422", errors.StatusCode(err))
	}
	if !strings.Contains(errors.Detail(err), "No commit found") {
		t.Errorf("detail = %q", errors.Detail(err))
	}
}

func TestVerifier_CommitHasBranch(t *testing.T) {
	srv := fakeGitHub(t)
	defer srv.Close()
	v := newTestVerifier(t, srv)
	ctx := context.Background()

	tests := []struct {
		name    string
		sha     string
		wantErr bool
	}{
		{"branch head", "abc", false},
		{"ancestor of default branch", "old", false},
		{"on no branch", "orphan", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.CommitHasBranch(ctx, "/org/repo", tt.sha)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CommitHasBranch(%s) error = %v, wantErr %v", tt.sha, err, tt.wantErr)
			}
			if tt.wantErr {
				want := "commit orphan of repository /org/repo is not part of any branch"
				if errors.Detail(err) != want {
					t.Errorf("detail = %q, want %q", errors.Detail(err), want)
				}
			}
		})
	}
}

func TestVerifier_BadCredentials(t *testing.T) {
	srv := fakeGitHub(t)
	defer srv.Close()

	v, err := New(context.Background(), &Config{Token: "wrong", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	err = v.RepositoryExists(context.Background(), "/org/repo")
	if !errors.IsAuthenticationError(err) {
		t.Errorf("RepositoryExists() = %v, want authentication error", err)
	}
}

func TestVerifier_NetworkError(t *testing.T) {
	srv := fakeGitHub(t)
	v := newTestVerifier(t, srv)
	srv.Close()

	err := v.RepositoryExists(context.Background(), "/org/repo")
	if !errors.IsNetworkError(err) {
		t.Errorf("RepositoryExists() = %v, want network error", err)
	}
	if errors.StatusCode(err) != 0 {
		t.Errorf("StatusCode() = %d, want 0", errors.StatusCode(err))
	}
}

func TestNew_Defaults(t *testing.T) {
	v, err := New(context.Background(), nil)
	if err != nil {
		t.Fatalf("New(nil) error = %v", err)
	}
	if got := v.client.BaseURL.String(); got != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", got, DefaultBaseURL)
	}
	if v.maxBranchScan != DefaultMaxBranchScan {
		t.Errorf("maxBranchScan = %d, want %d", v.maxBranchScan, DefaultMaxBranchScan)
	}
}
