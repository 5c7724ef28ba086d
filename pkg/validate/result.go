package validate

import "strings"

// =============================================================================
// OrderedSet
// =============================================================================

// OrderedSet is a set of strings that remembers first-insertion order.
// The zero value is ready to use.
type OrderedSet struct {
	index  map[string]struct{}
	values []string
}

// Add inserts v and reports whether it was not already present.
func (s *OrderedSet) Add(v string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.values = append(s.values, v)
	return true
}

// Contains reports whether v is in the set.
func (s *OrderedSet) Contains(v string) bool {
	_, ok := s.index[v]
	return ok
}

// Values returns the elements in insertion order.
func (s *OrderedSet) Values() []string {
	return append([]string(nil), s.values...)
}

// Len returns the number of elements.
func (s *OrderedSet) Len() int {
	return len(s.values)
}

// Join concatenates the elements with sep.
func (s *OrderedSet) Join(sep string) string {
	return strings.Join(s.values, sep)
}

// =============================================================================
// Result
// =============================================================================

// Separator joins multi-value report cells.
const Separator = ","

// Result collects every failure found in one statement.
type Result struct {
	VulnerabilityID string

	RepositoryErrors           OrderedSet
	BranchErrors               OrderedSet
	CommitErrors               OrderedSet
	CommitsWithoutBranchErrors OrderedSet
	PURLErrors                 OrderedSet
	ErrorLog                   OrderedSet

	// Failures lists each failed check in the order it happened, including
	// repeated references to an already failed repository.
	Failures []Failure
}

// NewResult creates an empty result for a statement.
func NewResult(vulnerabilityID string) *Result {
	return &Result{VulnerabilityID: vulnerabilityID}
}

// HasError reports whether any reference in the statement failed.
func (r *Result) HasError() bool {
	return r.RepositoryErrors.Len() > 0 ||
		r.BranchErrors.Len() > 0 ||
		r.CommitErrors.Len() > 0 ||
		r.CommitsWithoutBranchErrors.Len() > 0 ||
		r.PURLErrors.Len() > 0 ||
		r.ErrorLog.Len() > 0
}

// Row is a Result flattened into report cells.
type Row struct {
	VulnerabilityID            string `json:"vulnerability_id"`
	RepositoryErrors           string `json:"repository_errors"`
	CommitErrors               string `json:"commit_errors"`
	CommitsWithoutBranchErrors string `json:"commits_without_branch_errors"`
	BranchErrors               string `json:"branch_errors"`
	PURLErrors                 string `json:"purl_errors"`
	ErrorLog                   string `json:"error_log"`
}

// Cells returns the row in report column order.
func (r Row) Cells() []string {
	return []string{
		r.VulnerabilityID,
		r.RepositoryErrors,
		r.CommitErrors,
		r.CommitsWithoutBranchErrors,
		r.BranchErrors,
		r.PURLErrors,
		r.ErrorLog,
	}
}

// Finalize flattens the result into a report row.
func (r *Result) Finalize() Row {
	return Row{
		VulnerabilityID:            r.VulnerabilityID,
		RepositoryErrors:           r.RepositoryErrors.Join(Separator),
		CommitErrors:               r.CommitErrors.Join(Separator),
		CommitsWithoutBranchErrors: r.CommitsWithoutBranchErrors.Join(Separator),
		BranchErrors:               r.BranchErrors.Join(Separator),
		PURLErrors:                 r.PURLErrors.Join(Separator),
		ErrorLog:                   r.ErrorLog.Join(Separator),
	}
}
