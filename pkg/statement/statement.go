// Package statement defines vulnerability remediation statements and reads
// them from a statements directory.
//
// A statements directory holds one subdirectory per vulnerability, each with a
// statement.yaml file:
//
//	vulnerability_id: CVE-2020-1234
//	fixes:
//	  - id: DEFAULT_BRANCH
//	    commits:
//	      - id: 0a1b2c3d
//	        repository: https://github.com/org/repo
//	artifacts:
//	  - id: pkg:maven/org.example/lib@1.2.3
package statement

// DefaultBranch is the fix branch sentinel meaning "the repository's default
// branch". Branches with this id are never checked remotely.
const DefaultBranch = "DEFAULT_BRANCH"

// FileName is the statement file expected in every statement directory.
const FileName = "statement.yaml"

// Statement is one vulnerability remediation record.
type Statement struct {
	VulnerabilityID string     `yaml:"vulnerability_id" json:"vulnerability_id"`
	Fixes           []Fix      `yaml:"fixes,omitempty" json:"fixes,omitempty"`
	Artifacts       []Artifact `yaml:"artifacts,omitempty" json:"artifacts,omitempty"`
}

// Fix is one remediation event tied to a branch.
type Fix struct {
	// BranchID is a branch name or DefaultBranch.
	BranchID string   `yaml:"id" json:"id"`
	Commits  []Commit `yaml:"commits,omitempty" json:"commits,omitempty"`
}

// IsDefaultBranch reports whether the fix targets the default branch sentinel.
func (f Fix) IsDefaultBranch() bool {
	return f.BranchID == DefaultBranch
}

// Commit references a commit in a repository.
type Commit struct {
	ID string `yaml:"id" json:"id"`

	// Repository is the raw URL as authored.
	Repository string `yaml:"repository" json:"repository"`
}

// Artifact is an affected package identified by a package URL.
type Artifact struct {
	ID string `yaml:"id" json:"id"`
}
