package statement

import (
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/exploopio/statement-validator/pkg/errors"
)

// Discover returns the statement file paths under dir, one per immediate
// subdirectory, sorted by directory name. Subdirectories are not checked for
// the file here; Load reports a missing file.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.E(errors.KindIO, "statement.Discover", "read statements directory", err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name(), FileName))
	}
	sort.Strings(paths)
	return paths, nil
}

// Load reads and parses the statement file at path.
func Load(path string) (*Statement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.E(errors.KindIO, "statement.Load", path, err)
	}
	stmt, err := Parse(data)
	if err != nil {
		return nil, errors.E(errors.KindInvalidInput, "statement.Load", path, err)
	}
	return stmt, nil
}

// Parse decodes a statement document after checking its shape against the
// statement schema.
func Parse(data []byte) (*Statement, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	var stmt Statement
	if err := yaml.Unmarshal(data, &stmt); err != nil {
		return nil, err
	}
	return &stmt, nil
}
