// Package purl validates artifact identifiers against the package URL grammar.
package purl

import (
	"github.com/package-url/packageurl-go"

	"github.com/exploopio/statement-validator/pkg/errors"
)

// Validator checks a package identifier. A nil error means the identifier is valid.
type Validator interface {
	Validate(id string) error
}

// Parser validates identifiers by parsing them with packageurl-go.
type Parser struct{}

// NewParser creates a package URL parser.
func NewParser() *Parser {
	return &Parser{}
}

// Validate parses id and reports a KindInvalidInput error when it is not a
// package URL.
func (p *Parser) Validate(id string) error {
	if _, err := packageurl.FromString(id); err != nil {
		return errors.E(errors.KindInvalidInput, "purl.Validate", id, err)
	}
	return nil
}

var _ Validator = (*Parser)(nil)
