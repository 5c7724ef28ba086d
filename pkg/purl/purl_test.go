package purl

import (
	"testing"

	"github.com/exploopio/statement-validator/pkg/errors"
)

func TestParser_Validate(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"pkg:npm/left-pad@1.3.0", true},
		{"pkg:maven/org.springframework/spring-web@5.0.6.RELEASE", true},
		{"pkg:pypi/django@1.11.1", true},
		{"pkg:golang/github.com/gorilla/context@234fd47e07d1004f0aed9c", true},
		{"not-a-purl", false},
		{"", false},
		{"npm/left-pad@1.3.0", false},
	}

	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := p.Validate(tt.id)
			if tt.valid && err != nil {
				t.Errorf("Validate(%q) error = %v, want nil", tt.id, err)
			}
			if !tt.valid {
				if err == nil {
					t.Fatalf("Validate(%q) = nil, want error", tt.id)
				}
				if errors.GetKind(err) != errors.KindInvalidInput {
					t.Errorf("Validate(%q) kind = %v, want invalid_input", tt.id, errors.GetKind(err))
				}
			}
		})
	}
}
