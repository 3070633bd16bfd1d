package domain_test

import (
	"errors"
	"testing"

	"github.com/msomdec/storefront-api/internal/domain"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Role
		wantErr bool
	}{
		{"", domain.RoleUser, false},
		{"user", domain.RoleUser, false},
		{"admin", domain.RoleAdmin, false},
		{"Admin", "", true},
		{"root", "", true},
	}

	for _, tc := range tests {
		got, err := domain.ParseRole(tc.in)
		if tc.wantErr {
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("ParseRole(%q): expected ErrInvalidInput, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseRole(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}
