package security

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/linktofunnel/storefront/internal/domain"
)

func TestAPIKeyChecker(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("operator-key"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("generate hash: %v", err)
	}
	checker, err := NewAPIKeyChecker(string(hash))
	if err != nil {
		t.Fatalf("new checker: %v", err)
	}

	if err := checker.Check("operator-key"); err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
	if err := checker.Check("wrong-key"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := checker.Check(""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("empty key must be unauthorized, got %v", err)
	}
}

func TestNewAPIKeyCheckerRejectsNonBcrypt(t *testing.T) {
	t.Parallel()

	for _, hash := range []string{"", "plaintext-key"} {
		if _, err := NewAPIKeyChecker(hash); err == nil {
			t.Fatalf("NewAPIKeyChecker(%q) should fail", hash)
		}
	}
}
