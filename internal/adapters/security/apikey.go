package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/linktofunnel/storefront/internal/domain"
)

// APIKeyChecker guards the operator endpoints. Only the bcrypt hash of the
// key is configured; the plaintext never lives in config files.
type APIKeyChecker struct {
	hash []byte
}

func NewAPIKeyChecker(hash string) (*APIKeyChecker, error) {
	if hash == "" {
		return nil, errors.New("operator api key hash is required")
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, errors.New("operator api key hash is not a bcrypt hash")
	}
	return &APIKeyChecker{hash: []byte(hash)}, nil
}

func (c *APIKeyChecker) Check(apiKey string) error {
	if apiKey == "" {
		return domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(c.hash, []byte(apiKey)); err != nil {
		return domain.ErrUnauthorized
	}
	return nil
}
