package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/linktofunnel/storefront/internal/domain"
)

// TokenSigner implements HS256 signing for download credentials. The key is
// held at adapter level so the application layer stays crypto-library
// agnostic. A symmetric scheme is enough here: mint and verify happen in the
// same process, and statelessness is the point.
type TokenSigner struct {
	secret []byte
	nowFn  func() time.Time
}

// NewTokenSigner builds a signer from the configured secret. An empty secret
// is a configuration error and must be caught at bootstrap, not at mint time.
func NewTokenSigner(secret string) (*TokenSigner, error) {
	if secret == "" {
		return nil, errors.New("download token secret is required")
	}
	return &TokenSigner{secret: []byte(secret), nowFn: time.Now}, nil
}

type downloadJWTClaims struct {
	Email     string `json:"email"`
	ProductID string `json:"product_id"`
	jwt.RegisteredClaims
}

func (s *TokenSigner) Mint(email, productID string, ttl time.Duration) (string, error) {
	now := s.nowFn().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, downloadJWTClaims{
		Email:     email,
		ProductID: productID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(s.secret)
}

func (s *TokenSigner) Verify(raw string) (domain.DownloadClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &downloadJWTClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, domain.ErrTokenInvalid
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.nowFn))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.DownloadClaims{}, domain.ErrTokenExpired
		}
		return domain.DownloadClaims{}, domain.ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*downloadJWTClaims)
	if !ok || !parsed.Valid || claims.Email == "" || claims.ProductID == "" {
		return domain.DownloadClaims{}, domain.ErrTokenInvalid
	}
	out := domain.DownloadClaims{
		Email:     claims.Email,
		ProductID: claims.ProductID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return out, nil
}
