package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404.
	ErrNotFound = errors.New("resource not found")
	// ErrFileMissing marks a product whose stored file is gone. Kept separate
	// from ErrNotFound so download logs can tell a stale product row from a bad
	// route, while both map to 404.
	ErrFileMissing = errors.New("product file missing")
	// ErrTokenExpired and ErrTokenInvalid both reject a download, but logs and
	// tests need to tell a stale credential from a forged one.
	ErrTokenExpired = errors.New("download token expired")
	ErrTokenInvalid = errors.New("download token invalid")
	// ErrBadSignature rejects an unauthenticated webhook event before any side effects.
	ErrBadSignature = errors.New("invalid webhook signature")
	// ErrDuplicateSale signals that a sale with this checkout session is already
	// recorded. Callers treat it as success without re-triggering delivery.
	ErrDuplicateSale = errors.New("sale already recorded")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidInput  = errors.New("invalid input")
	ErrRateLimited   = errors.New("rate limited")
)
