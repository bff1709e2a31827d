// Package directory resolves phone-number-like directory keys to registered
// accounts. Only registered identities are addressable; everything that wants
// to reference another user goes through Resolve first.
package directory

import (
	"context"
	"errors"
	"regexp"

	"github.com/rs/zerolog"

	accountdomain "wavewords/core/internal/account/domain"
	"wavewords/core/internal/db"
)

// ErrNotRegistered is returned when no account holds the directory key.
var ErrNotRegistered = errors.New("directory key not registered")

// keyPattern is the normalized directory key format: exactly ten digits.
var keyPattern = regexp.MustCompile(`^\d{10}$`)

// ValidKey reports whether key is a syntactically valid directory key.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// AccountRef is the resolved view of a registered identity.
type AccountRef struct {
	ID           string
	DisplayName  string
	FirstName    string
	LastName     string
	DirectoryKey string
}

// AccountRepo is the minimal account repository needed by the resolver.
type AccountRepo interface {
	ListByDirectoryKey(ctx context.Context, key string) ([]*accountdomain.Account, error)
}

// Resolver performs exact-match lookups against the accounts directory-key index.
type Resolver struct {
	accounts AccountRepo
	log      zerolog.Logger
}

// NewResolver returns a Resolver backed by the given account repository.
func NewResolver(accounts AccountRepo, log zerolog.Logger) *Resolver {
	return &Resolver{accounts: accounts, log: log}
}

// Resolve maps a normalized directory key to the single account holding it.
// Returns ErrNotRegistered when no account matches. The key is unique at the
// schema level; if more than one row comes back the index is corrupt, so the
// violation is logged and reported as not registered rather than crashing or
// guessing a winner. Resolve has no side effects.
func (r *Resolver) Resolve(ctx context.Context, key string) (*AccountRef, error) {
	matches, err := r.accounts.ListByDirectoryKey(ctx, key)
	if err != nil {
		return nil, db.Unavailable(err)
	}
	switch len(matches) {
	case 0:
		return nil, ErrNotRegistered
	case 1:
	default:
		r.log.Error().
			Str("directory_key", key).
			Int("matches", len(matches)).
			Msg("directory key resolves to multiple accounts; treating as unregistered")
		return nil, ErrNotRegistered
	}
	a := matches[0]
	return &AccountRef{
		ID:           a.ID,
		DisplayName:  a.DisplayName(),
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		DirectoryKey: a.DirectoryKey,
	}, nil
}
