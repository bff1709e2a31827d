package domain

import (
	"errors"
	"strings"
	"time"
)

// UnknownCallerName is the display-name fallback when an account has no
// first or last name set.
const UnknownCallerName = "Unknown Caller"

// Account is one registered identity. The ID is assigned by the external
// identity provider and treated as opaque; the directory key is the unique
// phone-number-like identifier other users dial.
type Account struct {
	ID           string
	FirstName    string
	LastName     string
	DirectoryKey string
	AvatarURL    string // optional
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName returns "First Last" with either part optional, or
// UnknownCallerName when both are empty.
func (a *Account) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
	if name == "" {
		return UnknownCallerName
	}
	return name
}

// Validate validates the account for persistence. Returns an error describing the first validation failure.
func (a *Account) Validate() error {
	if a.ID == "" {
		return errors.New("id is required")
	}
	if a.DirectoryKey == "" {
		return errors.New("directory key is required")
	}
	return nil
}
