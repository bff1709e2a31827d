package domain

import (
	"errors"
	"time"
)

// Contact is one entry in an account's address book: the owner's reference to
// another registered account. The referenced account's name and key are
// snapshotted at creation time; contacts are immutable afterwards.
type Contact struct {
	ID            string
	OwnerID       string
	ContactUserID string
	Label         string // display label chosen by the owner
	DirectoryKey  string
	FirstName     string // referenced account's name at add time
	LastName      string
	CreatedAt     time.Time
}

// Validate validates the contact for persistence.
func (c *Contact) Validate() error {
	if c.OwnerID == "" {
		return errors.New("owner id is required")
	}
	if c.ContactUserID == "" {
		return errors.New("contact user id is required")
	}
	if c.OwnerID == c.ContactUserID {
		return errors.New("contact must not reference its owner")
	}
	if c.Label == "" {
		return errors.New("label is required")
	}
	return nil
}
