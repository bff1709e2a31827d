package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wavewords/core/internal/contact/domain"
	"wavewords/core/internal/contact/repository"
	"wavewords/core/internal/db"
	"wavewords/core/internal/directory"
	storesync "wavewords/core/internal/sync"
)

// Sentinel errors for the contact service; the UI shell maps them to user-facing rejections.
var (
	ErrInvalidFormat    = errors.New("directory key must be exactly ten digits")
	ErrNotRegistered    = directory.ErrNotRegistered
	ErrSelfReference    = errors.New("cannot add yourself as a contact")
	ErrDuplicateContact = errors.New("contact already exists")
)

// Resolver is the directory lookup needed before any contact write.
type Resolver interface {
	Resolve(ctx context.Context, key string) (*directory.AccountRef, error)
}

// Service implements the per-account address book.
type Service struct {
	contacts repository.Repository
	resolver Resolver
	hub      *storesync.Hub
	log      zerolog.Logger
	now      func() time.Time
}

// NewService returns a contact service with the given dependencies.
func NewService(contacts repository.Repository, resolver Resolver, hub *storesync.Hub, log zerolog.Logger) *Service {
	return &Service{
		contacts: contacts,
		resolver: resolver,
		hub:      hub,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddContact validates and persists a new contact for ownerID referencing the
// account that holds key. The checks run in a fixed order and return typed
// rejections: ErrInvalidFormat, ErrNotRegistered, ErrSelfReference,
// ErrDuplicateContact. None of the rejections leaves partial state behind;
// the insert is the only write and happens last.
//
// The duplicate check and the insert are separate store calls, so two
// near-simultaneous adds of the same target can both pass the check; the
// store's uniqueness constraint then rejects the second insert, which is
// surfaced as ErrDuplicateContact as well.
func (s *Service) AddContact(ctx context.Context, ownerID, key, label string) (*domain.Contact, error) {
	label = strings.TrimSpace(label)
	if !directory.ValidKey(key) {
		return nil, ErrInvalidFormat
	}

	ref, err := s.resolver.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	if ref.ID == ownerID {
		return nil, ErrSelfReference
	}

	existing, err := s.contacts.GetByOwnerAndContactUser(ctx, ownerID, ref.ID)
	if err != nil {
		return nil, db.Unavailable(err)
	}
	if existing != nil {
		return nil, ErrDuplicateContact
	}

	c := &domain.Contact{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		ContactUserID: ref.ID,
		Label:         label,
		DirectoryKey:  ref.DirectoryKey,
		FirstName:     ref.FirstName,
		LastName:      ref.LastName,
		CreatedAt:     s.now(),
	}
	if err := s.contacts.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.log.Info().
				Str("owner_id", ownerID).
				Str("contact_user_id", ref.ID).
				Msg("concurrent duplicate add lost the race")
			return nil, ErrDuplicateContact
		}
		return nil, db.Unavailable(err)
	}
	return c, nil
}

// ListContacts returns the owner's contacts ordered by label.
func (s *Service) ListContacts(ctx context.Context, ownerID string) ([]*domain.Contact, error) {
	out, err := s.contacts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, db.Unavailable(err)
	}
	return out, nil
}

// Search filters a contact snapshot by case-insensitive substring match
// against label or directory key. Pure function; no store access.
func (s *Service) Search(contacts []*domain.Contact, text string) []*domain.Contact {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return contacts
	}
	var out []*domain.Contact
	for _, c := range contacts {
		if strings.Contains(strings.ToLower(c.Label), text) || strings.Contains(c.DirectoryKey, text) {
			out = append(out, c)
		}
	}
	return out
}

// Watch returns a live view of the owner's contact list: the current snapshot
// first, then a fresh ordered list after every change to the owner's
// contacts. The channel closes when ctx ends; re-subscribing restarts the
// view from a new snapshot.
func (s *Service) Watch(ctx context.Context, ownerID string) (<-chan []*domain.Contact, error) {
	sub := s.hub.Subscribe(ctx, storesync.CollectionContacts, ownerID)

	snapshot, err := s.ListContacts(ctx, ownerID)
	if err != nil {
		sub.Cancel()
		return nil, err
	}

	out := make(chan []*domain.Contact, 1)
	out <- snapshot

	go func() {
		defer close(out)
		defer sub.Cancel()
		for range sub.Events() {
			list, err := s.ListContacts(ctx, ownerID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.Warn().Err(err).Str("owner_id", ownerID).Msg("contact view refresh failed")
				continue
			}
			select {
			case out <- list:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
