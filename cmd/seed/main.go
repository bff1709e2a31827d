// seed inserts development sample data for local testing.
// Idempotent: skips inserts when the demo accounts already exist.
package main

import (
	"context"
	"log"
	"time"

	accountdomain "wavewords/core/internal/account/domain"
	accountrepo "wavewords/core/internal/account/repository"
	"wavewords/core/internal/config"
	contactdomain "wavewords/core/internal/contact/domain"
	contactrepo "wavewords/core/internal/contact/repository"
	"wavewords/core/internal/db"
)

const (
	demoAliceID  = "dev-account-alice"
	demoAliceKey = "5550001001"
	demoBobID    = "dev-account-bob"
	demoBobKey   = "5550001002"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	accounts := accountrepo.NewPostgresRepository(conn)
	contacts := contactrepo.NewPostgresRepository(conn)

	existing, err := accounts.ListByDirectoryKey(ctx, demoAliceKey)
	if err != nil {
		log.Fatalf("seed: check existing: %v", err)
	}
	if len(existing) > 0 {
		log.Println("seed: demo accounts already exist, nothing to do")
		return
	}

	now := time.Now().UTC()
	alice := &accountdomain.Account{
		ID:           demoAliceID,
		FirstName:    "Alice",
		LastName:     "Rivera",
		DirectoryKey: demoAliceKey,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	bob := &accountdomain.Account{
		ID:           demoBobID,
		FirstName:    "Bob",
		LastName:     "Tanaka",
		DirectoryKey: demoBobKey,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, a := range []*accountdomain.Account{alice, bob} {
		if err := accounts.Create(ctx, a); err != nil {
			log.Fatalf("seed: create account %s: %v", a.ID, err)
		}
	}

	// Each demo account gets the other in its contact list so calls can be
	// placed immediately after seeding.
	pairs := []*contactdomain.Contact{
		{
			ID:            "dev-contact-alice-bob",
			OwnerID:       alice.ID,
			ContactUserID: bob.ID,
			Label:         "Bob",
			DirectoryKey:  bob.DirectoryKey,
			FirstName:     bob.FirstName,
			LastName:      bob.LastName,
			CreatedAt:     now,
		},
		{
			ID:            "dev-contact-bob-alice",
			OwnerID:       bob.ID,
			ContactUserID: alice.ID,
			Label:         "Alice",
			DirectoryKey:  alice.DirectoryKey,
			FirstName:     alice.FirstName,
			LastName:      alice.LastName,
			CreatedAt:     now,
		},
	}
	for _, c := range pairs {
		if err := contacts.Create(ctx, c); err != nil {
			log.Fatalf("seed: create contact %s: %v", c.ID, err)
		}
	}

	log.Printf("seed: created accounts %s (%s) and %s (%s) with mutual contacts",
		alice.ID, alice.DirectoryKey, bob.ID, bob.DirectoryKey)
}
