package data

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/PaulBabatuyi/semx/internal/db"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) *DocumentStore {
	t.Helper()
	backend := db.NewFileBackend[*Document](filepath.Join(t.TempDir(), "db.json"))
	s, err := db.Open[*Document](context.Background(), backend, Empty, nil)
	if err != nil {
		t.Fatalf("db.Open failed: %v", err)
	}
	return s
}

func mustUser(t *testing.T, s *DocumentStore, id, email string) {
	t.Helper()
	if _, err := NewUsersStore(s).CreateUser(context.Background(), User{ID: id, Name: id, Email: email, CreatedAt: t0}); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", id, err)
	}
}

func mustListing(t *testing.T, s *DocumentStore, l Listing) {
	t.Helper()
	if l.Status == "" {
		l.Status = ListingActive
	}
	if _, err := NewListingsStore(s).CreateListing(context.Background(), l); err != nil {
		t.Fatalf("CreateListing(%s) failed: %v", l.ID, err)
	}
}
