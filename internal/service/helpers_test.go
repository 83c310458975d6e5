package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/PaulBabatuyi/semx/internal/apperr"
	"github.com/PaulBabatuyi/semx/internal/auth"
	"github.com/PaulBabatuyi/semx/internal/clock"
	"github.com/PaulBabatuyi/semx/internal/data"
	"github.com/PaulBabatuyi/semx/internal/db"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string][]data.MessageWithSender
}

func (n *recordingNotifier) Publish(deliveryID string, msg data.MessageWithSender) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = map[string][]data.MessageWithSender{}
	}
	n.sent[deliveryID] = append(n.sent[deliveryID], msg)
}

func (n *recordingNotifier) count(deliveryID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent[deliveryID])
}

type fixture struct {
	svc      *Services
	clock    *clock.FakeClock
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := db.NewFileBackend[*data.Document](filepath.Join(t.TempDir(), "db.json"))
	store, err := db.Open[*data.Document](context.Background(), backend, data.Empty, logger)
	if err != nil {
		t.Fatalf("db.Open failed: %v", err)
	}

	fc := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	jwt := auth.NewJWTManager("test-secret", 7*24*time.Hour).WithClock(fc)
	n := &recordingNotifier{}
	return &fixture{
		svc:      New(store, jwt, Options{Clock: fc, Logger: logger, Notifier: n}),
		clock:    fc,
		notifier: n,
	}
}

func (f *fixture) register(t *testing.T, name, email string) *Session {
	t.Helper()
	s, err := f.svc.Auth.Register(context.Background(), RegisterInput{
		Name: name, Email: email, CollegeEmail: email, Password: "pw-" + name,
	})
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	return s
}

func (f *fixture) listing(t *testing.T, ownerID, title, category string, price float64) *data.Listing {
	t.Helper()
	l, err := f.svc.Listings.Create(context.Background(), ownerID, CreateListingInput{
		Title:            title,
		Category:         category,
		Price:            Price(price),
		PickupLocation:   "P",
		DeliveryLocation: "D",
	})
	if err != nil {
		t.Fatalf("Create(%s) failed: %v", title, err)
	}
	return l
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}
