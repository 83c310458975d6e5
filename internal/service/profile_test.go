package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PaulBabatuyi/semx/internal/apperr"
)

func TestProfileActivity(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "Alice", "alice@x.edu").User.ID
	bob := f.register(t, "Bob", "bob@x.edu").User.ID
	ctx := context.Background()

	coffee := f.listing(t, alice, "Coffee", "food", 8.5)
	books := f.listing(t, alice, "Books", "other", 12)

	d1, err := f.svc.Deliveries.Request(ctx, bob, RequestInput{ListingID: coffee.ID})
	if err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(time.Hour)
	if _, err := f.svc.Deliveries.Request(ctx, bob, RequestInput{ListingID: books.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Deliveries.Claim(ctx, alice, d1.ID); err != nil {
		t.Fatal(err)
	}

	p, err := f.svc.Profile.Get(ctx, bob)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.User.ID != bob || p.TotalDeliveries != 2 || len(p.Activity) != 2 {
		t.Fatalf("profile = %+v", p)
	}
	if !strings.HasSuffix(p.Activity[0].Message, "Books") {
		t.Fatalf("newest activity first, got %+v", p.Activity)
	}
	if p.Activity[1].Icon != "shipping-fast" {
		t.Fatalf("accepted delivery icon = %q", p.Activity[1].Icon)
	}
	if _, err := time.Parse(time.RFC3339, p.Activity[0].Time); err != nil {
		t.Fatalf("activity time %q: %v", p.Activity[0].Time, err)
	}

	ap, err := f.svc.Profile.Get(ctx, alice)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ap.TotalDeliveries != 1 || ap.Activity[0].Icon != "motorcycle" {
		t.Fatalf("deliverer profile = %+v", ap)
	}

	_, err = f.svc.Profile.Get(ctx, "ghost")
	wantKind(t, err, apperr.KindNotFound)
}

func TestSetAvailability(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "Alice", "alice@x.edu").User.ID
	ctx := context.Background()

	_, err := f.svc.Availability.Set(ctx, alice, AvailabilityInput{})
	wantKind(t, err, apperr.KindValidation)

	on := true
	got, err := f.svc.Availability.Set(ctx, alice, AvailabilityInput{Available: &on})
	if err != nil || !got {
		t.Fatalf("Set(true) = %v, %v", got, err)
	}
	me, _ := f.svc.Auth.Me(ctx, alice)
	if !me.IsAvailable {
		t.Fatal("availability not persisted")
	}

	off := false
	if got, err := f.svc.Availability.Set(ctx, alice, AvailabilityInput{Available: &off}); err != nil || got {
		t.Fatalf("Set(false) = %v, %v", got, err)
	}
	if AvailabilityMessage(false) != "You are now unavailable for deliveries" {
		t.Fatal("unexpected availability message")
	}

	_, err = f.svc.Availability.Set(ctx, "ghost", AvailabilityInput{Available: &on})
	wantKind(t, err, apperr.KindNotFound)
}
