package service

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/PaulBabatuyi/semx/internal/apperr"
	"github.com/PaulBabatuyi/semx/internal/data"
)

func TestPriceUnmarshal(t *testing.T) {
	cases := map[string]float64{
		`8.5`:    8.5,
		`"8.50"`: 8.5,
		`" 12 "`: 12,
		`null`:   0,
		`""`:     0,
	}
	for in, want := range cases {
		var p Price
		if err := json.Unmarshal([]byte(in), &p); err != nil {
			t.Fatalf("Unmarshal(%s): %v", in, err)
		}
		if float64(p) != want {
			t.Fatalf("Unmarshal(%s) = %v, want %v", in, p, want)
		}
	}

	for _, bad := range []string{`"cheap"`, `true`, `"NaN"`} {
		var p Price
		if err := json.Unmarshal([]byte(bad), &p); err == nil {
			t.Fatalf("Unmarshal(%s) should fail", bad)
		}
	}
}

func TestListQueryFilter(t *testing.T) {
	f := ListQuery{Category: " Food", MaxPrice: "10", Limit: "4"}.Filter()
	if f.Category != "food" || f.MaxPrice == nil || *f.MaxPrice != 10 || f.Limit != 4 {
		t.Fatalf("filter = %+v", f)
	}

	f = ListQuery{MaxPrice: "10abc", Limit: "1abc"}.Filter()
	if f.MaxPrice == nil || *f.MaxPrice != 10 {
		t.Fatalf("maxPrice should use its numeric prefix, got %+v", f.MaxPrice)
	}
	if f.Limit != 1 {
		t.Fatalf("limit = %d, want 1 from prefix", f.Limit)
	}

	f = ListQuery{MaxPrice: "ten", Limit: "-1"}.Filter()
	if f.MaxPrice == nil || !math.IsNaN(*f.MaxPrice) {
		t.Fatalf("non-numeric maxPrice should become a NaN bound, got %+v", f.MaxPrice)
	}
	if f.Limit != DefaultListingLimit {
		t.Fatalf("limit = %d, want default", f.Limit)
	}

	f = ListQuery{MaxPrice: ".5e1"}.Filter()
	if f.MaxPrice == nil || *f.MaxPrice != 5 {
		t.Fatalf("maxPrice .5e1 = %+v, want 5", f.MaxPrice)
	}
	if (ListQuery{}).Filter().MaxPrice != nil {
		t.Fatal("absent maxPrice must not filter")
	}
	if (ListQuery{Limit: "lots"}).Filter().Limit != DefaultListingLimit {
		t.Fatal("unparsable limit should fall back to default")
	}
}

func TestCreateListingValidation(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "Alice", "alice@x.edu").User.ID
	ctx := context.Background()

	base := CreateListingInput{Title: "Coffee", Category: "food", Price: 8.5, PickupLocation: "P", DeliveryLocation: "D"}

	missing := []func(*CreateListingInput){
		func(in *CreateListingInput) { in.Title = "" },
		func(in *CreateListingInput) { in.Category = "" },
		func(in *CreateListingInput) { in.Price = 0 },
		func(in *CreateListingInput) { in.PickupLocation = " " },
		func(in *CreateListingInput) { in.DeliveryLocation = "" },
	}
	for i, mutate := range missing {
		in := base
		mutate(&in)
		_, err := f.svc.Listings.Create(ctx, owner, in)
		wantKind(t, err, apperr.KindValidation)
		if err.Error() != "Missing required fields" {
			t.Fatalf("case %d: message = %q", i, err.Error())
		}
	}

	in := base
	in.Price = -3
	_, err := f.svc.Listings.Create(ctx, owner, in)
	wantKind(t, err, apperr.KindValidation)

	in = base
	in.Category = "weapons"
	_, err = f.svc.Listings.Create(ctx, owner, in)
	wantKind(t, err, apperr.KindValidation)

	in = base
	in.Category = " FOOD "
	l, err := f.svc.Listings.Create(ctx, owner, in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if l.Category != "food" || l.Status != data.ListingActive || l.Description != "" {
		t.Fatalf("listing = %+v", l)
	}
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "Alice", "alice@x.edu").User.ID
	ctx := context.Background()

	f.listing(t, owner, "Coffee", "food", 8.5)
	f.listing(t, owner, "Books", "other", 12)
	f.listing(t, owner, "Groceries", "groceries", 10)
	f.listing(t, owner, "Pizza", "food", 15)

	got, err := f.svc.Listings.List(ctx, ListQuery{MaxPrice: "10"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 listings under 10, got %d", len(got))
	}
	for _, l := range got {
		if l.Price > 10 {
			t.Fatalf("listing %s over maxPrice: %v", l.Title, l.Price)
		}
	}

	got, err = f.svc.Listings.List(ctx, ListQuery{Category: "food"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 food listings, got %d", len(got))
	}
	for _, l := range got {
		if l.Category != "food" {
			t.Fatalf("non-food listing %s returned", l.Title)
		}
		if l.User == nil || l.User.ID != owner {
			t.Fatalf("owner snapshot missing on %s", l.Title)
		}
	}

	got, err = f.svc.Listings.List(ctx, ListQuery{Limit: "1"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Coffee" {
		t.Fatalf("limit should truncate positionally, got %+v", got)
	}
}

func TestPriceRoundTrip(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "Alice", "alice@x.edu").User.ID

	var in CreateListingInput
	body := `{"title":"Coffee","category":"food","price":8.5,"pickupLocation":"P","deliveryLocation":"D"}`
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Listings.Create(context.Background(), owner, in); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := f.svc.Listings.List(context.Background(), ListQuery{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].Price != 8.5 {
		t.Fatalf("price did not round trip: %+v", got)
	}
}

func TestCloseListing(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "Alice", "alice@x.edu").User.ID
	bob := f.register(t, "Bob", "bob@x.edu").User.ID
	ctx := context.Background()
	l := f.listing(t, alice, "Coffee", "food", 8.5)

	_, err := f.svc.Listings.Close(ctx, bob, l.ID)
	wantKind(t, err, apperr.KindAuthorization)

	_, err = f.svc.Listings.Close(ctx, alice, "missing")
	wantKind(t, err, apperr.KindNotFound)

	if _, err := f.svc.Listings.Close(ctx, alice, l.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	public, _ := f.svc.Listings.List(ctx, ListQuery{})
	if len(public) != 0 {
		t.Fatalf("closed listing still public: %+v", public)
	}
	mine, _ := f.svc.Listings.ListMine(ctx, alice)
	if len(mine) != 1 || mine[0].Status != data.ListingClosed {
		t.Fatalf("closed listing should remain in ListMine: %+v", mine)
	}
}
