package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PaulBabatuyi/semx/internal/clock"
	"github.com/PaulBabatuyi/semx/internal/data"
	"github.com/PaulBabatuyi/semx/internal/normalize"
)

// DefaultListingLimit caps List when no usable limit is given.
const DefaultListingLimit = 20

// Price accepts a JSON number or a numeric string. null and "" decode to 0.
type Price float64

func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*p = 0
			return nil
		}
		b = []byte(s)
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("price %q is not a number", b)
	}
	*p = Price(f)
	return nil
}

// ListingsService creates and lists delivery-task listings.
type ListingsService struct {
	listings *data.ListingsStore
	clock    clock.Clock
	logger   *slog.Logger
}

// ListQuery holds the raw query parameters of a listing search.
type ListQuery struct {
	Category string
	MaxPrice string
	Limit    string
}

var (
	leadingFloat = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
)

// Filter resolves the raw query into a store filter. Numbers are read from
// the leading numeric prefix, so "10abc" means 10. A maxPrice with no
// numeric prefix becomes NaN and matches no listing; a limit without one,
// or a non-positive limit, falls back to DefaultListingLimit.
func (q ListQuery) Filter() data.ListingFilter {
	f := data.ListingFilter{
		Category: normalize.Category(q.Category),
		Limit:    DefaultListingLimit,
	}
	if q.MaxPrice != "" {
		v := math.NaN()
		if m := leadingFloat.FindString(strings.TrimSpace(q.MaxPrice)); m != "" {
			v, _ = strconv.ParseFloat(strings.Replace(m, "Infinity", "Inf", 1), 64)
		}
		f.MaxPrice = &v
	}
	if m := leadingInt.FindString(strings.TrimSpace(q.Limit)); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n > 0 {
			f.Limit = n
		}
	}
	return f
}

// List returns active listings matching q, each with its owner snapshot.
func (s *ListingsService) List(ctx context.Context, q ListQuery) ([]data.ListingWithOwner, error) {
	listings, err := s.listings.ListActive(ctx, q.Filter())
	if err != nil {
		return nil, storeError(err, "Failed to fetch listings")
	}
	return listings, nil
}

// CreateListingInput is the body of a create-listing request.
type CreateListingInput struct {
	Title            string `json:"title" validate:"required"`
	Description      string `json:"description"`
	Category         string `json:"category" validate:"required,oneof=food groceries documents packages other"`
	Price            Price  `json:"price" validate:"required,gt=0"`
	PickupLocation   string `json:"pickupLocation" validate:"required"`
	DeliveryLocation string `json:"deliveryLocation" validate:"required"`
}

var listingMessages = map[string]string{
	"Category": "Category must be one of: " + strings.Join(data.Categories, ", "),
	"Price":    "Price must be a positive number",
}

// Create stores a new active listing owned by ownerID.
func (s *ListingsService) Create(ctx context.Context, ownerID string, in CreateListingInput) (*data.Listing, error) {
	in.Title = normalize.Text(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = normalize.Category(in.Category)
	in.PickupLocation = normalize.Text(in.PickupLocation)
	in.DeliveryLocation = normalize.Text(in.DeliveryLocation)
	if err := checkInput(in, "Missing required fields", listingMessages); err != nil {
		return nil, err
	}

	listing, err := s.listings.CreateListing(ctx, data.Listing{
		UserID:           ownerID,
		Title:            in.Title,
		Description:      in.Description,
		Category:         in.Category,
		Price:            float64(in.Price),
		PickupLocation:   in.PickupLocation,
		DeliveryLocation: in.DeliveryLocation,
		Status:           data.ListingActive,
		CreatedAt:        s.clock.Now(),
	})
	if err != nil {
		return nil, storeError(err, "Failed to create listing")
	}

	s.logger.Info("listing created", "listing_id", listing.ID, "user_id", ownerID)
	return listing, nil
}

// ListMine returns every listing owned by ownerID, whatever its status.
func (s *ListingsService) ListMine(ctx context.Context, ownerID string) ([]data.Listing, error) {
	listings, err := s.listings.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, "Failed to fetch user listings")
	}
	return listings, nil
}

// Close withdraws a listing from the public list. Only its owner may close it.
func (s *ListingsService) Close(ctx context.Context, ownerID, listingID string) (*data.Listing, error) {
	listing, err := s.listings.CloseListing(ctx, listingID, ownerID)
	if err != nil {
		return nil, storeError(err, "Failed to delete listing")
	}
	s.logger.Info("listing closed", "listing_id", listing.ID, "user_id", ownerID)
	return listing, nil
}
