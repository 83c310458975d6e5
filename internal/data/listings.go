package data

import "context"

// ListingsStore performs listing record operations.
type ListingsStore struct {
	db *DocumentStore
}

// NewListingsStore returns a ListingsStore over the shared document store.
func NewListingsStore(db *DocumentStore) *ListingsStore {
	return &ListingsStore{db: db}
}

// CreateListing appends a listing record.
func (l *ListingsStore) CreateListing(ctx context.Context, listing Listing) (*Listing, error) {
	if listing.ID == "" {
		listing.ID = NewID()
	}
	err := l.db.Update(ctx, func(doc *Document) error {
		doc.Listings = append(doc.Listings, listing)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// ListActive returns active listings in insertion order, narrowed by the
// filter and truncated positionally to filter.Limit (when > 0). Each
// listing carries its owner snapshot, or nil if the owner is gone.
func (l *ListingsStore) ListActive(ctx context.Context, filter ListingFilter) ([]ListingWithOwner, error) {
	out := []ListingWithOwner{}
	err := l.db.View(ctx, func(doc *Document) error {
		for _, listing := range doc.Listings {
			if listing.Status != ListingActive {
				continue
			}
			if filter.Category != "" && listing.Category != filter.Category {
				continue
			}
			// a NaN bound admits nothing
			if filter.MaxPrice != nil && !(listing.Price <= *filter.MaxPrice) {
				continue
			}
			out = append(out, ListingWithOwner{Listing: listing, User: doc.ownerSummary(listing.UserID)})
			if filter.Limit > 0 && len(out) == filter.Limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByOwner returns every listing owned by userID, whatever its status.
func (l *ListingsStore) ListByOwner(ctx context.Context, userID string) ([]Listing, error) {
	out := []Listing{}
	err := l.db.View(ctx, func(doc *Document) error {
		for _, listing := range doc.Listings {
			if listing.UserID == userID {
				out = append(out, listing)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetListing finds a listing by id.
func (l *ListingsStore) GetListing(ctx context.Context, id string) (*Listing, error) {
	var found Listing
	err := l.db.View(ctx, func(doc *Document) error {
		p := doc.listing(id)
		if p == nil {
			return ErrListingNotFound
		}
		found = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// CloseListing marks a listing closed. Only its owner may close it.
func (l *ListingsStore) CloseListing(ctx context.Context, id, ownerID string) (*Listing, error) {
	var closed Listing
	err := l.db.Update(ctx, func(doc *Document) error {
		p := doc.listing(id)
		if p == nil {
			return ErrListingNotFound
		}
		if p.UserID != ownerID {
			return ErrNotListingOwner
		}
		p.Status = ListingClosed
		closed = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &closed, nil
}
