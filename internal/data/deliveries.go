package data

import (
	"context"
	"sort"
)

// UnknownListingTitle is reported for conversations whose listing is gone.
const UnknownListingTitle = "Unknown Listing"

// DeliveriesStore performs delivery request operations and derives
// conversations from them.
type DeliveriesStore struct {
	db *DocumentStore
}

// NewDeliveriesStore returns a DeliveriesStore over the shared document store.
func NewDeliveriesStore(db *DocumentStore) *DeliveriesStore {
	return &DeliveriesStore{db: db}
}

// checkRequest enforces that the listing exists and the requester is not its owner.
func checkRequest(doc *Document, d *Delivery) error {
	listing := doc.listing(d.ListingID)
	if listing == nil {
		return ErrListingNotFound
	}
	if listing.UserID == d.RequesterID {
		return ErrOwnListing
	}
	return nil
}

// CreateDelivery appends a delivery request. Repeated requests by the
// same requester against the same listing are allowed.
func (s *DeliveriesStore) CreateDelivery(ctx context.Context, d Delivery) (*Delivery, error) {
	if d.ID == "" {
		d.ID = NewID()
	}
	err := s.db.Update(ctx, func(doc *Document) error {
		if err := checkRequest(doc, &d); err != nil {
			return err
		}
		doc.Deliveries = append(doc.Deliveries, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FindOrCreateDelivery returns the requester's earliest delivery for the
// listing, creating d when none exists. created reports which happened.
func (s *DeliveriesStore) FindOrCreateDelivery(ctx context.Context, d Delivery) (out *Delivery, created bool, err error) {
	if d.ID == "" {
		d.ID = NewID()
	}
	var existing *Delivery
	err = s.db.Update(ctx, func(doc *Document) error {
		if err := checkRequest(doc, &d); err != nil {
			return err
		}
		for i := range doc.Deliveries {
			cur := doc.Deliveries[i]
			if cur.ListingID == d.ListingID && cur.RequesterID == d.RequesterID {
				existing = &cur
				return nil
			}
		}
		doc.Deliveries = append(doc.Deliveries, d)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	return &d, true, nil
}

// GetDelivery finds a delivery by id.
func (s *DeliveriesStore) GetDelivery(ctx context.Context, id string) (*Delivery, error) {
	var found Delivery
	err := s.db.View(ctx, func(doc *Document) error {
		p := doc.delivery(id)
		if p == nil {
			return ErrDeliveryNotFound
		}
		found = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// ListForUser returns deliveries where userID is requester or deliverer,
// in insertion order.
func (s *DeliveriesStore) ListForUser(ctx context.Context, userID string) ([]Delivery, error) {
	out := []Delivery{}
	err := s.db.View(ctx, func(doc *Document) error {
		for _, d := range doc.Deliveries {
			if d.IsParty(userID) {
				out = append(out, d)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Claim records userID as the deliverer and marks the delivery accepted.
// Only the owner of the requested listing may accept it.
func (s *DeliveriesStore) Claim(ctx context.Context, id, userID string) (*Delivery, error) {
	var claimed Delivery
	err := s.db.Update(ctx, func(doc *Document) error {
		p := doc.delivery(id)
		if p == nil {
			return ErrDeliveryNotFound
		}
		if p.RequesterID == userID {
			return ErrOwnDelivery
		}
		if l := doc.listing(p.ListingID); l == nil || l.UserID != userID {
			return ErrNotListingOwner
		}
		if p.DelivererID != nil {
			return ErrAlreadyClaimed
		}
		deliverer := userID
		p.DelivererID = &deliverer
		p.Status = DeliveryAccepted
		claimed = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &claimed, nil
}

// Conversations derives one conversation per delivery userID is party to.
func (s *DeliveriesStore) Conversations(ctx context.Context, userID string) ([]Conversation, error) {
	out := []Conversation{}
	err := s.db.View(ctx, func(doc *Document) error {
		for i := range doc.Deliveries {
			d := &doc.Deliveries[i]
			if d.IsParty(userID) {
				out = append(out, doc.conversation(d, userID))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Conversation derives the conversation for one delivery as seen by userID.
func (s *DeliveriesStore) Conversation(ctx context.Context, deliveryID, userID string) (*Conversation, error) {
	var conv Conversation
	err := s.db.View(ctx, func(doc *Document) error {
		d := doc.delivery(deliveryID)
		if d == nil {
			return ErrDeliveryNotFound
		}
		if !d.IsParty(userID) {
			return ErrNotParty
		}
		conv = doc.conversation(d, userID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// DeliveryWithTitle is a delivery joined with its listing title.
type DeliveryWithTitle struct {
	Delivery
	ListingTitle string `json:"listingTitle"`
}

// Recent returns up to n deliveries userID is party to, newest first.
func (s *DeliveriesStore) Recent(ctx context.Context, userID string, n int) ([]DeliveryWithTitle, error) {
	out := []DeliveryWithTitle{}
	err := s.db.View(ctx, func(doc *Document) error {
		for _, d := range doc.Deliveries {
			if !d.IsParty(userID) {
				continue
			}
			title := UnknownListingTitle
			if l := doc.listing(d.ListingID); l != nil {
				title = l.Title
			}
			out = append(out, DeliveryWithTitle{Delivery: d, ListingTitle: title})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// insertion order breaks ties between equal timestamps, latest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (doc *Document) conversation(d *Delivery, userID string) Conversation {
	conv := Conversation{
		ID:           d.ID,
		OtherUser:    doc.partySummary(d.OtherParty(userID)),
		ListingTitle: UnknownListingTitle,
		Status:       d.Status,
		UpdatedAt:    d.CreatedAt,
	}
	if l := doc.listing(d.ListingID); l != nil {
		conv.ListingTitle = l.Title
	}

	// last message by insertion order
	for i := len(doc.Messages) - 1; i >= 0; i-- {
		m := doc.Messages[i]
		if m.DeliveryID == d.ID {
			conv.LastMessage = &LastMessage{Content: m.Content, Timestamp: m.Timestamp, IsOwn: m.SenderID == userID}
			break
		}
	}
	return conv
}
