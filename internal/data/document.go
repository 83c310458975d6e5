// Package data provides the record types, the JSON document that holds
// them, and the stores that read and mutate it.
package data

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/PaulBabatuyi/semx/internal/db"
)

// Document is the full persisted snapshot: five record sets in one JSON document.
type Document struct {
	Users      []User     `json:"users" bson:"users"`
	Listings   []Listing  `json:"listings" bson:"listings"`
	Deliveries []Delivery `json:"deliveries" bson:"deliveries"`
	Messages   []Message  `json:"messages" bson:"messages"`
	// Conversations is carried for file compatibility; conversations are
	// derived from deliveries and this set is never written by the API.
	Conversations []map[string]any `json:"conversations" bson:"conversations"`
}

// DocumentStore is the single-writer store the data stores share.
type DocumentStore = db.Store[*Document]

// Clone returns a deep copy suitable for a read-modify-write cycle.
func (d *Document) Clone() *Document {
	out := &Document{
		Users:         append([]User(nil), d.Users...),
		Listings:      append([]Listing(nil), d.Listings...),
		Deliveries:    make([]Delivery, len(d.Deliveries)),
		Messages:      append([]Message(nil), d.Messages...),
		Conversations: append([]map[string]any(nil), d.Conversations...),
	}
	for i, del := range d.Deliveries {
		if del.DelivererID != nil {
			id := *del.DelivererID
			del.DelivererID = &id
		}
		out.Deliveries[i] = del
	}
	return out
}

// NewID returns a fresh random record identifier.
func NewID() string {
	return uuid.NewString()
}

// DefaultAvatar is the generated avatar used when a user has none.
func DefaultAvatar(seed string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + url.QueryEscape(seed)
}

// SeedPassword is the password of the seeded test account.
const SeedPassword = "test123"

// Seed returns the default document written to an empty store: one test
// user and two sample listings. hash turns SeedPassword into a stored hash.
func Seed(now time.Time, hash func(string) (string, error)) func() (*Document, error) {
	return func() (*Document, error) {
		hashed, err := hash(SeedPassword)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		return &Document{
			Users: []User{{
				ID:           "user1",
				Name:         "Test User",
				Email:        "test@example.com",
				CollegeEmail: "test@university.edu",
				Password:     hashed,
				Avatar:       DefaultAvatar("Test"),
				Rating:       4.8,
				CreatedAt:    now,
			}},
			Listings: []Listing{
				{
					ID:               "listing1",
					UserID:           "user1",
					Title:            "Coffee from Starbucks",
					Description:      "Need coffee delivered from Starbucks to library",
					Category:         "food",
					Price:            8.50,
					PickupLocation:   "Starbucks, Campus Center",
					DeliveryLocation: "Main Library, 2nd floor",
					Status:           ListingActive,
					CreatedAt:        now,
				},
				{
					ID:               "listing2",
					UserID:           "user1",
					Title:            "Textbooks delivery",
					Description:      "Deliver textbooks from bookstore to dorm",
					Category:         "other",
					Price:            12.00,
					PickupLocation:   "Campus Bookstore",
					DeliveryLocation: "Dorm Building A",
					Status:           ListingActive,
					CreatedAt:        now,
				},
			},
			Deliveries:    []Delivery{},
			Messages:      []Message{},
			Conversations: []map[string]any{},
		}, nil
	}
}

// Empty returns a document with no records, for tests and fresh deployments.
func Empty() (*Document, error) {
	return &Document{
		Users:         []User{},
		Listings:      []Listing{},
		Deliveries:    []Delivery{},
		Messages:      []Message{},
		Conversations: []map[string]any{},
	}, nil
}

// The lookups below are the join step used when building responses.
// Missing references resolve to nil rather than failing.

func (d *Document) user(id string) *User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

func (d *Document) userByEmail(email string) *User {
	for i := range d.Users {
		if d.Users[i].Email == email {
			return &d.Users[i]
		}
	}
	return nil
}

func (d *Document) listing(id string) *Listing {
	for i := range d.Listings {
		if d.Listings[i].ID == id {
			return &d.Listings[i]
		}
	}
	return nil
}

func (d *Document) delivery(id string) *Delivery {
	for i := range d.Deliveries {
		if d.Deliveries[i].ID == id {
			return &d.Deliveries[i]
		}
	}
	return nil
}

func (d *Document) ownerSummary(id string) *OwnerSummary {
	u := d.user(id)
	if u == nil {
		return nil
	}
	return &OwnerSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Rating: u.Rating}
}

func (d *Document) partySummary(id string) *PartySummary {
	if id == "" {
		return nil
	}
	u := d.user(id)
	if u == nil {
		return nil
	}
	return &PartySummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}
