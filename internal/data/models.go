package data

import "time"

// Listing statuses.
const (
	ListingActive = "active"
	ListingClosed = "closed"
)

// Delivery statuses.
const (
	DeliveryRequested = "requested"
	DeliveryAccepted  = "accepted"
)

// Categories lists the accepted listing categories.
var Categories = []string{"food", "groceries", "documents", "packages", "other"}

// User maps to the users set (identity, both emails, password hash, profile fields)
type User struct {
	ID           string    `json:"id" bson:"id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	CollegeEmail string    `json:"collegeEmail" bson:"collegeEmail"`
	Password     string    `json:"password" bson:"password"`
	Avatar       string    `json:"avatar" bson:"avatar"`
	Rating       float64   `json:"rating" bson:"rating"`
	IsAvailable  bool      `json:"isAvailable" bson:"isAvailable"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// Listing maps to the listings set (a posted delivery task)
type Listing struct {
	ID               string    `json:"id" bson:"id"`
	UserID           string    `json:"userId" bson:"userId"`
	Title            string    `json:"title" bson:"title"`
	Description      string    `json:"description" bson:"description"`
	Category         string    `json:"category" bson:"category"`
	Price            float64   `json:"price" bson:"price"`
	PickupLocation   string    `json:"pickupLocation" bson:"pickupLocation"`
	DeliveryLocation string    `json:"deliveryLocation" bson:"deliveryLocation"`
	Status           string    `json:"status" bson:"status"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
}

// Delivery maps to the deliveries set. DelivererID stays nil until claimed.
type Delivery struct {
	ID          string    `json:"id" bson:"id"`
	ListingID   string    `json:"listingId" bson:"listingId"`
	RequesterID string    `json:"requesterId" bson:"requesterId"`
	DelivererID *string   `json:"delivererId" bson:"delivererId"`
	Status      string    `json:"status" bson:"status"`
	Message     string    `json:"message" bson:"message"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

// IsParty reports whether userID is the requester or the deliverer.
func (d *Delivery) IsParty(userID string) bool {
	if userID == "" {
		return false
	}
	return d.RequesterID == userID || (d.DelivererID != nil && *d.DelivererID == userID)
}

// OtherParty returns the party that is not userID, or "" when unset.
func (d *Delivery) OtherParty(userID string) string {
	if d.RequesterID == userID {
		if d.DelivererID == nil {
			return ""
		}
		return *d.DelivererID
	}
	return d.RequesterID
}

// Message maps to the messages set. DeliveryID doubles as the conversation id.
type Message struct {
	ID         string    `json:"id" bson:"id"`
	DeliveryID string    `json:"deliveryId" bson:"deliveryId"`
	SenderID   string    `json:"senderId" bson:"senderId"`
	Content    string    `json:"content" bson:"content"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
}

// PublicUser is a User without its password hash.
type PublicUser struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	CollegeEmail string  `json:"collegeEmail"`
	Avatar       string  `json:"avatar"`
	Rating       float64 `json:"rating"`
	IsAvailable  bool    `json:"isAvailable"`
}

// Public strips the password hash.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		CollegeEmail: u.CollegeEmail,
		Avatar:       u.Avatar,
		Rating:       u.Rating,
		IsAvailable:  u.IsAvailable,
	}
}

// OwnerSummary is the owner snapshot embedded in listing responses.
type OwnerSummary struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Avatar string  `json:"avatar"`
	Rating float64 `json:"rating"`
}

// PartySummary is the user snapshot embedded in chat responses.
type PartySummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// ListingWithOwner is a listing joined with its owner; User is nil when
// the owner record is missing.
type ListingWithOwner struct {
	Listing
	User *OwnerSummary `json:"user"`
}

// MessageWithSender is a message joined with its sender; Sender is nil
// when the sender record is missing.
type MessageWithSender struct {
	Message
	Sender *PartySummary `json:"sender"`
}

// LastMessage is the preview shown in a conversation list.
type LastMessage struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsOwn     bool      `json:"isOwn"`
}

// Conversation is derived 1:1 from a delivery; ID is the delivery id.
type Conversation struct {
	ID           string        `json:"id"`
	OtherUser    *PartySummary `json:"otherUser"`
	ListingTitle string        `json:"listingTitle"`
	Status       string        `json:"status"`
	LastMessage  *LastMessage  `json:"lastMessage"`
	UnreadCount  int           `json:"unreadCount"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// ListingFilter narrows ListActive. Zero values mean "no filter"; the
// caller resolves the default limit. A NaN MaxPrice matches nothing.
type ListingFilter struct {
	Category string
	MaxPrice *float64
	Limit    int
}
