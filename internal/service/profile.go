package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/PaulBabatuyi/semx/internal/data"
)

// activityLimit is how many recent deliveries feed the profile activity list.
const activityLimit = 5

// ProfileService aggregates a user's profile view.
type ProfileService struct {
	users      *data.UsersStore
	deliveries *data.DeliveriesStore
}

// Activity is one entry of the profile activity feed.
type Activity struct {
	ID      string `json:"id"`
	Icon    string `json:"icon"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

// ProfileUser is the identity shown on a profile. It leaves out the
// college email.
type ProfileUser struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Avatar      string  `json:"avatar"`
	Rating      float64 `json:"rating"`
	IsAvailable bool    `json:"isAvailable"`
}

// Profile is the caller's identity, delivery count and recent activity.
type Profile struct {
	User            ProfileUser `json:"user"`
	TotalDeliveries int         `json:"totalDeliveries"`
	Activity        []Activity  `json:"activity"`
}

// Get builds the profile of userID.
func (s *ProfileService) Get(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "Failed to fetch profile")
	}

	all, err := s.deliveries.ListForUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "Failed to fetch profile")
	}
	recent, err := s.deliveries.Recent(ctx, userID, activityLimit)
	if err != nil {
		return nil, storeError(err, "Failed to fetch profile")
	}

	activity := make([]Activity, 0, len(recent))
	for _, d := range recent {
		activity = append(activity, describe(d, userID))
	}

	return &Profile{
		User: ProfileUser{
			ID:          user.ID,
			Name:        user.Name,
			Email:       user.Email,
			Avatar:      user.Avatar,
			Rating:      user.Rating,
			IsAvailable: user.IsAvailable,
		},
		TotalDeliveries: len(all),
		Activity:        activity,
	}, nil
}

func describe(d data.DeliveryWithTitle, userID string) Activity {
	a := Activity{ID: d.ID, Time: d.CreatedAt.UTC().Format(time.RFC3339)}
	switch {
	case d.RequesterID != userID:
		a.Icon, a.Message = "motorcycle", "You are delivering: "+d.ListingTitle
	case d.Status == data.DeliveryAccepted:
		a.Icon, a.Message = "shipping-fast", "Delivery request accepted: "+d.ListingTitle
	default:
		a.Icon, a.Message = "clipboard-list", "Delivery requested: "+d.ListingTitle
	}
	return a
}

// AvailabilityService toggles whether a user takes deliveries.
type AvailabilityService struct {
	users  *data.UsersStore
	logger *slog.Logger
}

// AvailabilityInput is the body of an availability update.
type AvailabilityInput struct {
	Available *bool `json:"available" validate:"required"`
}

// Set overwrites userID's availability flag and returns the new value.
func (s *AvailabilityService) Set(ctx context.Context, userID string, in AvailabilityInput) (bool, error) {
	if err := checkInput(in, "Availability is required", nil); err != nil {
		return false, err
	}
	user, err := s.users.SetAvailability(ctx, userID, *in.Available)
	if err != nil {
		return false, storeError(err, "Failed to update availability")
	}
	s.logger.Info("availability changed", "user_id", userID, "available", user.IsAvailable)
	return user.IsAvailable, nil
}

// AvailabilityMessage is the confirmation shown after an update.
func AvailabilityMessage(available bool) string {
	if available {
		return "You are now available for deliveries"
	}
	return "You are now unavailable for deliveries"
}

