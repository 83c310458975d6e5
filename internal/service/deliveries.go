package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PaulBabatuyi/semx/internal/apperr"
	"github.com/PaulBabatuyi/semx/internal/clock"
	"github.com/PaulBabatuyi/semx/internal/data"
)

// DeliveriesService creates and claims delivery requests.
type DeliveriesService struct {
	deliveries *data.DeliveriesStore
	clock      clock.Clock
	logger     *slog.Logger
}

// RequestInput is the body of a delivery request.
type RequestInput struct {
	ListingID string `json:"listingId" validate:"required"`
	Message   string `json:"message"`
}

// Request records requesterID's request against a listing. Requesting the
// same listing twice creates two requests.
func (s *DeliveriesService) Request(ctx context.Context, requesterID string, in RequestInput) (*data.Delivery, error) {
	in.ListingID = strings.TrimSpace(in.ListingID)
	if err := checkInput(in, "Listing ID is required", nil); err != nil {
		return nil, err
	}

	delivery, err := s.deliveries.CreateDelivery(ctx, s.newDelivery(requesterID, in))
	if err != nil {
		return nil, storeError(err, "Failed to create delivery request")
	}

	s.logger.Info("delivery requested", "delivery_id", delivery.ID, "listing_id", delivery.ListingID, "user_id", requesterID)
	return delivery, nil
}

func (s *DeliveriesService) newDelivery(requesterID string, in RequestInput) data.Delivery {
	return data.Delivery{
		ListingID:   in.ListingID,
		RequesterID: requesterID,
		Status:      data.DeliveryRequested,
		Message:     strings.TrimSpace(in.Message),
		CreatedAt:   s.clock.Now(),
	}
}

// ListMine returns the deliveries userID requested or is delivering.
func (s *DeliveriesService) ListMine(ctx context.Context, userID string) ([]data.Delivery, error) {
	deliveries, err := s.deliveries.ListForUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "Failed to fetch deliveries")
	}
	return deliveries, nil
}

// Claim makes userID the deliverer of a requested delivery.
func (s *DeliveriesService) Claim(ctx context.Context, userID, deliveryID string) (*data.Delivery, error) {
	if strings.TrimSpace(deliveryID) == "" {
		return nil, apperr.Validation("Delivery ID is required")
	}
	delivery, err := s.deliveries.Claim(ctx, deliveryID, userID)
	if err != nil {
		return nil, storeError(err, "Failed to claim delivery")
	}
	s.logger.Info("delivery claimed", "delivery_id", delivery.ID, "user_id", userID)
	return delivery, nil
}
