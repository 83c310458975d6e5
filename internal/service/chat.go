package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/PaulBabatuyi/semx/internal/apperr"
	"github.com/PaulBabatuyi/semx/internal/clock"
	"github.com/PaulBabatuyi/semx/internal/data"
)

// ChatService serves the conversations derived from delivery requests.
type ChatService struct {
	deliveries *data.DeliveriesStore
	messages   *data.MessagesStore
	clock      clock.Clock
	notifier   Notifier
	logger     *slog.Logger
}

// SendInput is the body of a send-message request.
type SendInput struct {
	ConversationID string `json:"conversationId" validate:"required"`
	Message        string `json:"message" validate:"required"`
}

// StartInput is the body of a start-conversation request.
type StartInput struct {
	ListingID string `json:"listingId" validate:"required"`
	Message   string `json:"message"`
}

// chatError reports a missing delivery the same way as a non-party caller.
func chatError(err error, fallback string) error {
	if errors.Is(err, data.ErrNotParty) || errors.Is(err, data.ErrDeliveryNotFound) {
		return apperr.Authorization("Not authorized")
	}
	return storeError(err, fallback)
}

// ListConversations returns one conversation per delivery userID is party to.
func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]data.Conversation, error) {
	convs, err := s.deliveries.Conversations(ctx, userID)
	if err != nil {
		return nil, storeError(err, "Failed to fetch conversations")
	}
	return convs, nil
}

// GetMessages returns a delivery's messages in the order they were sent.
func (s *ChatService) GetMessages(ctx context.Context, userID, deliveryID string) ([]data.MessageWithSender, error) {
	msgs, err := s.messages.GetMessageHistory(ctx, deliveryID, userID)
	if err != nil {
		return nil, chatError(err, "Failed to fetch messages")
	}
	return msgs, nil
}

// SendMessage appends a message to a delivery's conversation and publishes
// it to live subscribers.
func (s *ChatService) SendMessage(ctx context.Context, userID string, in SendInput) (*data.MessageWithSender, error) {
	in.ConversationID = strings.TrimSpace(in.ConversationID)
	in.Message = strings.TrimSpace(in.Message)
	if err := checkInput(in, "Message and conversation ID are required", nil); err != nil {
		return nil, err
	}

	msg, err := s.messages.SaveMessage(ctx, data.Message{
		DeliveryID: in.ConversationID,
		SenderID:   userID,
		Content:    in.Message,
		Timestamp:  s.clock.Now(),
	})
	if err != nil {
		return nil, chatError(err, "Failed to send message")
	}

	s.logger.Debug("message sent", "delivery_id", msg.DeliveryID, "user_id", userID)
	s.notifier.Publish(msg.DeliveryID, *msg)
	return msg, nil
}

// StartConversation returns the caller's conversation about a listing,
// opening a delivery request first when the caller has none. created
// reports whether a request was opened.
func (s *ChatService) StartConversation(ctx context.Context, userID string, in StartInput) (conv *data.Conversation, created bool, err error) {
	in.ListingID = strings.TrimSpace(in.ListingID)
	if err := checkInput(in, "Listing ID is required", nil); err != nil {
		return nil, false, err
	}

	delivery, created, err := s.deliveries.FindOrCreateDelivery(ctx, data.Delivery{
		ListingID:   in.ListingID,
		RequesterID: userID,
		Status:      data.DeliveryRequested,
		Message:     strings.TrimSpace(in.Message),
		CreatedAt:   s.clock.Now(),
	})
	if err != nil {
		return nil, false, storeError(err, "Failed to start conversation")
	}
	if created {
		s.logger.Info("delivery requested", "delivery_id", delivery.ID, "listing_id", delivery.ListingID, "user_id", userID)
	}

	conv, err = s.deliveries.Conversation(ctx, delivery.ID, userID)
	if err != nil {
		return nil, false, chatError(err, "Failed to start conversation")
	}
	return conv, created, nil
}

// CanSubscribe reports whether userID may follow a delivery's live messages.
func (s *ChatService) CanSubscribe(ctx context.Context, userID, deliveryID string) error {
	if err := s.messages.CheckParty(ctx, deliveryID, userID); err != nil {
		return chatError(err, "Failed to subscribe")
	}
	return nil
}
