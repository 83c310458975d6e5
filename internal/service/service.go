// Package service implements the marketplace operations on top of the
// record stores. Every error returned to callers is an *apperr.Error.
package service

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/PaulBabatuyi/semx/internal/apperr"
	"github.com/PaulBabatuyi/semx/internal/auth"
	"github.com/PaulBabatuyi/semx/internal/clock"
	"github.com/PaulBabatuyi/semx/internal/data"
)

var validate = validator.New()

// Services bundles every service over one document store.
type Services struct {
	Auth         *AuthService
	Listings     *ListingsService
	Deliveries   *DeliveriesService
	Chat         *ChatService
	Profile      *ProfileService
	Availability *AvailabilityService
}

// Notifier receives chat messages after they are stored.
type Notifier interface {
	Publish(deliveryID string, msg data.MessageWithSender)
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, data.MessageWithSender) {}

// Options configures New. Clock and Logger default to the real clock and
// slog.Default(); Notifier defaults to a no-op.
type Options struct {
	Clock    clock.Clock
	Logger   *slog.Logger
	Notifier Notifier
}

// New wires the services over store, issuing tokens with jwt.
func New(store *data.DocumentStore, jwt *auth.JWTManager, opts Options) *Services {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}

	users := data.NewUsersStore(store)
	listings := data.NewListingsStore(store)
	deliveries := data.NewDeliveriesStore(store)
	messages := data.NewMessagesStore(store)

	return &Services{
		Auth: &AuthService{
			users:  users,
			jwt:    jwt,
			clock:  opts.Clock,
			logger: opts.Logger.With("service", "auth"),
		},
		Listings: &ListingsService{
			listings: listings,
			clock:    opts.Clock,
			logger:   opts.Logger.With("service", "listings"),
		},
		Deliveries: &DeliveriesService{
			deliveries: deliveries,
			clock:      opts.Clock,
			logger:     opts.Logger.With("service", "deliveries"),
		},
		Chat: &ChatService{
			deliveries: deliveries,
			messages:   messages,
			clock:      opts.Clock,
			notifier:   opts.Notifier,
			logger:     opts.Logger.With("service", "chat"),
		},
		Profile: &ProfileService{
			users:      users,
			deliveries: deliveries,
		},
		Availability: &AvailabilityService{
			users:  users,
			logger: opts.Logger.With("service", "availability"),
		},
	}
}

// checkInput runs struct validation. A failing required rule is reported
// with missing; any other rule with the message registered for its field.
func checkInput(in any, missing string, messages map[string]string) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal("invalid input", err)
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return apperr.Validation("%s", missing)
		}
	}
	if msg, ok := messages[verrs[0].Field()]; ok {
		return apperr.Validation("%s", msg)
	}
	return apperr.Validation("invalid %s", verrs[0].Field())
}

// storeError translates record store sentinels into client errors.
func storeError(err error, fallback string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, data.ErrUserExists):
		return apperr.Conflict("Email already registered")
	case errors.Is(err, data.ErrUserNotFound):
		return apperr.NotFound("User not found")
	case errors.Is(err, data.ErrListingNotFound):
		return apperr.NotFound("Listing not found")
	case errors.Is(err, data.ErrNotListingOwner):
		return apperr.Authorization("Not authorized")
	case errors.Is(err, data.ErrOwnListing):
		return apperr.Validation("Cannot request your own listing")
	case errors.Is(err, data.ErrDeliveryNotFound):
		return apperr.NotFound("Delivery not found")
	case errors.Is(err, data.ErrOwnDelivery):
		return apperr.Validation("Cannot claim your own delivery request")
	case errors.Is(err, data.ErrAlreadyClaimed):
		return apperr.Conflict("Delivery already claimed")
	default:
		return apperr.Internal(fallback, err)
	}
}
