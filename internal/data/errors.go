package data

import "errors"

// Sentinel errors returned by the stores. Services translate them into
// client-facing errors.
var (
	ErrUserExists       = errors.New("user already exists")
	ErrUserNotFound     = errors.New("user not found")
	ErrListingNotFound  = errors.New("listing not found")
	ErrNotListingOwner  = errors.New("not the listing owner")
	ErrOwnListing       = errors.New("cannot request own listing")
	ErrDeliveryNotFound = errors.New("delivery not found")
	ErrNotParty         = errors.New("not a party to the delivery")
	ErrOwnDelivery      = errors.New("requester cannot claim own delivery")
	ErrAlreadyClaimed   = errors.New("delivery already claimed")
)
