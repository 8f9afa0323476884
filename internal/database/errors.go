package database

import "errors"

var (
	// ErrNotFound covers missing users, items, bookings and requests. The
	// item update path also returns it when the caller is not the owner,
	// so a stranger cannot tell a foreign item from a missing one.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when a create or update would leave two
	// users with the same email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrNotAvailable is returned when booking an item whose availability
	// flag is off.
	ErrNotAvailable = errors.New("item is not available for booking")

	// ErrOwnItem is returned when an owner tries to book their own item.
	ErrOwnItem = errors.New("owner cannot book own item")

	// ErrAlreadyProcessed is returned when approving a booking that has
	// left the WAITING state.
	ErrAlreadyProcessed = errors.New("booking already processed")

	// ErrAccessDenied is returned when a booking is read or approved by a
	// user who is neither the booker nor the item owner.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotRented is returned when a comment author has no finished
	// booking of the item.
	ErrNotRented = errors.New("item was not rented or rental has not ended")

	// ErrUnknownState is returned for an unrecognized booking state filter.
	ErrUnknownState = errors.New("unknown booking state")
)
