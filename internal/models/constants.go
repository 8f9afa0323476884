package models

import (
	"fmt"
	"strings"
)

const (
	StatusWaiting  = "WAITING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// BookingState is the listing bucket requested by a caller.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

// ParseBookingState maps a raw query value onto a BookingState. An empty
// value means ALL.
func ParseBookingState(raw string) (BookingState, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return StateAll, nil
	}
	switch BookingState(s) {
	case StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected:
		return BookingState(s), nil
	}
	return "", fmt.Errorf("unknown state: %s", raw)
}

const UserIDHeader = "X-Sharer-User-Id"
