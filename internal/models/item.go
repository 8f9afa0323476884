package models

type Item struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	OwnerID     int64  `json:"ownerId"`
	RequestID   *int64 `json:"requestId,omitempty"`
}

// ItemPatch carries a partial item update. Nil fields keep their current
// value, except RequestID: a nil RequestID clears the request link.
type ItemPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
	RequestID   *int64  `json:"requestId"`
}

// ItemDetails is an item together with its booking context and comments,
// returned by the single-item endpoint.
type ItemDetails struct {
	Item
	LastBooking *Booking  `json:"lastBooking"`
	NextBooking *Booking  `json:"nextBooking"`
	Comments    []Comment `json:"comments"`
}
