package models

import "time"

// ItemRequest is a posted need for an item that is not listed yet. Items
// created later may reference it, fulfilling the request.
type ItemRequest struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	RequestorID int64     `json:"requestorId"`
	Created     time.Time `json:"created"`
	Items       []Item    `json:"items"`
}
