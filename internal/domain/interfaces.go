package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

// Repository is the storage boundary. database.DB is the sqlite
// implementation; tests substitute mocks.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error

	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	GetItemsByOwner(ctx context.Context, ownerID int64) ([]models.Item, error)
	SearchItems(ctx context.Context, text string) ([]models.Item, error)
	GetItemsByRequest(ctx context.Context, requestID int64) ([]models.Item, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBookingByID(ctx context.Context, id int64) (*models.Booking, error)
	TransitionBookingStatus(ctx context.Context, id int64, from, to string) error
	ExpireBooking(ctx context.Context, id int64, now time.Time) (bool, error)
	GetBookingsByItem(ctx context.Context, itemID int64) ([]models.Booking, error)
	GetBookingsByBooker(ctx context.Context, bookerID int64) ([]models.Booking, error)
	HasFinishedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error)

	CreateRequest(ctx context.Context, request *models.ItemRequest) error
	GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error)
	GetRequestsByRequestor(ctx context.Context, requestorID int64) ([]models.ItemRequest, error)
	GetRequestsExcludingRequestor(ctx context.Context, requestorID int64) ([]models.ItemRequest, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByItem(ctx context.Context, itemID int64) ([]models.Comment, error)
}

type UserService interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type ItemService interface {
	AddItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error)
	UpdateItem(ctx context.Context, userID, itemID int64, patch models.ItemPatch) (*models.Item, error)
	GetItemByID(ctx context.Context, itemID int64) (*models.ItemDetails, error)
	GetItemsByOwner(ctx context.Context, ownerID int64) ([]models.Item, error)
	SearchItems(ctx context.Context, text string) ([]models.Item, error)
	AddComment(ctx context.Context, userID, itemID int64, text string) (*models.Comment, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, userID int64, booking *models.Booking) (*models.Booking, error)
	ApproveBooking(ctx context.Context, userID, bookingID int64, approved bool) (*models.Booking, error)
	GetBookingByID(ctx context.Context, userID, bookingID int64) (*models.Booking, error)
	GetBookingsByState(ctx context.Context, userID int64, state models.BookingState) ([]models.Booking, error)
}

type RequestService interface {
	CreateRequest(ctx context.Context, userID int64, description string) (*models.ItemRequest, error)
	GetRequestByID(ctx context.Context, userID, requestID int64) (*models.ItemRequest, error)
	GetRequestsByUser(ctx context.Context, userID int64) ([]models.ItemRequest, error)
	GetAllRequests(ctx context.Context, userID int64) ([]models.ItemRequest, error)
}

// EventPublisher decouples the booking engine from event consumers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
