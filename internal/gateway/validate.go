package gateway

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// Inbound payloads the gateway checks before forwarding. The server tier
// trusts what arrives from the gateway, so everything a client can get
// wrong is rejected here.

type createUserDTO struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type updateUserDTO struct {
	Name  *string `json:"name" validate:"omitempty,min=1"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type createItemDTO struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Available   *bool  `json:"available" validate:"required"`
	RequestID   *int64 `json:"requestId"`
}

type updateItemDTO struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
	RequestID   *int64  `json:"requestId"`
}

type createBookingDTO struct {
	ItemID int64      `json:"itemId" validate:"required"`
	Start  *time.Time `json:"start" validate:"required"`
	End    *time.Time `json:"end" validate:"required"`
}

type commentDTO struct {
	Text string `json:"text" validate:"required"`
}

type createRequestDTO struct {
	Description string `json:"description" validate:"required"`
}

var errEndBeforeStart = errors.New("booking end must be after start")

// checkBookingWindow enforces start < end. The original backend never
// validated this; the gateway closes that hole without touching the core.
func checkBookingWindow(dto createBookingDTO) error {
	if !dto.End.After(*dto.Start) {
		return errEndBeforeStart
	}
	return nil
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// validationMessage flattens the first field error into the API error
// shape.
func validationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		fe := fieldErrors[0]
		switch fe.Tag() {
		case "required":
			return fe.Field() + " is required"
		case "email":
			return "invalid email format"
		default:
			return fe.Field() + " is invalid"
		}
	}
	return err.Error()
}
