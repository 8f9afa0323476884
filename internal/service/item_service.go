package service

import (
	"context"
	"strings"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewItemService(repo domain.Repository, logger *zerolog.Logger) *ItemService {
	return &ItemService{repo: repo, logger: logger}
}

func (s *ItemService) AddItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}

	if item.RequestID != nil {
		if _, err := s.repo.GetRequestByID(ctx, *item.RequestID); err != nil {
			return nil, err
		}
	}

	item.OwnerID = ownerID
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("item created")
	return item, nil
}

// UpdateItem overwrites only fields present in the patch. Only the owner
// may edit; anyone else gets a not-found, so the response does not reveal
// that the item exists.
func (s *ItemService) UpdateItem(ctx context.Context, userID, itemID int64, patch models.ItemPatch) (*models.Item, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != userID {
		return nil, database.ErrNotFound
	}

	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Available != nil {
		item.Available = *patch.Available
	}

	// A supplied requestId re-links the item; its absence clears the link.
	if patch.RequestID != nil {
		if _, err := s.repo.GetRequestByID(ctx, *patch.RequestID); err != nil {
			return nil, err
		}
		item.RequestID = patch.RequestID
	} else {
		item.RequestID = nil
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItemByID returns the item with its booking context: one pass over the
// item's bookings in ascending start order. Every finished APPROVED booking
// overwrites lastBooking, so the latest one wins; the first booking that
// starts in the future becomes nextBooking and the scan stops.
func (s *ItemService) GetItemByID(ctx context.Context, itemID int64) (*models.ItemDetails, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.GetBookingsByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var lastBooking, nextBooking *models.Booking
	for i := range bookings {
		b := bookings[i]
		if b.End.Before(now) && b.Status == models.StatusApproved {
			lastBooking = &b
		} else if b.Start.After(now) {
			nextBooking = &b
			break
		}
	}

	comments, err := s.repo.GetCommentsByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	return &models.ItemDetails{
		Item:        *item,
		LastBooking: lastBooking,
		NextBooking: nextBooking,
		Comments:    comments,
	}, nil
}

func (s *ItemService) GetItemsByOwner(ctx context.Context, ownerID int64) ([]models.Item, error) {
	return s.repo.GetItemsByOwner(ctx, ownerID)
}

// SearchItems returns an empty result for blank text, never the whole
// store.
func (s *ItemService) SearchItems(ctx context.Context, text string) ([]models.Item, error) {
	if strings.TrimSpace(text) == "" {
		return []models.Item{}, nil
	}
	return s.repo.SearchItems(ctx, text)
}

// AddComment stores post-rental feedback. The author must have a booking
// of the item that ended strictly before now.
func (s *ItemService) AddComment(ctx context.Context, userID, itemID int64, text string) (*models.Comment, error) {
	author, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetItemByID(ctx, itemID); err != nil {
		return nil, err
	}

	rented, err := s.repo.HasFinishedBooking(ctx, userID, itemID, time.Now())
	if err != nil {
		return nil, err
	}
	if !rented {
		return nil, database.ErrNotRented
	}

	comment := &models.Comment{
		Text:       text,
		ItemID:     itemID,
		AuthorID:   userID,
		AuthorName: author.Name,
		Created:    time.Now(),
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}
