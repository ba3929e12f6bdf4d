package service

import (
	"context"
	"fmt"

	"surf-market/internal/model"
)

type FavoriteService struct {
	favorites FavoriteStore
	listings  ListingStore
}

func NewFavoriteService(fs FavoriteStore, ls ListingStore) *FavoriteService {
	return &FavoriteService{favorites: fs, listings: ls}
}

// Add bookmarks an active listing. Adding it again is a no-op.
func (s *FavoriteService) Add(ctx context.Context, userID, listingID string) error {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return err
	}
	if l.Status != model.StatusActive {
		return model.ErrListingNotFound
	}
	if err := s.favorites.Add(ctx, userID, listingID); err != nil {
		return fmt.Errorf("FavoriteService.Add: %w", err)
	}
	return nil
}

func (s *FavoriteService) Remove(ctx context.Context, userID, listingID string) error {
	if err := s.favorites.Remove(ctx, userID, listingID); err != nil {
		return fmt.Errorf("FavoriteService.Remove: %w", err)
	}
	return nil
}

func (s *FavoriteService) List(ctx context.Context, userID string) ([]model.Listing, error) {
	return s.favorites.ListListings(ctx, userID)
}

func (s *FavoriteService) IDs(ctx context.Context, userID string) ([]string, error) {
	return s.favorites.ListingIDs(ctx, userID)
}
