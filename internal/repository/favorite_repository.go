package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"surf-market/internal/model"
)

type FavoriteRepository struct {
	db *sqlx.DB
}

func NewFavoriteRepository(db *sqlx.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add is idempotent: favoriting twice keeps the original timestamp.
func (r *FavoriteRepository) Add(ctx context.Context, userID, listingID string) error {
	fav := model.Favorite{UserID: userID, ListingID: listingID, CreatedAt: time.Now().UTC()}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO favorites (user_id, listing_id, created_at)
		VALUES (:user_id, :listing_id, :created_at)
		ON CONFLICT (user_id, listing_id) DO NOTHING
	`, fav)
	if err != nil {
		return fmt.Errorf("FavoriteRepository.Add: %w", err)
	}
	return nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, listingID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1 AND listing_id = $2`, userID, listingID)
	if isInvalidID(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("FavoriteRepository.Remove: %w", err)
	}
	return nil
}

// ListListings returns the user's favorited boards, most recently favorited first.
func (r *FavoriteRepository) ListListings(ctx context.Context, userID string) ([]model.Listing, error) {
	var list []model.Listing
	err := r.db.SelectContext(ctx, &list, `
		SELECT l.id, l.seller_id, l.title, l.description, l.brand, l.category, l.length_inches, l.width,
		       l.thickness, l.volume, l.fins, l.price, l.condition, l.location, l.latitude, l.longitude,
		       l.images, l.status, l.created_at, l.updated_at
		FROM favorites f
		JOIN listings l ON l.id = f.listing_id
		WHERE f.user_id = $1 AND l.status <> 'removed'
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("FavoriteRepository.ListListings: %w", err)
	}
	return list, nil
}

// ListingIDs matches ListListings: removed boards are left out.
func (r *FavoriteRepository) ListingIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids, `
		SELECT f.listing_id
		FROM favorites f
		JOIN listings l ON l.id = f.listing_id
		WHERE f.user_id = $1 AND l.status <> 'removed'
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("FavoriteRepository.ListingIDs: %w", err)
	}
	return ids, nil
}

// CountByListing returns favorite counts keyed by listing id for the given listings.
func (r *FavoriteRepository) CountByListing(ctx context.Context, listingIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(listingIDs))
	if len(listingIDs) == 0 {
		return counts, nil
	}

	query, args, err := sqlx.In(`
		SELECT listing_id, COUNT(*) AS n FROM favorites WHERE listing_id IN (?) GROUP BY listing_id
	`, listingIDs)
	if err != nil {
		return nil, fmt.Errorf("FavoriteRepository.CountByListing: %w", err)
	}

	var rows []struct {
		ListingID string `db:"listing_id"`
		N         int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("FavoriteRepository.CountByListing: %w", err)
	}
	for _, row := range rows {
		counts[row.ListingID] = row.N
	}
	return counts, nil
}
