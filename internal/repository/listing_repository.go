package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"surf-market/internal/model"
)

const listingColumns = `id, seller_id, title, description, brand, category, length_inches, width, thickness,
	volume, fins, price, condition, location, latitude, longitude, images, status, created_at, updated_at`

type ListingRepository struct {
	DB *sqlx.DB
}

func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{DB: db}
}

// Create inserts a listing; ID and timestamps are set by the caller.
func (r *ListingRepository) Create(ctx context.Context, l *model.Listing) error {
	_, err := r.DB.NamedExecContext(ctx, `
        INSERT INTO listings
            (id, seller_id, title, description, brand, category, length_inches, width, thickness, volume,
             fins, price, condition, location, latitude, longitude, images, status, created_at, updated_at)
        VALUES
            (:id, :seller_id, :title, :description, :brand, :category, :length_inches, :width, :thickness, :volume,
             :fins, :price, :condition, :location, :latitude, :longitude, :images, :status, :created_at, :updated_at)
    `, l)
	if err != nil {
		return fmt.Errorf("ListingRepository.Create: %w", err)
	}
	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	var l model.Listing
	err := r.DB.GetContext(ctx, &l, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
		return nil, model.ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ListingRepository.GetByID: %w", err)
	}
	return &l, nil
}

// ListActive returns every active listing, newest first. Browse filtering happens in memory.
func (r *ListingRepository) ListActive(ctx context.Context) ([]model.Listing, error) {
	return r.ListByStatus(ctx, model.StatusActive)
}

func (r *ListingRepository) ListByStatus(ctx context.Context, status model.ListingStatus) ([]model.Listing, error) {
	var list []model.Listing
	err := r.DB.SelectContext(ctx, &list, `
		SELECT `+listingColumns+` FROM listings
		WHERE status = $1
		ORDER BY created_at DESC
	`, status)
	if err != nil {
		return nil, fmt.Errorf("ListingRepository.ListByStatus: %w", err)
	}
	return list, nil
}

// ListBySeller returns the seller's boards; removed ones are included only when withRemoved is set.
func (r *ListingRepository) ListBySeller(ctx context.Context, sellerID string, withRemoved bool) ([]model.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE seller_id = $1`
	if !withRemoved {
		query += ` AND status <> 'removed'`
	}
	query += ` ORDER BY created_at DESC`

	var list []model.Listing
	if err := r.DB.SelectContext(ctx, &list, query, sellerID); err != nil {
		return nil, fmt.Errorf("ListingRepository.ListBySeller: %w", err)
	}
	return list, nil
}

func (r *ListingRepository) Update(ctx context.Context, l *model.Listing) error {
	res, err := r.DB.NamedExecContext(ctx, `
        UPDATE listings SET
            title         = :title,
            description   = :description,
            brand         = :brand,
            category      = :category,
            length_inches = :length_inches,
            width         = :width,
            thickness     = :thickness,
            volume        = :volume,
            fins          = :fins,
            price         = :price,
            condition     = :condition,
            location      = :location,
            latitude      = :latitude,
            longitude     = :longitude,
            updated_at    = :updated_at
        WHERE id = :id
    `, l)
	if err != nil {
		return fmt.Errorf("ListingRepository.Update: %w", err)
	}
	return expectOne(res, model.ErrListingNotFound)
}

func (r *ListingRepository) UpdateStatus(ctx context.Context, id string, status model.ListingStatus) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE listings SET status = $1, updated_at = now() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("ListingRepository.UpdateStatus: %w", err)
	}
	return expectOne(res, model.ErrListingNotFound)
}

func (r *ListingRepository) SetImages(ctx context.Context, id string, images []string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE listings SET images = $1, updated_at = now() WHERE id = $2
	`, pq.StringArray(images), id)
	if err != nil {
		return fmt.Errorf("ListingRepository.SetImages: %w", err)
	}
	return expectOne(res, model.ErrListingNotFound)
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ListingRepository.Delete: %w", err)
	}
	return expectOne(res, model.ErrListingNotFound)
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
