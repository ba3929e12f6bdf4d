package service

import (
	"context"
	"io"

	"surf-market/internal/geocode"
	"surf-market/internal/model"
)

// The repository package satisfies these with Postgres and GridFS; tests use fakes.

type ListingStore interface {
	Create(ctx context.Context, l *model.Listing) error
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	ListActive(ctx context.Context) ([]model.Listing, error)
	ListByStatus(ctx context.Context, status model.ListingStatus) ([]model.Listing, error)
	ListBySeller(ctx context.Context, sellerID string, withRemoved bool) ([]model.Listing, error)
	Update(ctx context.Context, l *model.Listing) error
	UpdateStatus(ctx context.Context, id string, status model.ListingStatus) error
	SetImages(ctx context.Context, id string, images []string) error
	Delete(ctx context.Context, id string) error
}

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByAccount(ctx context.Context, provider, providerAccountID string) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
	LinkAccount(ctx context.Context, a *model.Account) error
	Delete(ctx context.Context, id string) ([]string, error)
}

type FavoriteStore interface {
	Add(ctx context.Context, userID, listingID string) error
	Remove(ctx context.Context, userID, listingID string) error
	ListListings(ctx context.Context, userID string) ([]model.Listing, error)
	ListingIDs(ctx context.Context, userID string) ([]string, error)
	CountByListing(ctx context.Context, listingIDs []string) (map[string]int, error)
}

type ImageStore interface {
	Put(ctx context.Context, filename, contentType string, data []byte) (string, error)
	Get(ctx context.Context, id string) ([]byte, string, error)
	Delete(ctx context.Context, id string) error
}

type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (geocode.Place, error)
}

// Actor is the authenticated caller of a mutating operation.
type Actor struct {
	UserID string
	Admin  bool
}

// Upload is one file from a multipart request.
type Upload struct {
	Filename string
	Reader   io.Reader
}

func validCoordinates(kind error, lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return model.Invalid(kind, "latitude", "latitude and longitude must be set together")
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
		return model.Invalid(kind, "latitude", "coordinates out of range")
	}
	return nil
}
