package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"surf-market/internal/export"
	"surf-market/internal/model"
	"surf-market/internal/search"
)

const (
	minLengthInches = 36
	maxLengthInches = 240
	maxPrice        = 100000
	maxTitle        = 100
	maxDescription  = 5000
)

// ListingInput is the editable part of a listing.
type ListingInput struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category" binding:"required"`
	Length      string   `json:"length" binding:"required"` // 6'2" or inches
	Width       float64  `json:"width"`
	Thickness   float64  `json:"thickness"`
	Volume      float64  `json:"volume"`
	Fins        string   `json:"fins"`
	Price       float64  `json:"price" binding:"required"`
	Condition   string   `json:"condition" binding:"required"`
	Location    string   `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// ListingService contains the business rules for boards.
type ListingService struct {
	listings  ListingStore
	favorites FavoriteStore
	images    ImageStore
	geocoder  Geocoder
	logger    *zap.Logger
}

func NewListingService(
	ls ListingStore,
	fs FavoriteStore,
	is ImageStore,
	gc Geocoder,
	logger *zap.Logger,
) *ListingService {
	return &ListingService{
		listings:  ls,
		favorites: fs,
		images:    is,
		geocoder:  gc,
		logger:    logger,
	}
}

// Browse runs the search passes over every active listing.
func (s *ListingService) Browse(ctx context.Context, f search.Filter) ([]search.Result, error) {
	active, err := s.listings.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListingService.Browse: %w", err)
	}
	return search.Apply(active, f), nil
}

// Get hides removed boards from everyone but moderators.
func (s *ListingService) Get(ctx context.Context, actor Actor, id string) (*model.Listing, error) {
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.Status == model.StatusRemoved && !actor.Admin {
		return nil, model.ErrListingNotFound
	}
	return l, nil
}

func (s *ListingService) Create(ctx context.Context, sellerID string, in ListingInput) (*model.Listing, error) {
	now := time.Now().UTC()
	l := &model.Listing{
		ID:        uuid.NewString(),
		SellerID:  sellerID,
		Images:    pq.StringArray{},
		Status:    model.StatusActive,
		CreatedAt: now,
	}
	if err := s.apply(ctx, l, in); err != nil {
		return nil, err
	}
	l.UpdatedAt = now

	if err := s.listings.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("ListingService.Create: %w", err)
	}
	s.logger.Info("listing created", zap.String("listing_id", l.ID), zap.String("seller_id", sellerID))
	return l, nil
}

func (s *ListingService) Update(ctx context.Context, actor Actor, id string, in ListingInput) (*model.Listing, error) {
	l, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, l, in); err != nil {
		return nil, err
	}
	l.UpdatedAt = time.Now().UTC()

	if err := s.listings.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("ListingService.Update: %w", err)
	}
	return l, nil
}

// apply validates in and copies it onto l, filling the location from coordinates when missing.
func (s *ListingService) apply(ctx context.Context, l *model.Listing, in ListingInput) error {
	title := strings.TrimSpace(in.Title)
	if len(title) < 3 || len(title) > maxTitle {
		return model.Invalid(model.ErrInvalidListing, "title", "must be 3 to 100 characters")
	}
	if len(in.Description) > maxDescription {
		return model.Invalid(model.ErrInvalidListing, "description", "too long")
	}
	category := model.Category(strings.ToLower(in.Category))
	if !category.Valid() {
		return model.Invalid(model.ErrInvalidListing, "category", "unknown category")
	}
	condition := model.Condition(strings.ToLower(in.Condition))
	if !condition.Valid() {
		return model.Invalid(model.ErrInvalidListing, "condition", "unknown condition")
	}
	length, err := model.ParseLength(in.Length)
	if err != nil || length < minLengthInches || length > maxLengthInches {
		return model.Invalid(model.ErrInvalidListing, "length", "must be between 3'0\" and 20'0\"")
	}
	if in.Price <= 0 || in.Price > maxPrice {
		return model.Invalid(model.ErrInvalidListing, "price", "must be between 0 and 100000")
	}
	if in.Width < 0 || in.Thickness < 0 || in.Volume < 0 {
		return model.Invalid(model.ErrInvalidListing, "dimensions", "must not be negative")
	}
	if err := validCoordinates(model.ErrInvalidListing, in.Latitude, in.Longitude); err != nil {
		return err
	}

	l.Title = title
	l.Description = strings.TrimSpace(in.Description)
	l.Brand = strings.TrimSpace(in.Brand)
	l.Category = category
	l.LengthInches = length
	l.Width = in.Width
	l.Thickness = in.Thickness
	l.Volume = in.Volume
	l.Fins = strings.TrimSpace(in.Fins)
	l.Price = in.Price
	l.Condition = condition
	l.Location = strings.TrimSpace(in.Location)
	l.Latitude = in.Latitude
	l.Longitude = in.Longitude

	if l.Location == "" && l.HasCoordinates() {
		l.Location = s.lookupLocation(ctx, *l.Latitude, *l.Longitude)
	}
	return nil
}

func (s *ListingService) lookupLocation(ctx context.Context, lat, lng float64) string {
	place, err := s.geocoder.Reverse(ctx, lat, lng)
	if err != nil {
		s.logger.Warn("reverse geocoding failed", zap.Float64("lat", lat), zap.Float64("lng", lng), zap.Error(err))
		return ""
	}
	return place.Display()
}

// owned loads a listing the actor is allowed to modify. Removed boards are frozen for their owners.
func (s *ListingService) owned(ctx context.Context, actor Actor, id string) (*model.Listing, error) {
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.SellerID != actor.UserID {
		return nil, model.ErrForbidden
	}
	if l.Status == model.StatusRemoved {
		return nil, model.ErrListingNotFound
	}
	return l, nil
}

func (s *ListingService) Delete(ctx context.Context, actor Actor, id string) error {
	l, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.listings.Delete(ctx, id); err != nil {
		return fmt.Errorf("ListingService.Delete: %w", err)
	}
	for _, img := range l.Images {
		deleteImage(ctx, s.images, s.logger, img)
	}
	return nil
}

// SetStatus lets a seller toggle between active and sold.
func (s *ListingService) SetStatus(ctx context.Context, actor Actor, id string, status model.ListingStatus) (*model.Listing, error) {
	if status != model.StatusActive && status != model.StatusSold {
		return nil, model.Invalid(model.ErrInvalidListing, "status", "must be active or sold")
	}
	l, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if l.Status == status {
		return l, nil
	}
	if err := s.listings.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("ListingService.SetStatus: %w", err)
	}
	l.Status = status
	return l, nil
}

// Moderate is the admin-only switch between removed and active.
func (s *ListingService) Moderate(ctx context.Context, actor Actor, id string, status model.ListingStatus) error {
	if !actor.Admin {
		return model.ErrForbidden
	}
	if status != model.StatusRemoved && status != model.StatusActive {
		return model.Invalid(model.ErrInvalidListing, "status", "must be removed or active")
	}
	if err := s.listings.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, model.ErrListingNotFound) {
			return err
		}
		return fmt.Errorf("ListingService.Moderate: %w", err)
	}
	s.logger.Info("listing moderated",
		zap.String("listing_id", id),
		zap.String("status", string(status)),
		zap.String("admin_id", actor.UserID))
	return nil
}

func (s *ListingService) ListByStatus(ctx context.Context, actor Actor, status model.ListingStatus) ([]model.Listing, error) {
	if !actor.Admin {
		return nil, model.ErrForbidden
	}
	if !status.Valid() {
		return nil, model.Invalid(model.ErrInvalidListing, "status", "unknown status")
	}
	return s.listings.ListByStatus(ctx, status)
}

func (s *ListingService) AddImages(ctx context.Context, actor Actor, id string, uploads []Upload) (*model.Listing, error) {
	l, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, model.Invalid(model.ErrUnsupportedImage, "images", "no files uploaded")
	}
	if len(l.Images)+len(uploads) > model.MaxListingImages {
		return nil, model.ErrTooManyImages
	}

	ids, err := storeImages(ctx, s.images, s.logger, "listing_"+l.ID, uploads)
	if err != nil {
		return nil, err
	}

	images := append(append([]string{}, l.Images...), ids...)
	if err := s.listings.SetImages(ctx, id, images); err != nil {
		for _, img := range ids {
			deleteImage(context.Background(), s.images, s.logger, img)
		}
		return nil, fmt.Errorf("ListingService.AddImages: %w", err)
	}
	l.Images = images
	return l, nil
}

func (s *ListingService) RemoveImage(ctx context.Context, actor Actor, id, imageID string) (*model.Listing, error) {
	l, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	images := make([]string, 0, len(l.Images))
	for _, img := range l.Images {
		if img != imageID {
			images = append(images, img)
		}
	}
	if len(images) == len(l.Images) {
		return nil, model.ErrImageNotFound
	}

	if err := s.listings.SetImages(ctx, id, images); err != nil {
		return nil, fmt.Errorf("ListingService.RemoveImage: %w", err)
	}
	deleteImage(ctx, s.images, s.logger, imageID)
	l.Images = images
	return l, nil
}

func (s *ListingService) Image(ctx context.Context, imageID string) ([]byte, string, error) {
	return s.images.Get(ctx, imageID)
}

// Mine lists the seller's own boards, sold ones included.
func (s *ListingService) Mine(ctx context.Context, sellerID string) ([]model.Listing, error) {
	return s.listings.ListBySeller(ctx, sellerID, false)
}

func (s *ListingService) Export(ctx context.Context, sellerID string) (*excelize.File, error) {
	mine, err := s.Mine(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(mine))
	for _, l := range mine {
		ids = append(ids, l.ID)
	}
	counts, err := s.favorites.CountByListing(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("ListingService.Export: %w", err)
	}
	return export.Listings(mine, counts)
}
