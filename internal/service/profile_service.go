package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"surf-market/internal/model"
)

const (
	maxBio       = 1000
	imageURLBase = "/api/images/"
)

type ProfileInput struct {
	Name      string   `json:"name" binding:"required"`
	Bio       string   `json:"bio"`
	Location  string   `json:"location"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type ProfileService struct {
	users    UserStore
	listings ListingStore
	images   ImageStore
	geocoder Geocoder
	logger   *zap.Logger
}

func NewProfileService(us UserStore, ls ListingStore, is ImageStore, gc Geocoder, logger *zap.Logger) *ProfileService {
	return &ProfileService{users: us, listings: ls, images: is, geocoder: gc, logger: logger}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileInput) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > maxName {
		return nil, model.Invalid(model.ErrInvalidProfile, "name", "must be 1 to 80 characters")
	}
	if len(in.Bio) > maxBio {
		return nil, model.Invalid(model.ErrInvalidProfile, "bio", "too long")
	}
	if err := validCoordinates(model.ErrInvalidProfile, in.Latitude, in.Longitude); err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Name = name
	u.Bio = strings.TrimSpace(in.Bio)
	u.Location = strings.TrimSpace(in.Location)
	u.Latitude = in.Latitude
	u.Longitude = in.Longitude
	u.UpdatedAt = time.Now().UTC()

	if u.Location == "" && u.Latitude != nil {
		if place, err := s.geocoder.Reverse(ctx, *u.Latitude, *u.Longitude); err == nil {
			u.Location = place.Display()
		} else {
			s.logger.Warn("reverse geocoding failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("ProfileService.Update: %w", err)
	}
	return u, nil
}

// Public is the seller page: profile plus boards that are still for sale.
func (s *ProfileService) Public(ctx context.Context, userID string) (*model.PublicProfile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	all, err := s.listings.ListBySeller(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("ProfileService.Public: %w", err)
	}
	active := make([]model.Listing, 0, len(all))
	for _, l := range all {
		if l.Status == model.StatusActive {
			active = append(active, l)
		}
	}
	return &model.PublicProfile{
		ID:        u.ID,
		Name:      u.Name,
		Image:     u.Image,
		Bio:       u.Bio,
		Location:  u.Location,
		CreatedAt: u.CreatedAt,
		Listings:  active,
	}, nil
}

// SetAvatar stores a new profile photo and drops the previous one if we hosted it.
func (s *ProfileService) SetAvatar(ctx context.Context, userID string, up Upload) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids, err := storeImages(ctx, s.images, s.logger, "avatar_"+userID, []Upload{up})
	if err != nil {
		return nil, err
	}

	old := u.Image
	u.Image = imageURLBase + ids[0]
	u.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		deleteImage(context.Background(), s.images, s.logger, ids[0])
		return nil, fmt.Errorf("ProfileService.SetAvatar: %w", err)
	}
	if id, ok := hostedImageID(old); ok {
		deleteImage(ctx, s.images, s.logger, id)
	}
	return u, nil
}

// DeleteAccount removes the user and all their data, then purges their images.
func (s *ProfileService) DeleteAccount(ctx context.Context, userID string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	images, err := s.users.Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("ProfileService.DeleteAccount: %w", err)
	}
	if id, ok := hostedImageID(u.Image); ok {
		images = append(images, id)
	}
	for _, id := range images {
		deleteImage(ctx, s.images, s.logger, id)
	}
	s.logger.Info("account deleted", zap.String("user_id", userID), zap.Int("images", len(images)))
	return nil
}

func hostedImageID(url string) (string, bool) {
	if !strings.HasPrefix(url, imageURLBase) {
		return "", false
	}
	return strings.TrimPrefix(url, imageURLBase), true
}
