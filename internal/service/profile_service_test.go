package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"surf-market/internal/geocode"
	"surf-market/internal/model"
	"surf-market/internal/storetest"
)

type profileFixture struct {
	svc       *ProfileService
	users     *storetest.Users
	listings  *storetest.Listings
	favorites *storetest.Favorites
	images    *storetest.Images
}

func newProfileFixture(users []model.User, listings ...model.Listing) *profileFixture {
	f := &profileFixture{
		users:    storetest.NewUsers(users...),
		listings: storetest.NewListings(listings...),
		images:   storetest.NewImages(),
	}
	f.favorites = storetest.NewFavorites(f.listings)
	f.users.Listings = f.listings
	f.users.Favorites = f.favorites
	gc := &storetest.Geocoder{Place: geocode.Place{City: "Biarritz", Country: "France"}}
	f.svc = NewProfileService(f.users, f.listings, f.images, gc, zap.NewNop())
	return f
}

func TestProfileService_Update(t *testing.T) {
	f := newProfileFixture([]model.User{{ID: "u1", Name: "Old", Email: "u1@example.com"}})

	u, err := f.svc.Update(context.Background(), "u1", ProfileInput{
		Name: "Kai", Bio: "Goofy footer", Latitude: fp(43.48), Longitude: fp(-1.56),
	})
	require.NoError(t, err)
	assert.Equal(t, "Kai", u.Name)
	assert.Equal(t, "Biarritz, France", u.Location)

	_, err = f.svc.Update(context.Background(), "u1", ProfileInput{Name: "  "})
	assert.ErrorIs(t, err, model.ErrInvalidProfile)

	_, err = f.svc.Update(context.Background(), "u1", ProfileInput{Name: "Kai", Latitude: fp(1)})
	assert.ErrorIs(t, err, model.ErrInvalidProfile)

	_, err = f.svc.Update(context.Background(), "ghost", ProfileInput{Name: "Kai"})
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestProfileService_PublicShowsActiveOnly(t *testing.T) {
	f := newProfileFixture(
		[]model.User{{ID: "u1", Name: "Kai", Email: "kai@example.com"}},
		seeded("a", "u1", model.StatusActive),
		seeded("b", "u1", model.StatusSold),
		seeded("c", "u1", model.StatusRemoved),
		seeded("d", "u2", model.StatusActive),
	)

	p, err := f.svc.Public(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Kai", p.Name)
	require.Len(t, p.Listings, 1)
	assert.Equal(t, "a", p.Listings[0].ID)
}

func TestProfileService_SetAvatarReplacesHostedImage(t *testing.T) {
	f := newProfileFixture([]model.User{{ID: "u1", Name: "Kai", Email: "kai@example.com"}})

	u, err := f.svc.SetAvatar(context.Background(), "u1", pngUpload(t, "me.png"))
	require.NoError(t, err)
	assert.Regexp(t, `^/api/images/img\d+$`, u.Image)
	assert.Equal(t, 1, f.images.Len())

	u2, err := f.svc.SetAvatar(context.Background(), "u1", pngUpload(t, "me2.png"))
	require.NoError(t, err)
	assert.NotEqual(t, u.Image, u2.Image)
	assert.Equal(t, 1, f.images.Len())
}

func TestProfileService_DeleteAccount(t *testing.T) {
	a := seeded("a", "u1", model.StatusActive)
	a.CreatedAt = time.Now()
	f := newProfileFixture(
		[]model.User{
			{ID: "u1", Name: "Kai", Email: "kai@example.com"},
			{ID: "u2", Name: "Lani", Email: "lani@example.com"},
		},
		a, seeded("b", "u2", model.StatusActive),
	)
	ctx := context.Background()

	img, err := f.images.Put(ctx, "x", "image/jpeg", []byte("jpeg"))
	require.NoError(t, err)
	require.NoError(t, f.listings.SetImages(ctx, "a", []string{img}))
	require.NoError(t, f.favorites.Add(ctx, "u2", "a"))
	require.NoError(t, f.favorites.Add(ctx, "u1", "b"))

	require.NoError(t, f.svc.DeleteAccount(ctx, "u1"))

	_, err = f.users.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
	_, err = f.listings.GetByID(ctx, "a")
	assert.ErrorIs(t, err, model.ErrListingNotFound)
	assert.Zero(t, f.images.Len())

	favs, err := f.favorites.ListingIDs(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, favs)

	assert.ErrorIs(t, f.svc.DeleteAccount(ctx, "u1"), model.ErrUserNotFound)
}
