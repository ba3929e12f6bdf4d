package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"surf-market/internal/geocode"
	"surf-market/internal/model"
	"surf-market/internal/search"
	"surf-market/internal/storetest"
)

type listingFixture struct {
	svc       *ListingService
	listings  *storetest.Listings
	favorites *storetest.Favorites
	images    *storetest.Images
	geocoder  *storetest.Geocoder
}

func newListingFixture(seed ...model.Listing) *listingFixture {
	f := &listingFixture{
		listings: storetest.NewListings(seed...),
		images:   storetest.NewImages(),
		geocoder: &storetest.Geocoder{Place: geocode.Place{City: "Santa Cruz", State: "California"}},
	}
	f.favorites = storetest.NewFavorites(f.listings)
	f.svc = NewListingService(f.listings, f.favorites, f.images, f.geocoder, zap.NewNop())
	return f
}

func fp(v float64) *float64 { return &v }

func validInput() ListingInput {
	return ListingInput{
		Title:     "Twin fish",
		Brand:     "Lost",
		Category:  "Fish",
		Length:    `5'6"`,
		Price:     450,
		Condition: "good",
		Location:  "Pacifica, California",
	}
}

func pngUpload(t *testing.T, name string) Upload {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 20, 10))))
	return Upload{Filename: name, Reader: &buf}
}

func TestListingService_Create(t *testing.T) {
	f := newListingFixture()

	l, err := f.svc.Create(context.Background(), "seller", validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, l.ID)
	assert.Equal(t, "seller", l.SellerID)
	assert.Equal(t, model.CategoryFish, l.Category)
	assert.Equal(t, 66, l.LengthInches)
	assert.Equal(t, model.StatusActive, l.Status)
	assert.Zero(t, f.geocoder.Calls)

	stored, err := f.listings.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Twin fish", stored.Title)
}

func TestListingService_CreateFillsLocationFromCoordinates(t *testing.T) {
	f := newListingFixture()
	in := validInput()
	in.Location = ""
	in.Latitude, in.Longitude = fp(36.97), fp(-122.03)

	l, err := f.svc.Create(context.Background(), "seller", in)
	require.NoError(t, err)
	assert.Equal(t, "Santa Cruz, California", l.Location)
	assert.Equal(t, 1, f.geocoder.Calls)
}

func TestListingService_CreateGeocoderFailureIsNotFatal(t *testing.T) {
	f := newListingFixture()
	f.geocoder.Err = errors.New("boom")
	in := validInput()
	in.Location = ""
	in.Latitude, in.Longitude = fp(36.97), fp(-122.03)

	l, err := f.svc.Create(context.Background(), "seller", in)
	require.NoError(t, err)
	assert.Empty(t, l.Location)
}

func TestListingService_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		field string
		edit  func(in *ListingInput)
	}{
		{"short title", "title", func(in *ListingInput) { in.Title = "ab" }},
		{"bad category", "category", func(in *ListingInput) { in.Category = "kite" }},
		{"bad condition", "condition", func(in *ListingInput) { in.Condition = "mint" }},
		{"bad length", "length", func(in *ListingInput) { in.Length = "six feet" }},
		{"too short", "length", func(in *ListingInput) { in.Length = `2'0"` }},
		{"zero price", "price", func(in *ListingInput) { in.Price = 0 }},
		{"negative volume", "dimensions", func(in *ListingInput) { in.Volume = -1 }},
		{"half coordinates", "latitude", func(in *ListingInput) { in.Latitude = fp(10) }},
		{"out of range", "latitude", func(in *ListingInput) { in.Latitude, in.Longitude = fp(100), fp(0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.edit(&in)

			_, err := newListingFixture().svc.Create(context.Background(), "seller", in)
			require.ErrorIs(t, err, model.ErrInvalidListing)
			var ve *model.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func seeded(id, seller string, status model.ListingStatus) model.Listing {
	return model.Listing{
		ID: id, SellerID: seller, Title: "Board " + id, Category: model.CategoryShortboard,
		LengthInches: 72, Price: 300, Condition: model.ConditionGood, Status: status,
		CreatedAt: time.Now().Add(-time.Hour),
	}
}

func TestListingService_Browse(t *testing.T) {
	f := newListingFixture(
		seeded("a", "s1", model.StatusActive),
		seeded("b", "s1", model.StatusSold),
		seeded("c", "s2", model.StatusRemoved),
	)

	got, err := f.svc.Browse(context.Background(), search.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestListingService_GetHidesRemoved(t *testing.T) {
	f := newListingFixture(seeded("c", "s1", model.StatusRemoved))

	_, err := f.svc.Get(context.Background(), Actor{UserID: "s1"}, "c")
	assert.ErrorIs(t, err, model.ErrListingNotFound)

	l, err := f.svc.Get(context.Background(), Actor{UserID: "mod", Admin: true}, "c")
	require.NoError(t, err)
	assert.Equal(t, "c", l.ID)
}

func TestListingService_UpdateOwnerOnly(t *testing.T) {
	f := newListingFixture(seeded("a", "s1", model.StatusActive))

	_, err := f.svc.Update(context.Background(), Actor{UserID: "s2"}, "a", validInput())
	assert.ErrorIs(t, err, model.ErrForbidden)

	l, err := f.svc.Update(context.Background(), Actor{UserID: "s1"}, "a", validInput())
	require.NoError(t, err)
	assert.Equal(t, "Twin fish", l.Title)
}

func TestListingService_SetStatus(t *testing.T) {
	f := newListingFixture(seeded("a", "s1", model.StatusActive))
	owner := Actor{UserID: "s1"}

	l, err := f.svc.SetStatus(context.Background(), owner, "a", model.StatusSold)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSold, l.Status)

	_, err = f.svc.SetStatus(context.Background(), owner, "a", model.StatusRemoved)
	assert.ErrorIs(t, err, model.ErrInvalidListing)

	_, err = f.svc.SetStatus(context.Background(), Actor{UserID: "s2"}, "a", model.StatusActive)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestListingService_Moderate(t *testing.T) {
	f := newListingFixture(seeded("a", "s1", model.StatusActive))

	err := f.svc.Moderate(context.Background(), Actor{UserID: "s1"}, "a", model.StatusRemoved)
	assert.ErrorIs(t, err, model.ErrForbidden)

	admin := Actor{UserID: "mod", Admin: true}
	require.NoError(t, f.svc.Moderate(context.Background(), admin, "a", model.StatusRemoved))

	removed, err := f.svc.ListByStatus(context.Background(), admin, model.StatusRemoved)
	require.NoError(t, err)
	require.Len(t, removed, 1)

	// Owners can no longer touch a removed board.
	_, err = f.svc.SetStatus(context.Background(), Actor{UserID: "s1"}, "a", model.StatusSold)
	assert.ErrorIs(t, err, model.ErrListingNotFound)

	require.NoError(t, f.svc.Moderate(context.Background(), admin, "a", model.StatusActive))
	assert.ErrorIs(t, f.svc.Moderate(context.Background(), admin, "missing", model.StatusActive), model.ErrListingNotFound)
}

func TestListingService_Images(t *testing.T) {
	f := newListingFixture(seeded("a", "s1", model.StatusActive))
	owner := Actor{UserID: "s1"}

	l, err := f.svc.AddImages(context.Background(), owner, "a", []Upload{
		pngUpload(t, "one.png"), pngUpload(t, "two.png"), pngUpload(t, "three.png"),
	})
	require.NoError(t, err)
	require.Len(t, l.Images, 3)
	assert.Equal(t, 3, f.images.Len())

	l, err = f.svc.RemoveImage(context.Background(), owner, "a", l.Images[1])
	require.NoError(t, err)
	assert.Len(t, l.Images, 2)
	assert.Equal(t, 2, f.images.Len())

	_, err = f.svc.RemoveImage(context.Background(), owner, "a", "nope")
	assert.ErrorIs(t, err, model.ErrImageNotFound)
}

func TestListingService_AddImagesLimit(t *testing.T) {
	l := seeded("a", "s1", model.StatusActive)
	l.Images = []string{"1", "2", "3", "4", "5", "6", "7"}
	f := newListingFixture(l)

	_, err := f.svc.AddImages(context.Background(), Actor{UserID: "s1"}, "a", []Upload{
		pngUpload(t, "a.png"), pngUpload(t, "b.png"),
	})
	assert.ErrorIs(t, err, model.ErrTooManyImages)
	assert.Zero(t, f.images.Len())
}

func TestListingService_AddImagesRollsBackOnFailure(t *testing.T) {
	f := newListingFixture(seeded("a", "s1", model.StatusActive))

	_, err := f.svc.AddImages(context.Background(), Actor{UserID: "s1"}, "a", []Upload{
		pngUpload(t, "good.png"),
		{Filename: "bad.txt", Reader: strings.NewReader("nope")},
	})
	assert.ErrorIs(t, err, model.ErrUnsupportedImage)
	assert.Zero(t, f.images.Len())

	stored, err := f.listings.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Empty(t, stored.Images)
}

func TestListingService_DeletePurgesImages(t *testing.T) {
	f := newListingFixture(seeded("a", "s1", model.StatusActive))
	owner := Actor{UserID: "s1"}
	_, err := f.svc.AddImages(context.Background(), owner, "a", []Upload{pngUpload(t, "one.png")})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(context.Background(), Actor{UserID: "s2"}, "a"), model.ErrForbidden)
	require.NoError(t, f.svc.Delete(context.Background(), owner, "a"))
	assert.Zero(t, f.images.Len())

	_, err = f.listings.GetByID(context.Background(), "a")
	assert.ErrorIs(t, err, model.ErrListingNotFound)
}

func TestListingService_Export(t *testing.T) {
	f := newListingFixture(seeded("a", "s1", model.StatusActive), seeded("b", "s1", model.StatusSold))
	require.NoError(t, f.favorites.Add(context.Background(), "buyer", "a"))

	wb, err := f.svc.Export(context.Background(), "s1")
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"Listings"}, wb.GetSheetList())
}
