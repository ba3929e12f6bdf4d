// Package storetest provides in-memory stores for service and handler tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"surf-market/internal/geocode"
	"surf-market/internal/mailer"
	"surf-market/internal/model"
)

type Listings struct {
	mu   sync.Mutex
	byID map[string]model.Listing
}

func NewListings(seed ...model.Listing) *Listings {
	s := &Listings{byID: map[string]model.Listing{}}
	for _, l := range seed {
		s.byID[l.ID] = l
	}
	return s
}

func (s *Listings) Create(_ context.Context, l *model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[l.ID] = *l
	return nil
}

func (s *Listings) GetByID(_ context.Context, id string) (*model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byID[id]
	if !ok {
		return nil, model.ErrListingNotFound
	}
	return &l, nil
}

func (s *Listings) filter(pred func(model.Listing) bool) []model.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Listing{}
	for _, l := range s.byID {
		if pred(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Listings) ListActive(ctx context.Context) ([]model.Listing, error) {
	return s.ListByStatus(ctx, model.StatusActive)
}

func (s *Listings) ListByStatus(_ context.Context, status model.ListingStatus) ([]model.Listing, error) {
	return s.filter(func(l model.Listing) bool { return l.Status == status }), nil
}

func (s *Listings) ListBySeller(_ context.Context, sellerID string, withRemoved bool) ([]model.Listing, error) {
	return s.filter(func(l model.Listing) bool {
		return l.SellerID == sellerID && (withRemoved || l.Status != model.StatusRemoved)
	}), nil
}

func (s *Listings) Update(_ context.Context, l *model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[l.ID]
	if !ok {
		return model.ErrListingNotFound
	}
	upd := *l
	upd.Images, upd.Status, upd.SellerID, upd.CreatedAt = cur.Images, cur.Status, cur.SellerID, cur.CreatedAt
	s.byID[l.ID] = upd
	return nil
}

func (s *Listings) UpdateStatus(_ context.Context, id string, status model.ListingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byID[id]
	if !ok {
		return model.ErrListingNotFound
	}
	l.Status = status
	s.byID[id] = l
	return nil
}

func (s *Listings) SetImages(_ context.Context, id string, images []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byID[id]
	if !ok {
		return model.ErrListingNotFound
	}
	l.Images = append([]string{}, images...)
	s.byID[id] = l
	return nil
}

func (s *Listings) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return model.ErrListingNotFound
	}
	delete(s.byID, id)
	return nil
}

type Users struct {
	mu       sync.Mutex
	byID     map[string]model.User
	accounts map[string]string // provider/providerID -> user id

	// Listings and Favorites, when set, are purged on Delete like the SQL cascade.
	Listings  *Listings
	Favorites *Favorites
}

func NewUsers(seed ...model.User) *Users {
	s := &Users{byID: map[string]model.User{}, accounts: map[string]string{}}
	for _, u := range seed {
		s.byID[u.ID] = u
	}
	return s
}

func (s *Users) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Email == u.Email {
			return model.ErrEmailTaken
		}
	}
	s.byID[u.ID] = *u
	return nil
}

func (s *Users) GetByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (s *Users) GetByAccount(ctx context.Context, provider, providerAccountID string) (*model.User, error) {
	s.mu.Lock()
	id, ok := s.accounts[provider+"/"+providerAccountID]
	s.mu.Unlock()
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *Users) Update(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[u.ID]; !ok {
		return model.ErrUserNotFound
	}
	s.byID[u.ID] = *u
	return nil
}

func (s *Users) LinkAccount(_ context.Context, a *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := a.Provider + "/" + a.ProviderAccountID
	if _, ok := s.accounts[key]; !ok {
		s.accounts[key] = a.UserID
	}
	return nil
}

func (s *Users) Delete(ctx context.Context, id string) ([]string, error) {
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return nil, model.ErrUserNotFound
	}
	delete(s.byID, id)
	for k, uid := range s.accounts {
		if uid == id {
			delete(s.accounts, k)
		}
	}
	s.mu.Unlock()

	var images []string
	if s.Listings != nil {
		owned, _ := s.Listings.ListBySeller(ctx, id, true)
		for _, l := range owned {
			images = append(images, l.Images...)
			_ = s.Listings.Delete(ctx, l.ID)
			if s.Favorites != nil {
				s.Favorites.dropListing(l.ID)
			}
		}
	}
	if s.Favorites != nil {
		s.Favorites.dropUser(id)
	}
	return images, nil
}

type favorite struct {
	userID, listingID string
	at                time.Time
}

type Favorites struct {
	mu       sync.Mutex
	items    []favorite
	listings *Listings
}

func NewFavorites(listings *Listings) *Favorites {
	return &Favorites{listings: listings}
}

func (s *Favorites) Add(_ context.Context, userID, listingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.items {
		if f.userID == userID && f.listingID == listingID {
			return nil
		}
	}
	s.items = append(s.items, favorite{userID: userID, listingID: listingID, at: time.Now()})
	return nil
}

func (s *Favorites) Remove(_ context.Context, userID, listingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.items[:0]
	for _, f := range s.items {
		if !(f.userID == userID && f.listingID == listingID) {
			out = append(out, f)
		}
	}
	s.items = out
	return nil
}

func (s *Favorites) ListingIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	for _, l := range s.visible(ctx, userID) {
		ids = append(ids, l.ID)
	}
	return ids, nil
}

func (s *Favorites) ListListings(ctx context.Context, userID string) ([]model.Listing, error) {
	return s.visible(ctx, userID), nil
}

// visible returns the user's favorites newest first, skipping removed or missing boards.
func (s *Favorites) visible(ctx context.Context, userID string) []model.Listing {
	s.mu.Lock()
	ids := []string{}
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].userID == userID {
			ids = append(ids, s.items[i].listingID)
		}
	}
	s.mu.Unlock()

	out := []model.Listing{}
	for _, id := range ids {
		l, err := s.listings.GetByID(ctx, id)
		if err != nil || l.Status == model.StatusRemoved {
			continue
		}
		out = append(out, *l)
	}
	return out
}

func (s *Favorites) CountByListing(_ context.Context, listingIDs []string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := map[string]bool{}
	for _, id := range listingIDs {
		want[id] = true
	}
	counts := map[string]int{}
	for _, f := range s.items {
		if want[f.listingID] {
			counts[f.listingID]++
		}
	}
	return counts, nil
}

func (s *Favorites) dropListing(listingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.items[:0]
	for _, f := range s.items {
		if f.listingID != listingID {
			out = append(out, f)
		}
	}
	s.items = out
}

func (s *Favorites) dropUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.items[:0]
	for _, f := range s.items {
		if f.userID != userID {
			out = append(out, f)
		}
	}
	s.items = out
}

type Images struct {
	mu    sync.Mutex
	next  int
	blobs map[string][]byte
}

func NewImages() *Images {
	return &Images{blobs: map[string][]byte{}}
}

func (s *Images) Put(_ context.Context, _, _ string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := fmt.Sprintf("img%03d", s.next)
	s.blobs[id] = data
	return id, nil
}

func (s *Images) Get(_ context.Context, id string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[id]
	if !ok {
		return nil, "", model.ErrImageNotFound
	}
	return data, "image/jpeg", nil
}

func (s *Images) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; !ok {
		return model.ErrImageNotFound
	}
	delete(s.blobs, id)
	return nil
}

func (s *Images) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// Geocoder answers every lookup with Place, or Err when set.
type Geocoder struct {
	Place geocode.Place
	Err   error
	Calls int
}

func (g *Geocoder) Reverse(_ context.Context, _, _ float64) (geocode.Place, error) {
	g.Calls++
	if g.Err != nil {
		return geocode.Place{}, g.Err
	}
	return g.Place, nil
}

// Mailer records every message.
type Mailer struct {
	mu   sync.Mutex
	Sent []mailer.Message
	Err  error
}

func (m *Mailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

func (m *Mailer) Messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message{}, m.Sent...)
}
