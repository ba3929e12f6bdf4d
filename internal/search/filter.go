// Package search filters and orders listings in memory. Browse loads the active
// boards once and every request runs the same chain of passes over that snapshot:
// search, category, location, length, price, condition, near-me, sort.
package search

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"surf-market/internal/model"
)

type SortOrder string

const (
	SortNewest     SortOrder = "newest"
	SortOldest     SortOrder = "oldest"
	SortPriceAsc   SortOrder = "price-asc"
	SortPriceDesc  SortOrder = "price-desc"
	SortLengthAsc  SortOrder = "length-asc"
	SortLengthDesc SortOrder = "length-desc"
	SortDistance   SortOrder = "distance"
)

const (
	DefaultLimit = 24
	MaxLimit     = 100
)

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Filter is the browse state. Zero values disable the corresponding pass.
type Filter struct {
	Query     string
	Category  string
	Location  string
	MinLength int // inches
	MaxLength int
	MinPrice  float64
	MaxPrice  float64
	Condition string
	Origin    *Point
	RadiusKm  float64
	Sort      SortOrder
}

type Result struct {
	model.Listing
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

// Apply runs every pass in order and returns a new slice; listings is left untouched.
func Apply(listings []model.Listing, f Filter) []Result {
	out := make([]Result, 0, len(listings))
	for _, l := range listings {
		out = append(out, Result{Listing: l})
	}

	out = bySearch(out, f.Query)
	out = byCategory(out, f.Category)
	out = byLocation(out, f.Location)
	out = byLength(out, f.MinLength, f.MaxLength)
	out = byPrice(out, f.MinPrice, f.MaxPrice)
	out = byCondition(out, f.Condition)
	out = nearMe(out, f.Origin, f.RadiusKm)
	sortResults(out, f.Sort, f.Origin != nil)
	return out
}

func keep(in []Result, pred func(*Result) bool) []Result {
	out := in[:0]
	for i := range in {
		if pred(&in[i]) {
			out = append(out, in[i])
		}
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), sub)
}

func bySearch(in []Result, q string) []Result {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return in
	}
	return keep(in, func(r *Result) bool {
		return containsFold(r.Title, q) ||
			containsFold(r.Brand, q) ||
			containsFold(r.Description, q) ||
			containsFold(r.Location, q)
	})
}

func isAll(v string) bool {
	return v == "" || strings.EqualFold(v, "all")
}

func byCategory(in []Result, category string) []Result {
	if isAll(category) {
		return in
	}
	return keep(in, func(r *Result) bool { return string(r.Category) == category })
}

func byLocation(in []Result, location string) []Result {
	location = strings.ToLower(strings.TrimSpace(location))
	if location == "" {
		return in
	}
	return keep(in, func(r *Result) bool { return containsFold(r.Location, location) })
}

func byLength(in []Result, min, max int) []Result {
	if min <= 0 && max <= 0 {
		return in
	}
	return keep(in, func(r *Result) bool {
		if min > 0 && r.LengthInches < min {
			return false
		}
		if max > 0 && r.LengthInches > max {
			return false
		}
		return true
	})
}

func byPrice(in []Result, min, max float64) []Result {
	if min <= 0 && max <= 0 {
		return in
	}
	return keep(in, func(r *Result) bool {
		if min > 0 && r.Price < min {
			return false
		}
		if max > 0 && r.Price > max {
			return false
		}
		return true
	})
}

func byCondition(in []Result, condition string) []Result {
	if isAll(condition) {
		return in
	}
	return keep(in, func(r *Result) bool { return string(r.Condition) == condition })
}

// nearMe drops boards without coordinates once an origin is known.
func nearMe(in []Result, origin *Point, radiusKm float64) []Result {
	if origin == nil {
		return in
	}
	return keep(in, func(r *Result) bool {
		if !r.HasCoordinates() {
			return false
		}
		d := Haversine(origin.Lat, origin.Lng, *r.Latitude, *r.Longitude)
		if radiusKm > 0 && d > radiusKm {
			return false
		}
		r.DistanceKm = &d
		return true
	})
}

func sortResults(rs []Result, order SortOrder, hasOrigin bool) {
	if order == SortDistance && !hasOrigin {
		order = SortNewest
	}

	var less func(a, b *Result) bool
	switch order {
	case SortOldest:
		less = func(a, b *Result) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortPriceAsc:
		less = func(a, b *Result) bool { return a.Price < b.Price }
	case SortPriceDesc:
		less = func(a, b *Result) bool { return a.Price > b.Price }
	case SortLengthAsc:
		less = func(a, b *Result) bool { return a.LengthInches < b.LengthInches }
	case SortLengthDesc:
		less = func(a, b *Result) bool { return a.LengthInches > b.LengthInches }
	case SortDistance:
		less = func(a, b *Result) bool { return *a.DistanceKm < *b.DistanceKm }
	default:
		less = func(a, b *Result) bool { return a.CreatedAt.After(b.CreatedAt) }
	}

	sort.SliceStable(rs, func(i, j int) bool { return less(&rs[i], &rs[j]) })
}

// ParseFilter reads the browse query string. Garbage numbers are ignored rather than rejected.
func ParseFilter(q url.Values) Filter {
	f := Filter{
		Query:     q.Get("q"),
		Category:  q.Get("category"),
		Location:  q.Get("location"),
		Condition: q.Get("condition"),
		Sort:      SortOrder(q.Get("sort")),
	}

	if v := q.Get("minLength"); v != "" {
		if n, err := model.ParseLength(v); err == nil {
			f.MinLength = n
		}
	}
	if v := q.Get("maxLength"); v != "" {
		if n, err := model.ParseLength(v); err == nil {
			f.MaxLength = n
		}
	}
	f.MinPrice = parseFloat(q.Get("minPrice"))
	f.MaxPrice = parseFloat(q.Get("maxPrice"))
	f.RadiusKm = parseFloat(q.Get("radius"))

	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat == nil && errLng == nil {
		p := Point{Lat: lat, Lng: lng}
		if p.Valid() {
			f.Origin = &p
		}
	}
	return f
}

func parseFloat(v string) float64 {
	if v == "" {
		return 0
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return n
}

// Paginate clamps limit to [1, MaxLimit] and returns the requested window.
func Paginate(rs []Result, limit, offset int) ([]Result, int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rs) {
		return []Result{}, limit, offset
	}
	end := offset + limit
	if end > len(rs) {
		end = len(rs)
	}
	return rs[offset:end], limit, offset
}
