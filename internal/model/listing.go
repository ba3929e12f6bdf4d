package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// MaxListingImages caps how many photos a single board can carry.
const MaxListingImages = 8

type Category string

const (
	CategoryShortboard Category = "shortboard"
	CategoryLongboard  Category = "longboard"
	CategoryFish       Category = "fish"
	CategoryFunboard   Category = "funboard"
	CategoryGun        Category = "gun"
	CategoryFoamie     Category = "foamie"
	CategoryHybrid     Category = "hybrid"
	CategorySUP        Category = "sup"
	CategoryOther      Category = "other"
)

var categories = []Category{
	CategoryShortboard, CategoryLongboard, CategoryFish, CategoryFunboard,
	CategoryGun, CategoryFoamie, CategoryHybrid, CategorySUP, CategoryOther,
}

func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func (c Category) Valid() bool {
	for _, v := range categories {
		if v == c {
			return true
		}
	}
	return false
}

type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like-new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionPoor    Condition = "poor"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

type ListingStatus string

const (
	StatusActive  ListingStatus = "active"
	StatusSold    ListingStatus = "sold"
	StatusRemoved ListingStatus = "removed" // set by moderators only
)

func (s ListingStatus) Valid() bool {
	return s == StatusActive || s == StatusSold || s == StatusRemoved
}

// Listing is a surfboard for sale.
type Listing struct {
	ID           string         `db:"id" json:"id"`
	SellerID     string         `db:"seller_id" json:"sellerId"`
	Title        string         `db:"title" json:"title"`
	Description  string         `db:"description" json:"description"`
	Brand        string         `db:"brand" json:"brand"`
	Category     Category       `db:"category" json:"category"`
	LengthInches int            `db:"length_inches" json:"lengthInches"`
	Width        float64        `db:"width" json:"width"`
	Thickness    float64        `db:"thickness" json:"thickness"`
	Volume       float64        `db:"volume" json:"volume"`
	Fins         string         `db:"fins" json:"fins"`
	Price        float64        `db:"price" json:"price"`
	Condition    Condition      `db:"condition" json:"condition"`
	Location     string         `db:"location" json:"location"`
	Latitude     *float64       `db:"latitude" json:"latitude,omitempty"`
	Longitude    *float64       `db:"longitude" json:"longitude,omitempty"`
	Images       pq.StringArray `db:"images" json:"images"`
	Status       ListingStatus  `db:"status" json:"status"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

func (l *Listing) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Length renders the board length the way surfers write it, e.g. 6'2".
func (l *Listing) Length() string {
	return FormatLength(l.LengthInches)
}

func FormatLength(inches int) string {
	if inches <= 0 {
		return ""
	}
	return fmt.Sprintf("%d'%d\"", inches/12, inches%12)
}

// ParseLength accepts 6'2", 6'2, 6' or a bare number of inches.
func ParseLength(s string) (int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "\"")
	s = strings.ReplaceAll(s, "’", "'")
	if s == "" {
		return 0, fmt.Errorf("empty length")
	}

	feetStr, inchStr, hasFeet := strings.Cut(s, "'")
	if !hasFeet {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid length %q", s)
		}
		return n, nil
	}

	feet, err := strconv.Atoi(strings.TrimSpace(feetStr))
	if err != nil || feet < 0 {
		return 0, fmt.Errorf("invalid length %q", s)
	}
	inches := 0
	if inchStr = strings.TrimSpace(inchStr); inchStr != "" {
		inches, err = strconv.Atoi(inchStr)
		if err != nil || inches < 0 || inches > 11 {
			return 0, fmt.Errorf("invalid length %q", s)
		}
	}
	total := feet*12 + inches
	if total <= 0 {
		return 0, fmt.Errorf("invalid length %q", s)
	}
	return total, nil
}
