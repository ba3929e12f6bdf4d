package model

import "time"

type Favorite struct {
	UserID    string    `db:"user_id" json:"userId"`
	ListingID string    `db:"listing_id" json:"listingId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
