package domain

import "time"

// Review is the canonical, persisted shape of a guest review,
// independent of the provider it came from.
type Review struct {
	ID          int64            `json:"id"`
	ExternalID  int64            `json:"externalId"`
	ListingName string           `json:"listingName"`
	GuestName   string           `json:"guestName"`
	Rating      float64          `json:"rating"`
	Content     string           `json:"content"`
	Channel     string           `json:"channel"`
	Type        string           `json:"type"`
	Status      string           `json:"status"`
	OccurredAt  time.Time        `json:"occurredAt"`
	Categories  []CategoryRating `json:"categories"`
	IsVisible   bool             `json:"isVisible"`
	RawJSON     []byte           `json:"-"`
}

// CategoryRating is one per-category score attached to a review.
// Stored as an opaque JSON blob; never queried field-by-field.
type CategoryRating struct {
	Category string  `json:"category"`
	Rating   float64 `json:"rating"`
}
