package domain

import "context"

type ReviewRepository interface {
	// Write paths
	UpsertReviews(ctx context.Context, rs []Review) error
	SetVisibility(ctx context.Context, id int64, visible bool) (Review, error)
	DeleteAllReviews(ctx context.Context) error

	// Read paths
	ListReviews(ctx context.Context, f ReviewFilter) ([]Review, error)
	ListReviewsPaginated(ctx context.Context, f ReviewFilter) (ReviewsPage, error)
	ListingRating(ctx context.Context, listingName string) (RatingSummary, error)
}

// ProviderClient fetches raw, provider-shaped review records.
type ProviderClient interface {
	GetReviews(ctx context.Context) ([]map[string]any, error)
}

// FallbackSource loads the static local dataset used when the provider
// is unavailable or returns nothing.
type FallbackSource interface {
	Load(ctx context.Context) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Queries & read models

type SortKey string

const (
	SortByDate   SortKey = "date"
	SortByRating SortKey = "rating"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ReviewFilter combines optional predicates with AND semantics.
// Nil pointer fields are not applied.
type ReviewFilter struct {
	ListingName *string  // case-insensitive substring
	MinRating   *float64 // rating >= MinRating
	Channel     *string  // case-insensitive exact
	IsVisible   *bool
	SortBy      SortKey   // default SortByDate
	SortOrder   SortOrder // default SortDesc
	Page        int       // 1-indexed; default 1
	Limit       int       // default 10
}

type PageMeta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	LastPage int `json:"lastPage"`
	Limit    int `json:"limit"`
}

type ReviewsPage struct {
	Items []Review `json:"data"`
	Meta  PageMeta `json:"meta"`
}

type RatingSummary struct {
	Rating float64 `json:"rating"`
	Count  int     `json:"count"`
}
