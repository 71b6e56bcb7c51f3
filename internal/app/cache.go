package app

import (
	"context"
	"fmt"
	"strings"

	"flex_reviews/internal/domain"
)

// Read caches are versioned by a single epoch counter instead of
// per-key deletes: filters make the key space unbounded, so a write
// bumps the epoch and orphans every older key. Orphans expire via TTL.
const cacheEpochKey = "reviews:epoch"

func cacheEpoch(ctx context.Context, c domain.Cache) int64 {
	var e int64
	if ok, _ := c.Get(ctx, cacheEpochKey, &e); ok {
		return e
	}
	return 0
}

func bumpCacheEpoch(ctx context.Context, c domain.Cache) {
	e := cacheEpoch(ctx, c)
	_ = c.Set(ctx, cacheEpochKey, e+1, 0) // no TTL on the epoch itself
}

// filterKey flattens a filter into a stable cache key fragment.
func filterKey(f domain.ReviewFilter) string {
	var b strings.Builder
	if f.ListingName != nil {
		fmt.Fprintf(&b, "l=%s;", strings.ToLower(*f.ListingName))
	}
	if f.MinRating != nil {
		fmt.Fprintf(&b, "r=%g;", *f.MinRating)
	}
	if f.Channel != nil {
		fmt.Fprintf(&b, "c=%s;", strings.ToLower(*f.Channel))
	}
	if f.IsVisible != nil {
		fmt.Fprintf(&b, "v=%t;", *f.IsVisible)
	}
	fmt.Fprintf(&b, "s=%s:%s;p=%d:%d", f.SortBy, f.SortOrder, f.Page, f.Limit)
	return b.String()
}
