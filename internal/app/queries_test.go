package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"flex_reviews/internal/app"
	"flex_reviews/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	reviews []domain.Review
	page    domain.ReviewsPage
	rating  domain.RatingSummary

	upserts   [][]domain.Review
	upsertErr error
	visErr    error
	visible   map[int64]bool
	wiped     bool
}

func (f *fakeRepo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, rs)
	return nil
}

func (f *fakeRepo) SetVisibility(ctx context.Context, id int64, visible bool) (domain.Review, error) {
	if f.visErr != nil {
		return domain.Review{}, f.visErr
	}
	if f.visible == nil {
		f.visible = map[int64]bool{}
	}
	f.visible[id] = visible
	return domain.Review{ID: id, IsVisible: visible}, nil
}

func (f *fakeRepo) DeleteAllReviews(ctx context.Context) error {
	f.wiped = true
	return nil
}

func (f *fakeRepo) ListReviews(ctx context.Context, q domain.ReviewFilter) ([]domain.Review, error) {
	return f.reviews, nil
}

func (f *fakeRepo) ListReviewsPaginated(ctx context.Context, q domain.ReviewFilter) (domain.ReviewsPage, error) {
	return f.page, nil
}

func (f *fakeRepo) ListingRating(ctx context.Context, listingName string) (domain.RatingSummary, error) {
	return f.rating, nil
}

type fakeCache struct {
	store map[string]any
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *[]domain.Review:
		*d = v.([]domain.Review)
	case *domain.ReviewsPage:
		*d = v.(domain.ReviewsPage)
	case *domain.RatingSummary:
		*d = v.(domain.RatingSummary)
	case *int64:
		*d = v.(int64)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

type fakeProvider struct {
	records []map[string]any
	err     error
}

func (p *fakeProvider) GetReviews(ctx context.Context) ([]map[string]any, error) {
	return p.records, p.err
}

type fakeFallback struct {
	records []map[string]any
	err     error
}

func (f *fakeFallback) Load(ctx context.Context) ([]map[string]any, error) {
	return f.records, f.err
}

// ---- tests ----

func TestListReviews_CacheMissThenHit(t *testing.T) {
	repo := &fakeRepo{
		reviews: []domain.Review{{ID: 1, ListingName: "Shoreditch Heights", Rating: 9}},
	}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, nil, cache, 10*time.Minute)

	out, err := q.ListReviews(context.Background(), domain.ReviewFilter{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 1 || out[0].ListingName != "Shoreditch Heights" {
		t.Fatalf("unexpected reviews: %+v", out)
	}

	// Mutate repo to prove the second read is served from cache
	repo.reviews[0].ListingName = "SHOULD NOT SEE THIS"

	out2, err := q.ListReviews(context.Background(), domain.ReviewFilter{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out2[0].ListingName != "Shoreditch Heights" {
		t.Fatalf("expected cached listing, got %s", out2[0].ListingName)
	}
}

func TestListReviewsPaginated_Cache(t *testing.T) {
	repo := &fakeRepo{
		page: domain.ReviewsPage{
			Items: []domain.Review{{ID: 1, GuestName: "Ana", Rating: 9}},
			Meta:  domain.PageMeta{Total: 1, Page: 1, LastPage: 1, Limit: 10},
		},
	}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, nil, cache, 10*time.Minute)

	out, err := q.ListReviewsPaginated(context.Background(), domain.ReviewFilter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].GuestName != "Ana" || out.Meta.Total != 1 {
		t.Fatalf("unexpected page: %+v", out)
	}

	repo.page.Items[0].GuestName = "Changed"
	out2, _ := q.ListReviewsPaginated(context.Background(), domain.ReviewFilter{Page: 1, Limit: 10})
	if out2.Items[0].GuestName != "Ana" {
		t.Fatalf("expected cached guest Ana, got %s", out2.Items[0].GuestName)
	}
}

func TestListingRating_Cache(t *testing.T) {
	repo := &fakeRepo{rating: domain.RatingSummary{Rating: 8.25, Count: 4}}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, nil, cache, 10*time.Minute)

	sum, err := q.ListingRating(context.Background(), "Soho Loft")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if sum.Rating != 8.25 || sum.Count != 4 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	repo.rating = domain.RatingSummary{Rating: 1, Count: 1}
	sum2, _ := q.ListingRating(context.Background(), "Soho Loft")
	if sum2.Rating != 8.25 {
		t.Fatalf("expected cached rating 8.25, got %v", sum2.Rating)
	}
}

func TestProviderView_NormalizesAndTagsProvenance(t *testing.T) {
	source := app.NewSourceResolver(
		&fakeProvider{err: errors.New("timeout")},
		&fakeFallback{records: []map[string]any{
			{"id": float64(7453), "rating": "abc", "guestName": "Shane"},
		}},
	)
	q := app.NewQueryService(&fakeRepo{}, source, &fakeCache{}, time.Minute)

	out := q.ProviderView(context.Background())
	if out.Provenance != app.ProvenanceFallback {
		t.Fatalf("expected fallback provenance, got %s", out.Provenance)
	}
	if out.Count != 1 || len(out.Data) != 1 {
		t.Fatalf("unexpected count: %+v", out)
	}
	if out.Data[0].Rating != 0 || out.Data[0].ListingName != app.DefaultListingName {
		t.Fatalf("expected normalized defaults, got %+v", out.Data[0])
	}
}

// A write bumping the cache epoch must orphan previously cached lists.
func TestWriteInvalidatesCachedLists(t *testing.T) {
	repo := &fakeRepo{reviews: []domain.Review{{ID: 1, GuestName: "Ana"}}}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, nil, cache, 10*time.Minute)
	c := app.NewSyncService(app.NewSourceResolver(&fakeProvider{}, &fakeFallback{}), repo, cache)

	if _, err := q.ListReviews(context.Background(), domain.ReviewFilter{}); err != nil {
		t.Fatalf("err: %v", err)
	}
	repo.reviews[0].GuestName = "Bob"

	if _, err := c.SetVisibility(context.Background(), 1, true); err != nil {
		t.Fatalf("err: %v", err)
	}

	out, err := q.ListReviews(context.Background(), domain.ReviewFilter{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out[0].GuestName != "Bob" {
		t.Fatalf("expected fresh read after visibility change, got %s", out[0].GuestName)
	}
}
