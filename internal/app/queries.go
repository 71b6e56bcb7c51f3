package app

import (
	"context"
	"fmt"
	"time"

	"flex_reviews/internal/domain"
)

// ProviderReviews is the normalized passthrough view of one provider
// batch, before any persistence.
type ProviderReviews struct {
	Count      int             `json:"count"`
	Provenance Provenance      `json:"provenance"`
	Data       []domain.Review `json:"data"`
}

type QueryService struct {
	repo     domain.ReviewRepository
	source   *SourceResolver
	cache    domain.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewQueryService(r domain.ReviewRepository, src *SourceResolver, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, source: src, cache: c, cacheTTL: ttl, now: time.Now}
}

func (s *QueryService) ListReviews(ctx context.Context, f domain.ReviewFilter) ([]domain.Review, error) {
	key := fmt.Sprintf("reviews:list:%d:%s", cacheEpoch(ctx, s.cache), filterKey(f))
	var cached []domain.Review
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	rs, err := s.repo.ListReviews(ctx, f)
	if err != nil {
		return nil, err
	}

	// copy before caching so callers can't mutate the cached value
	cp := make([]domain.Review, len(rs))
	copy(cp, rs)
	_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	return rs, nil
}

func (s *QueryService) ListReviewsPaginated(ctx context.Context, f domain.ReviewFilter) (domain.ReviewsPage, error) {
	key := fmt.Sprintf("reviews:page:%d:%s", cacheEpoch(ctx, s.cache), filterKey(f))
	var cached domain.ReviewsPage
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	page, err := s.repo.ListReviewsPaginated(ctx, f)
	if err != nil {
		return domain.ReviewsPage{}, err
	}

	cp := deepCopyReviewsPage(page)
	_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	return page, nil
}

func (s *QueryService) ListingRating(ctx context.Context, listingName string) (domain.RatingSummary, error) {
	key := fmt.Sprintf("reviews:rating:%d:%s", cacheEpoch(ctx, s.cache), listingName)
	var cached domain.RatingSummary
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	sum, err := s.repo.ListingRating(ctx, listingName)
	if err != nil {
		return domain.RatingSummary{}, err
	}
	_ = s.cache.Set(ctx, key, sum, int(s.cacheTTL.Seconds()))
	return sum, nil
}

// ProviderView fetches one batch from the source resolver and returns
// it normalized, without touching the store. Upstream failures are
// absorbed by the fallback, so this never errors.
func (s *QueryService) ProviderView(ctx context.Context) ProviderReviews {
	batch := s.source.FetchBatch(ctx)
	data := NormalizeBatch(batch.Records, s.now().UTC())
	return ProviderReviews{Count: len(data), Provenance: batch.Provenance, Data: data}
}

func deepCopyReviewsPage(in domain.ReviewsPage) domain.ReviewsPage {
	out := domain.ReviewsPage{Meta: in.Meta, Items: []domain.Review{}}
	if n := len(in.Items); n > 0 {
		out.Items = make([]domain.Review, n)
		copy(out.Items, in.Items)
	}
	return out
}
