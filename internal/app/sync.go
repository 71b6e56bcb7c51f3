package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"flex_reviews/internal/adapters/observability"
	"flex_reviews/internal/domain"
)

// SyncResult is what a sync run reports back to its caller. Count is
// the number of records reconciled; it is never a partial count.
type SyncResult struct {
	Count      int        `json:"count"`
	Provenance Provenance `json:"provenance"`
	Status     string     `json:"status"`
}

// SyncService owns the write paths: reconciling sync, the destructive
// reload, and the moderation toggle.
type SyncService struct {
	source *SourceResolver
	repo   domain.ReviewRepository
	cache  domain.Cache
	now    func() time.Time
}

func NewSyncService(src *SourceResolver, r domain.ReviewRepository, cache domain.Cache) *SyncService {
	return &SyncService{source: src, repo: r, cache: cache, now: time.Now}
}

// Sync fetches one batch (live or fallback), normalizes it, and merges
// it into the store keyed on the external ID. Re-running it is safe:
// existing rows only get their mutable fields refreshed and their
// moderation flag is never touched. Any persistence error fails the
// whole batch.
func (s *SyncService) Sync(ctx context.Context) (SyncResult, error) {
	batch := s.source.FetchBatch(ctx)
	reviews := NormalizeBatch(batch.Records, s.now().UTC())

	if len(reviews) > 0 {
		if err := s.repo.UpsertReviews(ctx, reviews); err != nil {
			observability.ObserveSync(string(batch.Provenance), "failure")
			return SyncResult{}, fmt.Errorf("upsert batch of %d reviews: %w", len(reviews), err)
		}
	}

	s.invalidateReads(ctx)
	observability.ObserveSync(string(batch.Provenance), "success")
	log.Info().
		Int("count", len(reviews)).
		Str("provenance", string(batch.Provenance)).
		Msg("review sync completed")

	return SyncResult{Count: len(reviews), Provenance: batch.Provenance, Status: "success"}, nil
}

// Reload wipes the reviews table and loads the fallback dataset from
// scratch. Destructive maintenance path only; steady-state sync never
// deletes anything.
func (s *SyncService) Reload(ctx context.Context) (SyncResult, error) {
	if err := s.repo.DeleteAllReviews(ctx); err != nil {
		return SyncResult{}, fmt.Errorf("wipe reviews: %w", err)
	}
	log.Warn().Msg("all existing reviews deleted")

	batch := s.source.FallbackBatch(ctx)
	reviews := NormalizeBatch(batch.Records, s.now().UTC())
	if len(reviews) > 0 {
		if err := s.repo.UpsertReviews(ctx, reviews); err != nil {
			observability.ObserveSync(string(batch.Provenance), "failure")
			return SyncResult{}, fmt.Errorf("reload %d reviews: %w", len(reviews), err)
		}
	}

	s.invalidateReads(ctx)
	observability.ObserveSync(string(batch.Provenance), "success")
	log.Info().Int("count", len(reviews)).Msg("review reload completed")

	return SyncResult{Count: len(reviews), Provenance: batch.Provenance, Status: "success"}, nil
}

// SetVisibility flips the moderation flag on exactly one review,
// identified by its internal ID. Unknown IDs surface domain.ErrNotFound.
func (s *SyncService) SetVisibility(ctx context.Context, id int64, visible bool) (domain.Review, error) {
	rv, err := s.repo.SetVisibility(ctx, id, visible)
	if err != nil {
		return domain.Review{}, err
	}
	s.invalidateReads(ctx)
	log.Info().Int64("id", id).Bool("visible", visible).Msg("review visibility updated")
	return rv, nil
}

// invalidateReads bumps the cache epoch so every cached list, page and
// rating built before this write stops being served.
func (s *SyncService) invalidateReads(ctx context.Context) {
	if s.cache != nil {
		bumpCacheEpoch(ctx, s.cache)
	}
}
