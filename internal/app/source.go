package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"flex_reviews/internal/adapters/observability"
	"flex_reviews/internal/domain"
)

// Provenance records where a batch of raw review records came from.
type Provenance string

const (
	ProvenanceLive     Provenance = "live"
	ProvenanceFallback Provenance = "fallback"
)

// Batch is a fetched set of raw provider records together with its
// provenance. Provenance travels as part of the value, never attached
// to the record slice itself.
type Batch struct {
	Records    []map[string]any
	Provenance Provenance
}

// SourceResolver decides whether review data comes from the live
// provider or the static fallback dataset.
type SourceResolver struct {
	provider domain.ProviderClient
	fallback domain.FallbackSource
}

func NewSourceResolver(p domain.ProviderClient, f domain.FallbackSource) *SourceResolver {
	return &SourceResolver{provider: p, fallback: f}
}

// FetchBatch fetches from the provider and falls back to the local
// dataset when the call fails or returns nothing. It never returns an
// error: the worst case is an empty fallback batch.
func (s *SourceResolver) FetchBatch(ctx context.Context) Batch {
	records, err := s.provider.GetReviews(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("provider fetch failed, switching to fallback dataset")
		observability.ObserveFallback("provider_error")
		return s.FallbackBatch(ctx)
	}
	if len(records) == 0 {
		log.Warn().Msg("provider returned empty result, switching to fallback dataset")
		observability.ObserveFallback("empty_result")
		return s.FallbackBatch(ctx)
	}
	return Batch{Records: records, Provenance: ProvenanceLive}
}

// FallbackBatch loads the static dataset. A broken dataset yields an
// empty fallback batch rather than an error, so read paths stay up.
func (s *SourceResolver) FallbackBatch(ctx context.Context) Batch {
	records, err := s.fallback.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("fallback dataset unreadable, serving empty batch")
		observability.ObserveFallback("dataset_error")
		return Batch{Provenance: ProvenanceFallback}
	}
	return Batch{Records: records, Provenance: ProvenanceFallback}
}
