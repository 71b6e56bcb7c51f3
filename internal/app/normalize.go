package app

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"flex_reviews/internal/domain"
)

// Defaults substituted for absent or malformed provider fields.
const (
	DefaultListingName = "Unknown Listing"
	DefaultGuestName   = "Anonymous"
	DefaultChannel     = "direct"
	DefaultType        = "guest-to-host"
	DefaultStatus      = "published"
)

// Layouts the provider has been seen using for submittedAt.
var submittedAtLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

/********** tiny helpers **********/

func lookupStr(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func strOrDefault(m map[string]any, key, def string) string {
	if s := lookupStr(m, key); s != "" {
		return s
	}
	return def
}

// coerceFloat applies Number(x)-style coercion: float64/int pass through,
// numeric strings parse, anything else (including NaN/Inf) becomes 0.
func coerceFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
	return 0
}

func coerceInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int:
		return int64(t)
	case int64:
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// parseSubmittedAt tries the known provider layouts; ok=false when none match.
func parseSubmittedAt(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range submittedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func mapCategories(v any) []domain.CategoryRating {
	raw, ok := v.([]any)
	if !ok {
		return []domain.CategoryRating{}
	}
	out := make([]domain.CategoryRating, 0, len(raw))
	for _, it := range raw {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, domain.CategoryRating{
			Category: lookupStr(m, "category"),
			Rating:   coerceFloat(m["rating"]),
		})
	}
	return out
}

/********** provider record mapper **********/

// NormalizeReview maps one raw provider record to a canonical review
// candidate (no internal ID yet). It never fails: missing or malformed
// optional fields get the documented defaults, and an unparseable
// submission date falls back to now.
func NormalizeReview(raw map[string]any, now time.Time) domain.Review {
	rv := domain.Review{
		ExternalID:  coerceInt64(raw["id"]),
		ListingName: strOrDefault(raw, "listingName", DefaultListingName),
		GuestName:   strOrDefault(raw, "guestName", DefaultGuestName),
		Rating:      coerceFloat(raw["rating"]),
		Content:     lookupStr(raw, "publicReview"),
		Channel:     strOrDefault(raw, "channel", DefaultChannel),
		Type:        strOrDefault(raw, "type", DefaultType),
		Status:      strOrDefault(raw, "status", DefaultStatus),
		Categories:  mapCategories(raw["reviewCategory"]),
	}

	if ts, ok := parseSubmittedAt(lookupStr(raw, "submittedAt")); ok {
		rv.OccurredAt = ts
	} else {
		// Silent-coercion policy: keep the record, stamp it with the
		// processing time, and leave a trace in the log.
		log.Warn().
			Int64("external_id", rv.ExternalID).
			Str("submitted_at", lookupStr(raw, "submittedAt")).
			Msg("unparseable submission date, using processing time")
		rv.OccurredAt = now
	}

	if b, err := json.Marshal(raw); err == nil {
		rv.RawJSON = b
	} else {
		log.Error().Err(err).Str("context", "NormalizeReview").Msg("marshal raw record failed")
	}

	return rv
}

// NormalizeBatch maps a whole provider batch, preserving order.
func NormalizeBatch(records []map[string]any, now time.Time) []domain.Review {
	out := make([]domain.Review, 0, len(records))
	for _, r := range records {
		out = append(out, NormalizeReview(r, now))
	}
	return out
}
