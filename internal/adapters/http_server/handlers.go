// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"flex_reviews/internal/app"
	"flex_reviews/internal/domain"
)

type Handlers struct {
	Q *app.QueryService
	C *app.SyncService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/reviews", h.listReviews)
	s.mux.Get("/v1/reviews/paginated", h.listReviewsPaginated)
	s.mux.Get("/v1/reviews/hostaway", h.providerReviews)
	s.mux.Get("/v1/reviews/rating", h.listingRating)
	s.mux.Post("/v1/reviews/sync", h.syncReviews)
	s.mux.Patch("/v1/reviews/{id}/visibility", h.updateVisibility)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// parseFilter coerces the raw query-string parameters into a
// domain.ReviewFilter. All fields are optional; anything that does not
// parse, or a sort key outside the allowed enum, is rejected here so it
// never reaches the query layer.
func parseFilter(r *http.Request) (domain.ReviewFilter, string) {
	q := r.URL.Query()
	var f domain.ReviewFilter

	if v := q.Get("listingName"); v != "" {
		f.ListingName = &v
	}
	if v := q.Get("minRating"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < 0 {
			return f, "minRating must be a number >= 0"
		}
		f.MinRating = &n
	}
	if v := q.Get("channel"); v != "" {
		f.Channel = &v
	}
	if v := q.Get("isVisible"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, "isVisible must be true or false"
		}
		f.IsVisible = &b
	}

	switch v := q.Get("sortBy"); v {
	case "":
		f.SortBy = domain.SortByDate
	case string(domain.SortByDate), string(domain.SortByRating):
		f.SortBy = domain.SortKey(v)
	default:
		return f, `sortBy must be "date" or "rating"`
	}
	switch v := q.Get("sortOrder"); v {
	case "":
		f.SortOrder = domain.SortDesc
	case string(domain.SortAsc), string(domain.SortDesc):
		f.SortOrder = domain.SortOrder(v)
	default:
		return f, `sortOrder must be "asc" or "desc"`
	}

	f.Page, f.Limit = 1, 10
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, "page must be a positive integer"
		}
		f.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			return f, "limit must be an integer between 1 and 200"
		}
		f.Limit = n
	}
	return f, ""
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	f, detail := parseFilter(r)
	if detail != "" {
		writeProblem(w, http.StatusBadRequest, "Invalid filter", detail)
		return
	}
	out, err := h.Q.ListReviews(r.Context(), f)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Query failed", "could not list reviews")
		return
	}
	if out == nil {
		out = []domain.Review{}
	}
	writeCached(w, r, out)
}

func (h *Handlers) listReviewsPaginated(w http.ResponseWriter, r *http.Request) {
	f, detail := parseFilter(r)
	if detail != "" {
		writeProblem(w, http.StatusBadRequest, "Invalid filter", detail)
		return
	}
	out, err := h.Q.ListReviewsPaginated(r.Context(), f)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Query failed", "could not list reviews")
		return
	}
	writeCached(w, r, out)
}

// providerReviews is the normalized passthrough of one provider batch.
// Upstream failures are absorbed by the fallback dataset, so this
// always answers 200.
func (h *Handlers) providerReviews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Q.ProviderView(r.Context()))
}

func (h *Handlers) listingRating(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("listingName")
	if name == "" {
		writeProblem(w, http.StatusBadRequest, "Missing parameter", "listingName is required")
		return
	}
	out, err := h.Q.ListingRating(r.Context(), name)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Query failed", "could not compute listing rating")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) syncReviews(w http.ResponseWriter, r *http.Request) {
	res, err := h.C.Sync(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("review sync failed")
		writeProblem(w, http.StatusInternalServerError, "Sync failed", "review sync did not complete")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) updateVisibility(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}

	var body struct {
		IsVisible *bool `json:"isVisible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IsVisible == nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "isVisible boolean is required")
		return
	}

	rv, err := h.C.SetVisibility(r.Context(), id, *body.IsVisible)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "review not found")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Update failed", "could not update visibility")
		return
	}
	writeJSON(w, http.StatusOK, rv)
}
