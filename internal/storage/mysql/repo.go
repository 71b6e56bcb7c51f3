package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"flex_reviews/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// sortColumns is the full set of sort keys the query layer accepts.
// Anything else never reaches SQL; unknown keys fall back to the date
// column and the HTTP boundary rejects them before they get here.
var sortColumns = map[domain.SortKey]string{
	domain.SortByDate:   "occurred_at",
	domain.SortByRating: "rating",
}

func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*12)
	for _, rv := range rs {
		cats, err := json.Marshal(rv.Categories)
		if err != nil {
			return fmt.Errorf("marshal categories for %d: %w", rv.ExternalID, err)
		}
		values = append(values, "(?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			rv.ExternalID,
			rv.ListingName,
			rv.GuestName,
			rv.Rating,
			rv.Content,
			rv.Channel,
			rv.Type,
			rv.Status,
			rv.OccurredAt,
			string(cats),
			rv.IsVisible,
			valJSON(rv.RawJSON),
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) SetVisibility(ctx context.Context, id int64, visible bool) (domain.Review, error) {
	// RowsAffected is 0 both for missing rows and for no-op updates in
	// MySQL, so existence comes from the follow-up read instead.
	if _, err := r.db.ExecContext(ctx, setVisibilitySQL, visible, id); err != nil {
		return domain.Review{}, err
	}
	return r.getReview(ctx, id)
}

func (r *Repo) DeleteAllReviews(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, deleteAllReviewsSQL)
	return err
}

func (r *Repo) ListReviews(ctx context.Context, f domain.ReviewFilter) ([]domain.Review, error) {
	where, args := buildWhere(f)
	q := `SELECT ` + reviewColumns + ` FROM reviews` + where + orderClause(f)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows)
}

func (r *Repo) ListReviewsPaginated(ctx context.Context, f domain.ReviewFilter) (domain.ReviewsPage, error) {
	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	where, args := buildWhere(f)

	var (
		total int
		items []domain.Review
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		row := r.db.QueryRowContext(gctx, `SELECT COUNT(*) FROM reviews`+where, args...)
		return row.Scan(&total)
	})
	g.Go(func() error {
		q := `SELECT ` + reviewColumns + ` FROM reviews` + where + orderClause(f) + ` LIMIT ? OFFSET ?`
		pageArgs := append(append([]any{}, args...), limit, (page-1)*limit)
		rows, err := r.db.QueryContext(gctx, q, pageArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()
		items, err = scanReviews(rows)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.ReviewsPage{}, err
	}

	if items == nil {
		items = []domain.Review{}
	}
	return domain.ReviewsPage{
		Items: items,
		Meta: domain.PageMeta{
			Total:    total,
			Page:     page,
			LastPage: (total + limit - 1) / limit,
			Limit:    limit,
		},
	}, nil
}

func (r *Repo) ListingRating(ctx context.Context, listingName string) (domain.RatingSummary, error) {
	var (
		avg   float64
		count int
	)
	row := r.db.QueryRowContext(ctx, listingRatingSQL, listingName)
	if err := row.Scan(&avg, &count); err != nil {
		return domain.RatingSummary{}, err
	}
	return domain.RatingSummary{
		Rating: math.Round(avg*100) / 100,
		Count:  count,
	}, nil
}

func (r *Repo) getReview(ctx context.Context, id int64) (domain.Review, error) {
	row := r.db.QueryRowContext(ctx, getReviewSQL, id)
	rv, err := scanReview(row)
	if err == sql.ErrNoRows {
		return domain.Review{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Review{}, err
	}
	return rv, nil
}

// ---- query building ----

func buildWhere(f domain.ReviewFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.ListingName != nil && *f.ListingName != "" {
		conds = append(conds, "LOWER(listing_name) LIKE ?")
		args = append(args, "%"+strings.ToLower(*f.ListingName)+"%")
	}
	if f.MinRating != nil {
		conds = append(conds, "rating >= ?")
		args = append(args, *f.MinRating)
	}
	if f.Channel != nil && *f.Channel != "" {
		conds = append(conds, "LOWER(channel) = ?")
		args = append(args, strings.ToLower(*f.Channel))
	}
	if f.IsVisible != nil {
		conds = append(conds, "is_visible = ?")
		args = append(args, *f.IsVisible)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// orderClause always appends id ASC so pagination stays stable when the
// primary sort key ties.
func orderClause(f domain.ReviewFilter) string {
	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = sortColumns[domain.SortByDate]
	}
	dir := "DESC"
	if f.SortOrder == domain.SortAsc {
		dir = "ASC"
	}
	return " ORDER BY " + col + " " + dir + ", id ASC"
}

// ---- row scanning ----

type rowScanner interface{ Scan(dest ...any) error }

func scanReview(row rowScanner) (domain.Review, error) {
	var (
		rv            domain.Review
		content       sql.NullString
		categoriesRaw []byte
		rawB          []byte
	)
	if err := row.Scan(
		&rv.ID,
		&rv.ExternalID,
		&rv.ListingName,
		&rv.GuestName,
		&rv.Rating,
		&content,
		&rv.Channel,
		&rv.Type,
		&rv.Status,
		&rv.OccurredAt,
		&categoriesRaw,
		&rv.IsVisible,
		&rawB,
	); err != nil {
		return domain.Review{}, err
	}
	if content.Valid {
		rv.Content = content.String
	}
	rv.Categories = []domain.CategoryRating{}
	if len(categoriesRaw) > 0 {
		_ = json.Unmarshal(categoriesRaw, &rv.Categories)
	}
	if len(rawB) > 0 {
		rv.RawJSON = append([]byte(nil), rawB...)
	}
	return rv, nil
}

func scanReviews(rows *sql.Rows) ([]domain.Review, error) {
	var out []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
