package mysql

const insertReviewsPrefix = `INSERT INTO reviews
  (external_id, listing_name, guest_name, rating, content, channel, type, status, occurred_at, categories, is_visible, raw)
VALUES `

// Only the mutable fields are refreshed on conflict. is_visible is the
// moderation flag and must survive every re-sync; identity fields
// (listing, guest, channel, type, categories) keep their first-seen
// values. Use VALUES(col) for broad compatibility.
const insertReviewsOnDup = ` ON DUPLICATE KEY UPDATE
  rating      = VALUES(rating),
  content     = VALUES(content),
  status      = VALUES(status),
  occurred_at = VALUES(occurred_at),
  raw         = VALUES(raw),
  updated_at  = CURRENT_TIMESTAMP`

const reviewColumns = `id, external_id, listing_name, guest_name, rating, content, channel, type, status, occurred_at, categories, is_visible, raw`

const getReviewSQL = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`

const setVisibilitySQL = `UPDATE reviews SET is_visible = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

const deleteAllReviewsSQL = `DELETE FROM reviews`

const listingRatingSQL = `
SELECT COALESCE(AVG(rating), 0), COUNT(*)
FROM reviews
WHERE listing_name = ? AND is_visible = 1`
