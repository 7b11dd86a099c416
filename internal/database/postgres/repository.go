package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/database"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

type linkRecord struct {
	ID          int64     `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	Code        string    `db:"code"`
	OriginalURL string    `db:"original_url"`
	MaxClicks   int64     `db:"max_clicks"`
	Clicks      int64     `db:"clicks"`
	CreatedAt   time.Time `db:"created_at"`
	ExpiresAt   time.Time `db:"expires_at"`
	Active      bool      `db:"active"`
}

func (r *linkRecord) ToLink() *models.Link {
	return &models.Link{
		ID:          r.ID,
		UserID:      r.UserID,
		Code:        r.Code,
		OriginalURL: r.OriginalURL,
		MaxClicks:   r.MaxClicks,
		Clicks:      r.Clicks,
		CreatedAt:   r.CreatedAt,
		ExpiresAt:   r.ExpiresAt,
		Active:      r.Active,
	}
}

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{
		db: db,
	}
}

// Save upserts a link by identity. A link without an ID is inserted, an
// existing one has its mutable fields written back.
func (r *LinkRepository) Save(ctx context.Context, link *models.Link) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.Save"

	rec := new(linkRecord)

	if link.ID == 0 {
		query := `INSERT INTO links(user_id, code, original_url, max_clicks, clicks, created_at, expires_at, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING *`

		err := r.db.GetContext(ctx, rec, query,
			link.UserID, link.Code, link.OriginalURL, link.MaxClicks,
			link.Clicks, link.CreatedAt, link.ExpiresAt, link.Active)
		if err != nil {
			if isUniqueViolationError(err) {
				return nil, fmt.Errorf("%s: %w", op, database.ErrCodeExists)
			}

			return nil, fmt.Errorf("%s: failed to insert link record: %w", op, err)
		}

		return rec.ToLink(), nil
	}

	query := `UPDATE links
		SET max_clicks = $2, clicks = $3, active = $4
		WHERE id = $1
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, link.ID, link.MaxClicks, link.Clicks, link.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

// FindByCode resolves a code across all users. Codes are only unique per
// user, so duplicates are possible; the earliest record wins.
func (r *LinkRepository) FindByCode(ctx context.Context, code string) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.FindByCode"

	rec := new(linkRecord)
	query := `SELECT * FROM links
		WHERE code = $1
		ORDER BY created_at, id
		LIMIT 1`

	err := r.db.GetContext(ctx, rec, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

func (r *LinkRepository) ExistsByCodeAndUserID(ctx context.Context, code string, userID uuid.UUID) (bool, error) {
	const op = "database.postgres.LinkRepository.ExistsByCodeAndUserID"

	var exists bool
	query := `SELECT EXISTS (
		SELECT 1 FROM links WHERE code = $1 AND user_id = $2
	)`

	err := r.db.GetContext(ctx, &exists, query, code, userID)
	if err != nil {
		return false, fmt.Errorf("%s: failed to check code existence: %w", op, err)
	}

	return exists, nil
}

// IncrementClicks bumps the click counter as a single conditional statement,
// so concurrent redirects can never push a link past its quota. It returns
// database.ErrClicksExhausted when the link is inactive or already at quota.
func (r *LinkRepository) IncrementClicks(ctx context.Context, id int64) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.IncrementClicks"

	rec := new(linkRecord)
	query := `UPDATE links
		SET clicks = clicks + 1
		WHERE id = $1 AND active AND (max_clicks = 0 OR clicks < max_clicks)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrClicksExhausted)
		}

		return nil, fmt.Errorf("%s: failed to increment clicks: %w", op, err)
	}

	return rec.ToLink(), nil
}

// Deactivate flips a link to inactive. It reports whether this call
// performed the flip, so racing callers converge on a single transition.
func (r *LinkRepository) Deactivate(ctx context.Context, id int64) (bool, error) {
	const op = "database.postgres.LinkRepository.Deactivate"

	query := `UPDATE links
		SET active = FALSE
		WHERE id = $1 AND active`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("%s: failed to deactivate link: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}

	return rows == 1, nil
}

func (r *LinkRepository) FindExpiredBefore(ctx context.Context, t time.Time) ([]*models.Link, error) {
	const op = "database.postgres.LinkRepository.FindExpiredBefore"

	var recs []linkRecord
	query := `SELECT * FROM links
		WHERE expires_at < $1
		ORDER BY id`

	err := r.db.SelectContext(ctx, &recs, query, t)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to select expired links: %w", op, err)
	}

	links := make([]*models.Link, 0, len(recs))
	for i := range recs {
		links = append(links, recs[i].ToLink())
	}

	return links, nil
}

func (r *LinkRepository) DeleteBatch(ctx context.Context, links []*models.Link) error {
	const op = "database.postgres.LinkRepository.DeleteBatch"

	if len(links) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.ID)
	}

	query, args, err := sqlx.In(`DELETE FROM links WHERE id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("%s: failed to build delete query: %w", op, err)
	}

	query = r.db.Rebind(query)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to delete link records: %w", op, err)
	}

	return nil
}
