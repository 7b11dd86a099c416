package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

type notificationRecord struct {
	ID        int64     `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *notificationRecord) ToNotification() *models.Notification {
	return &models.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Message:   r.Message,
		CreatedAt: r.CreatedAt,
	}
}

type NotificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{
		db: db,
	}
}

func (r *NotificationRepository) Save(ctx context.Context, userID uuid.UUID, message string) (*models.Notification, error) {
	const op = "database.postgres.NotificationRepository.Save"

	rec := new(notificationRecord)
	query := `INSERT INTO notifications(user_id, message)
		VALUES ($1, $2)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, userID, message)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to insert notification record: %w", op, err)
	}

	return rec.ToNotification(), nil
}

func (r *NotificationRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	const op = "database.postgres.NotificationRepository.ListByUserID"

	var recs []notificationRecord
	query := `SELECT * FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	err := r.db.SelectContext(ctx, &recs, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to select notification records: %w", op, err)
	}

	notifications := make([]*models.Notification, 0, len(recs))
	for i := range recs {
		notifications = append(notifications, recs[i].ToNotification())
	}

	return notifications, nil
}
