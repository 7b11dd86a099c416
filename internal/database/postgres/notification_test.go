package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

var notificationColumns = []string{"id", "user_id", "message", "created_at"}

func setupNotificationRepository(t testing.TB) (*NotificationRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewNotificationRepository(db)

	t.Cleanup(func() {
		mockDB.Close()
		db.Close()
	})

	return repo, mock
}

func TestNotificationRepository_Save(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupNotificationRepository(t)

		mock.ExpectQuery(`INSERT INTO notifications`).
			WithArgs(testUserID, "link expired: abc123").
			WillReturnError(errUnknown)

		notification, err := repo.Save(context.TODO(), testUserID, "link expired: abc123")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, notification)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupNotificationRepository(t)

		rows := sqlmock.NewRows(notificationColumns).
			AddRow(1, testUserID, "link expired: abc123", time.Time{})

		mock.ExpectQuery(`INSERT INTO notifications`).
			WithArgs(testUserID, "link expired: abc123").
			WillReturnRows(rows)

		notification, err := repo.Save(context.TODO(), testUserID, "link expired: abc123")

		assert.NoError(t, err)
		assert.NotNil(t, notification)
		assert.Equal(t, int64(1), notification.ID)
		assert.Equal(t, testUserID, notification.UserID)
		assert.Equal(t, "link expired: abc123", notification.Message)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNotificationRepository_ListByUserID(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupNotificationRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM notifications`).
			WithArgs(testUserID).
			WillReturnError(errUnknown)

		notifications, err := repo.ListByUserID(context.TODO(), testUserID)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, notifications)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupNotificationRepository(t)

		rows := sqlmock.NewRows(notificationColumns).
			AddRow(2, testUserID, "link expired: abc123", time.Time{}).
			AddRow(1, testUserID, "click limit reached: xyz789", time.Time{})

		mock.ExpectQuery(`SELECT (.+) FROM notifications`).
			WithArgs(testUserID).
			WillReturnRows(rows)

		notifications, err := repo.ListByUserID(context.TODO(), testUserID)

		assert.NoError(t, err)
		assert.Len(t, notifications, 2)
		assert.Equal(t, "link expired: abc123", notifications[0].Message)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
