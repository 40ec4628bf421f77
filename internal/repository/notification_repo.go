package repository

import (
	"context"
	"time"

	"github.com/oggyb/nearmatch/internal/db"
	"github.com/oggyb/nearmatch/internal/utils/pagination"

	"gorm.io/gorm"
)

// NotificationRepository stores and lists per-user notifications.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(database *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

func (r *NotificationRepository) WithTx(tx *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: tx}
}

// CreateBatch inserts the notifications in one statement and fills their ids.
func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []db.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&notifications).Error
}

// ListForUser returns a user's notifications, newest first.
//
// Behavior:
//   - Ordered by time DESC, id DESC.
//   - Supports cursor-based pagination via paginationToken.
func (r *NotificationRepository) ListForUser(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]db.Notification, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("time DESC, id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.TimeUnix).UTC()
		query = query.Where("(time < ? OR (time = ? AND id < ?))", ts, ts, cursor.ID)
	}

	var notifications []db.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(notifications) > limit {
		last := notifications[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ID:       last.ID,
			TimeUnix: last.Time.UnixMilli(),
		})
		nextToken = &token
		notifications = notifications[:limit]
	}
	return notifications, nextToken, nil
}

// CountForUser is used by tests and the seeder's summary.
func (r *NotificationRepository) CountForUser(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Notification{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
