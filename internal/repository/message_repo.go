package repository

import (
	"context"
	"time"

	"github.com/oggyb/nearmatch/internal/db"
	"github.com/oggyb/nearmatch/internal/utils/pagination"

	"gorm.io/gorm"
)

// MessageRepository stores short-lived chat messages.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// CreatePruning stores msg after deleting every message sent or received by
// the sender at or before cutoff.
func (r *MessageRepository) CreatePruning(ctx context.Context, msg *db.Message, cutoff time.Time) (int64, error) {
	var pruned int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("(sender_id = ? OR receiver_id = ?) AND timestamp <= ?", msg.SenderID, msg.SenderID, cutoff).
			Delete(&db.Message{})
		if res.Error != nil {
			return res.Error
		}
		pruned = res.RowsAffected
		return tx.Create(msg).Error
	})
	return pruned, err
}

// Conversation lists the messages exchanged by two users, newest first.
func (r *MessageRepository) Conversation(
	ctx context.Context,
	a, b uint64,
	paginationToken *string,
	limit int,
) ([]db.Message, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))", a, b, b, a).
		Order("timestamp DESC, id DESC").
		Limit(limit + 1)

	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.TimeUnix).UTC()
		query = query.Where("(timestamp < ? OR (timestamp = ? AND id < ?))", ts, ts, cursor.ID)
	}

	var messages []db.Message
	if err := query.Find(&messages).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(messages) > limit {
		last := messages[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ID:       last.ID,
			TimeUnix: last.Timestamp.UnixMilli(),
		})
		nextToken = &token
		messages = messages[:limit]
	}
	return messages, nextToken, nil
}
