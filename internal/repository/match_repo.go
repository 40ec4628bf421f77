package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oggyb/nearmatch/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotPaired is returned when two users have no match row.
var ErrNotPaired = errors.New("users are not matched")

// MatchRepository provides data access methods for the Match model.
// It encapsulates pair normalization, uniqueness and the notification guards.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

func (r *MatchRepository) WithTx(tx *gorm.DB) *MatchRepository {
	return &MatchRepository{db: tx}
}

// OrderPair returns the two users in canonical storage order: smaller email
// first, id as a tie breaker.
func OrderPair(a, b *db.User) (*db.User, *db.User) {
	ea, eb := strings.ToLower(a.Email), strings.ToLower(b.Email)
	if ea < eb || (ea == eb && a.ID <= b.ID) {
		return a, b
	}
	return b, a
}

// CreateIfAbsent inserts a match for the unordered pair {a, b}.
//
// Behavior:
//   - Users are stored in canonical order (see OrderPair).
//   - If the pair already has a row → nothing is written and created=false.
//   - Unique (user1_id, user2_id) is the only guard; no locking needed.
//
// Example:
//
//	m, created, err := repo.CreateIfAbsent(ctx, alice, bob, time.Now())
func (r *MatchRepository) CreateIfAbsent(
	ctx context.Context,
	a, b *db.User,
	at time.Time,
) (*db.Match, bool, error) {
	u1, u2 := OrderPair(a, b)
	m := &db.Match{
		User1ID: u1.ID,
		User2ID: u2.ID,
		Time:    at,
	}

	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
			DoNothing: true,
		}).
		Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, false, nil
		}
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}

	m.User1, m.User2 = *u1, *u2
	return m, true, nil
}

// GetByID loads a match with both users.
func (r *MatchRepository) GetByID(ctx context.Context, id uint64) (*db.Match, error) {
	var m db.Match
	err := r.db.WithContext(ctx).
		Preload("User1").
		Preload("User2").
		First(&m, id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindPair returns the match between two users regardless of argument order.
func (r *MatchRepository) FindPair(ctx context.Context, a, b uint64) (*db.Match, error) {
	var m db.Match
	err := r.db.WithContext(ctx).
		Preload("User1").
		Preload("User2").
		Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)", a, b, b, a).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotPaired
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// DeletePair removes the match between two users, if any.
func (r *MatchRepository) DeletePair(ctx context.Context, a, b uint64) error {
	return r.db.WithContext(ctx).
		Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)", a, b, b, a).
		Delete(&db.Match{}).Error
}

// Latest returns the user's most recent match by creation time, or nil.
func (r *MatchRepository) Latest(ctx context.Context, userID uint64) (*db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("time DESC, id DESC").
		Limit(1).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// PairedUserIDs returns every user that ever shared a match row with userID,
// in either column.
func (r *MatchRepository) PairedUserIDs(ctx context.Context, userID uint64) (map[uint64]struct{}, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Select("user1_id", "user2_id").
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]struct{}, len(matches))
	for _, m := range matches {
		out[m.Partner(userID)] = struct{}{}
	}
	return out, nil
}

// SetAccepted flips the acceptance flag of userID's side.
func (r *MatchRepository) SetAccepted(ctx context.Context, m *db.Match, userID uint64) error {
	column := "user2_accepted"
	if m.User1ID == userID {
		column = "user1_accepted"
		m.User1Accepted = true
	} else {
		m.User2Accepted = true
	}
	return r.db.WithContext(ctx).Model(&db.Match{}).
		Where("id = ?", m.ID).
		Update(column, true).Error
}

// ClaimInitialNotification flips initial_notification_sent from false to
// true. It returns false when another caller already claimed it.
func (r *MatchRepository) ClaimInitialNotification(ctx context.Context, matchID uint64) (bool, error) {
	return r.claim(ctx, matchID, "initial_notification_sent")
}

// ClaimAcceptNotification is ClaimInitialNotification for the accept pair.
// Only succeeds once both sides have accepted.
func (r *MatchRepository) ClaimAcceptNotification(ctx context.Context, matchID uint64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db.Match{}).
		Where("id = ? AND accept_notification_sent = ? AND user1_accepted = ? AND user2_accepted = ?",
			matchID, false, true, true).
		Update("accept_notification_sent", true)
	return res.RowsAffected == 1, res.Error
}

func (r *MatchRepository) SetCompatibility(ctx context.Context, matchID uint64, compatibility int) error {
	return r.db.WithContext(ctx).Model(&db.Match{}).
		Where("id = ?", matchID).
		Update("compatibility", compatibility).Error
}

func (r *MatchRepository) claim(ctx context.Context, matchID uint64, column string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db.Match{}).
		Where("id = ? AND "+column+" = ?", matchID, false).
		Update(column, true)
	return res.RowsAffected == 1, res.Error
}
