package repository

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/oggyb/nearmatch/internal/db"
	"github.com/oggyb/nearmatch/internal/geo"

	"gorm.io/gorm"
)

// UserRepository provides data access methods for the User model.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// WithTx returns a copy bound to tx.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// Create inserts a user. Email is lower-cased, names are stored lower-case.
func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.FirstName = strings.ToLower(u.FirstName)
	u.LastName = strings.ToLower(u.LastName)
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	var u db.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDs loads users keyed by id. Missing ids are simply absent.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]*db.User, error) {
	out := make(map[uint64]*db.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) PhoneTaken(ctx context.Context, phone string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).
		Where("phone_number = ?", phone).
		Count(&count).Error
	return count > 0, err
}

// UpdateLocation stores a new position and its timestamp.
func (r *UserRepository) UpdateLocation(ctx context.Context, userID uint64, lat, lng float64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"latitude":        lat,
			"longitude":       lng,
			"loc_update_time": at,
		}).Error
}

// ClearLocation removes the stored position and makes the user unmatchable.
func (r *UserRepository) ClearLocation(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"latitude":     gorm.Expr("NULL"),
			"longitude":    gorm.Expr("NULL"),
			"is_matchable": false,
		}).Error
}

func (r *UserRepository) SetMatchable(ctx context.Context, userID uint64, matchable bool) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		Update("is_matchable", matchable).Error
}

// FindNearby returns users inside the ±delta box around (lat, lng) whose
// location was refreshed at or after since.
//
// Behavior:
//   - Users without coordinates are never returned.
//   - Ordered by id ASC, which is the order the matcher walks candidates.
//
// Example:
//
//	repo.FindNearby(ctx, 34.02, -118.28, 0.001, time.Now().Add(-15*time.Minute))
func (r *UserRepository) FindNearby(
	ctx context.Context,
	lat, lng, delta float64,
	since time.Time,
) ([]db.User, error) {
	box := geo.BoxAround(lat, lng, delta)

	var users []db.User
	err := r.db.WithContext(ctx).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng).
		Where("loc_update_time >= ?", since).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

// Delete removes a user and every dependent row in one transaction.
// It returns the ids of everyone the user was ever matched with, ascending,
// so callers can drop state cached for those partners.
func (r *UserRepository) Delete(ctx context.Context, userID uint64) ([]uint64, error) {
	var partners []uint64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		paired, err := NewMatchRepository(tx).PairedUserIDs(ctx, userID)
		if err != nil {
			return err
		}
		for id := range paired {
			partners = append(partners, id)
		}
		slices.Sort(partners)

		steps := []struct {
			model any
			where string
			args  []any
		}{
			{&db.NumericalResponse{}, "user_id = ?", []any{userID}},
			{&db.TextResponse{}, "user_id = ?", []any{userID}},
			{&db.Notification{}, "user_id = ?", []any{userID}},
			{&db.Device{}, "user_id = ?", []any{userID}},
			{&db.Message{}, "sender_id = ? OR receiver_id = ?", []any{userID, userID}},
			{&db.Match{}, "user1_id = ? OR user2_id = ?", []any{userID, userID}},
		}
		for _, s := range steps {
			if err := tx.Where(s.where, s.args...).Delete(s.model).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&db.User{}, userID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return partners, nil
}
