package repository

import (
	"context"

	"github.com/oggyb/nearmatch/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceRepository keeps the push endpoints of each user.
type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(database *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: database}
}

// Upsert registers a device or refreshes its endpoint for (user, token).
func (r *DeviceRepository) Upsert(ctx context.Context, d *db.Device) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "token_hash"}},
			DoUpdates: clause.AssignmentColumns([]string{"platform", "endpoint_arn", "enabled", "updated_at"}),
		}).
		Create(d).Error
}

// EnabledForUser lists the user's active endpoints.
func (r *DeviceRepository) EnabledForUser(ctx context.Context, userID uint64) ([]db.Device, error) {
	var devices []db.Device
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND enabled = ?", userID, true).
		Order("id ASC").
		Find(&devices).Error
	return devices, err
}

// Disable turns an endpoint off, e.g. after the push provider rejected it.
func (r *DeviceRepository) Disable(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Model(&db.Device{}).
		Where("id = ?", id).Update("enabled", false).Error
}
