package repository

import (
	"context"

	"github.com/oggyb/nearmatch/internal/db"

	"gorm.io/gorm"
)

// VerificationRepository stores pending email and phone codes.
// Codes are stored hashed; comparison happens in the verify package.
type VerificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(database *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: database}
}

// ReplaceEmail drops earlier records for the address and stores a new one.
func (r *VerificationRepository) ReplaceEmail(ctx context.Context, rec *db.EmailAuthentication) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", rec.Email).Delete(&db.EmailAuthentication{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
}

// ReplacePhone drops earlier records for the number and stores a new one.
func (r *VerificationRepository) ReplacePhone(ctx context.Context, rec *db.PhoneAuthentication) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("phone_number = ?", rec.PhoneNumber).Delete(&db.PhoneAuthentication{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
}

func (r *VerificationRepository) FindEmail(ctx context.Context, email, proxyUUID string) (*db.EmailAuthentication, error) {
	var rec db.EmailAuthentication
	err := r.db.WithContext(ctx).
		Where("email = ? AND proxy_uuid = ?", email, proxyUUID).
		Order("id DESC").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *VerificationRepository) FindPhone(ctx context.Context, phone, proxyUUID string) (*db.PhoneAuthentication, error) {
	var rec db.PhoneAuthentication
	err := r.db.WithContext(ctx).
		Where("phone_number = ? AND proxy_uuid = ?", phone, proxyUUID).
		Order("id DESC").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *VerificationRepository) MarkEmailVerified(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Model(&db.EmailAuthentication{}).
		Where("id = ?", id).Update("is_verified", true).Error
}

func (r *VerificationRepository) MarkPhoneVerified(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Model(&db.PhoneAuthentication{}).
		Where("id = ?", id).Update("is_verified", true).Error
}

// VerifiedEmail returns the verified record for email, if any.
func (r *VerificationRepository) VerifiedEmail(ctx context.Context, email string) (*db.EmailAuthentication, error) {
	var rec db.EmailAuthentication
	err := r.db.WithContext(ctx).
		Where("email = ? AND is_verified = ?", email, true).
		Order("id DESC").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// VerifiedPhone returns the verified record for phone, if any.
func (r *VerificationRepository) VerifiedPhone(ctx context.Context, phone string) (*db.PhoneAuthentication, error) {
	var rec db.PhoneAuthentication
	err := r.db.WithContext(ctx).
		Where("phone_number = ? AND is_verified = ?", phone, true).
		Order("id DESC").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
