// Package repo — repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

// CreateUser inserts a new user row. The email column is unique; inserting
// a second account for the same address returns ErrDuplicate.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUserByEmail fetches a user by the primary sign-in key. Returns
// ErrNotFound when no account exists for the address.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID fetches a user by flake ID (the secondary lookup path used by
// the auth middleware and profile endpoints).
func GetUserByID(ctx context.Context, db *gorm.DB, userID string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser applies a partial update to the user row identified by userID.
// If no row matches (user missing), it returns ErrNotFound.
func UpdateUser(ctx context.Context, db *gorm.DB, userID string, p *Patch) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("user_id = ?", userID).
		Updates(p.Columns())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RotateToken atomically replaces the user's stored session token and
// blacklists the previous one until prevExpires. Either both rows are
// written or neither is: a session must never rotate without the old token
// landing on the blacklist.
//
// prevToken may be empty (first sign-in after sign-up stored no revocable
// token yet); in that case only the user row is touched.
func RotateToken(ctx context.Context, db *gorm.DB, userID, newToken, prevToken string, prevExpires time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.User{}).
			Where("user_id = ?", userID).
			Update("token", newToken)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if prevToken == "" {
			return nil
		}
		rec := &domain.RevokedToken{
			Token:     prevToken,
			UserID:    userID,
			ExpiresAt: prevExpires,
		}
		if err := tx.Create(rec).Error; err != nil {
			// Re-revoking the same token (e.g. sign-out retried) is harmless.
			if isDuplicate(err) {
				return nil
			}
			return err
		}
		return nil
	})
}

// IsTokenRevoked reports whether token sits on the blacklist with an
// expiry still in the future. Expired rows encountered on this path are
// expunged opportunistically, which keeps the table bounded without a
// background sweeper.
func IsTokenRevoked(ctx context.Context, db *gorm.DB, token string, now time.Time) (bool, error) {
	var rec domain.RevokedToken
	err := db.WithContext(ctx).Where("token = ?", token).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if rec.ExpiresAt.After(now) {
		return true, nil
	}
	// Lazy TTL expunge; failure here must not fail the auth check.
	db.WithContext(ctx).Where("token = ? AND expires_at <= ?", token, now).Delete(&domain.RevokedToken{})
	return false, nil
}

// PurgeExpiredTokens deletes every blacklist row whose expiry has passed
// and returns the number of rows removed.
func PurgeExpiredTokens(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.RevokedToken{})
	return res.RowsAffected, res.Error
}
