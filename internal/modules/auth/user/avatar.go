package user

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ai-resource-hub/server/internal/database"
	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/pkg/imageproc"
	"github.com/ai-resource-hub/server/internal/pkg/storage"
)

// AvatarLimit bounds avatar changes per user. Upload and delete share it.
type AvatarLimit struct {
	MaxAttempts int
	Window      time.Duration
}

// allowAvatarChange records one attempt and reports whether it fits the
// user's current window. The row is locked so concurrent requests count once each.
func (s *Service) allowAvatarChange(ctx context.Context, userID string, limit AvatarLimit, now time.Time) (bool, error) {
	var allowed bool
	attempt := func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var rl models.AvatarRateLimitModel
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rl, "user_id = ?", userID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				allowed = true
				return tx.Create(&models.AvatarRateLimitModel{
					UserID:         userID,
					WindowStart:    now,
					AttemptCount:   1,
					FirstAttemptAt: now,
					LastAttemptAt:  now,
				}).Error
			}
			if err != nil {
				return err
			}

			if rl.WindowStart.Before(now.Add(-limit.Window)) {
				allowed = true
				return tx.Model(&rl).Updates(map[string]interface{}{
					"window_start":     now,
					"attempt_count":    1,
					"first_attempt_at": now,
					"last_attempt_at":  now,
				}).Error
			}
			if rl.AttemptCount >= limit.MaxAttempts {
				allowed = false
				return nil
			}
			allowed = true
			return tx.Model(&rl).Updates(map[string]interface{}{
				"attempt_count":   gorm.Expr("attempt_count + ?", 1),
				"last_attempt_at": now,
			}).Error
		})
	}

	err := attempt()
	if database.IsDuplicate(err) {
		// lost the race to create the row; the second pass sees it
		err = attempt()
	}
	return allowed, err
}

// ReplaceAvatar stores processed as the user's avatar and bumps the version.
func (s *Service) ReplaceAvatar(ctx context.Context, u *models.UserModel, processed *imageproc.Processed) (*models.UserModel, error) {
	s.deleteAvatarFile(ctx, u)
	key := storage.ObjectName(u.ID, processed.Extension)
	if err := s.avatars.Put(ctx, key, processed.Data, processed.ContentType); err != nil {
		return nil, err
	}
	return s.setAvatarMetadata(ctx, u, &key, &processed.ContentType)
}

// RemoveAvatar clears the avatar. The version still moves forward so cached
// URLs of the old file stop resolving.
func (s *Service) RemoveAvatar(ctx context.Context, u *models.UserModel) (*models.UserModel, error) {
	s.deleteAvatarFile(ctx, u)
	return s.setAvatarMetadata(ctx, u, nil, nil)
}

func (s *Service) setAvatarMetadata(ctx context.Context, u *models.UserModel, key, contentType *string) (*models.UserModel, error) {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Model(u).Updates(map[string]interface{}{
		"avatar_key":          key,
		"avatar_content_type": contentType,
		"avatar_version":      gorm.Expr("avatar_version + ?", 1),
		"avatar_updated_at":   now,
	}).Error
	if err != nil {
		return nil, err
	}
	u.AvatarKey = key
	u.AvatarContentType = contentType
	u.AvatarVersion++
	u.AvatarUpdatedAt = &now
	return u, nil
}

func (s *Service) deleteAvatarFile(ctx context.Context, u *models.UserModel) {
	if u.AvatarKey == nil || *u.AvatarKey == "" {
		return
	}
	if err := s.avatars.Delete(ctx, *u.AvatarKey); err != nil {
		s.log.Warn("delete avatar file failed", zap.String("user_id", u.ID), zap.Error(err))
	}
}
