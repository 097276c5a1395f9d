package app

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ai-resource-hub/server/internal/config"
	"github.com/ai-resource-hub/server/internal/models"
	pkgcron "github.com/ai-resource-hub/server/internal/pkg/cron"
)

// Finished WeChat attempts stay around this long for auditing.
const attemptRetention = 24 * time.Hour

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, cfg *config.AppConfig, logger *zap.Logger) error {
	cronLogger := logger.Named("cron")

	jobs := []pkgcron.Job{
		{
			Name:        "purge_wechat_attempts",
			Description: "Delete WeChat login attempts whose state expired a day ago",
			Spec:        "@every 1h",
			Fn: func(ctx context.Context) error {
				n, err := purgeWeChatAttempts(ctx, db, time.Now())
				if err != nil {
					cronLogger.Warn("purge wechat attempts failed", zap.Error(err))
					return err
				}
				cronLogger.Info("purged wechat attempts", zap.Int64("rows", n))
				return nil
			},
		},
		{
			Name:        "purge_avatar_rate_limits",
			Description: "Delete avatar rate limit windows that have closed",
			Spec:        "@every 6h",
			Fn: func(ctx context.Context) error {
				n, err := purgeAvatarRateLimits(ctx, db, time.Now(), cfg.Avatar.RateLimitWindow())
				if err != nil {
					cronLogger.Warn("purge avatar rate limits failed", zap.Error(err))
					return err
				}
				cronLogger.Info("purged avatar rate limits", zap.Int64("rows", n))
				return nil
			},
		},
	}
	for _, job := range jobs {
		if err := sched.Register(job); err != nil {
			return err
		}
	}
	return nil
}

func purgeWeChatAttempts(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at < ?", now.Add(-attemptRetention)).
		Delete(&models.WeChatLoginAttemptModel{})
	return res.RowsAffected, res.Error
}

func purgeAvatarRateLimits(ctx context.Context, db *gorm.DB, now time.Time, window time.Duration) (int64, error) {
	res := db.WithContext(ctx).
		Where("window_start < ?", now.Add(-window)).
		Delete(&models.AvatarRateLimitModel{})
	return res.RowsAffected, res.Error
}
