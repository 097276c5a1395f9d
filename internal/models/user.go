package models

import (
	"strings"
	"time"
)

const (
	LocaleEN = "en"
	LocaleZH = "zh"

	placeholderEmailPrefix = "wechat_"
	placeholderEmailDomain = "@placeholder.local"
)

// UserModel is an account that can sign in with a password or a linked WeChat identity.
type UserModel struct {
	Base
	Email             string     `json:"email"          gorm:"size:255;uniqueIndex;not null"`
	IsActive          bool       `json:"is_active"      gorm:"not null;default:true"`
	IsSuperuser       bool       `json:"is_superuser"   gorm:"not null;default:false"`
	FullName          *string    `json:"full_name"      gorm:"size:255"`
	HashedPassword    string     `json:"-"              gorm:"size:255;not null"`
	Locale            string     `json:"locale"         gorm:"size:5;not null;default:en"`
	AvatarKey         *string    `json:"-"              gorm:"size:255"`
	AvatarVersion     int        `json:"avatar_version" gorm:"not null;default:0"`
	AvatarContentType *string    `json:"-"              gorm:"size:50"`
	AvatarUpdatedAt   *time.Time `json:"-"`
}

func (UserModel) TableName() string { return "users" }

// DisplayName is the full name when set, the email otherwise.
func (u *UserModel) DisplayName() string {
	if u.FullName != nil && strings.TrimSpace(*u.FullName) != "" {
		return *u.FullName
	}
	return u.Email
}

// HasAvatar reports whether both the avatar key and its content type are stored.
func (u *UserModel) HasAvatar() bool {
	return u.AvatarKey != nil && *u.AvatarKey != "" && u.AvatarContentType != nil && *u.AvatarContentType != ""
}

// PlaceholderEmail builds the synthetic address given to accounts created through WeChat.
func PlaceholderEmail(hex string) string {
	return placeholderEmailPrefix + hex + placeholderEmailDomain
}

// IsPlaceholderEmail reports whether email was generated by PlaceholderEmail.
func IsPlaceholderEmail(email string) bool {
	return strings.HasPrefix(email, placeholderEmailPrefix) && strings.HasSuffix(email, placeholderEmailDomain)
}

// AvatarRateLimitModel counts avatar changes per user inside a fixed window.
type AvatarRateLimitModel struct {
	UserID         string    `gorm:"type:char(36);primaryKey"`
	WindowStart    time.Time `gorm:"not null"`
	AttemptCount   int       `gorm:"not null;default:0"`
	FirstAttemptAt time.Time `gorm:"not null"`
	LastAttemptAt  time.Time `gorm:"not null"`

	User *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (AvatarRateLimitModel) TableName() string { return "avatar_rate_limits" }
