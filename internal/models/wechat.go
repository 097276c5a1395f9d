package models

import "time"

const (
	SubjectTypeUnionID = "unionid"
	SubjectTypeOpenID  = "openid"

	AttemptStarted   = "started"
	AttemptSucceeded = "succeeded"
	AttemptFailed    = "failed"
)

// WeChatLinkModel binds one WeChat identity to one user.
type WeChatLinkModel struct {
	Base
	UserID             string  `json:"-"          gorm:"type:char(36);uniqueIndex;not null"`
	OpenID             string  `json:"openid"     gorm:"column:openid;size:64;uniqueIndex;not null"`
	UnionID            *string `json:"unionid"    gorm:"column:unionid;size:64;uniqueIndex"`
	PrimarySubjectType string  `json:"-"          gorm:"size:10;not null;uniqueIndex:uniq_wechat_primary_subject,priority:1"`
	PrimarySubject     string  `json:"-"          gorm:"size:64;not null;uniqueIndex:uniq_wechat_primary_subject,priority:2"`
	Nickname           *string `json:"nickname"   gorm:"size:255"`
	AvatarURL          *string `json:"avatar_url" gorm:"size:2048"`

	User *UserModel `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (WeChatLinkModel) TableName() string { return "wechat_account_links" }

// WeChatLoginAttemptModel is the server side of a one-time anti-replay state token.
type WeChatLoginAttemptModel struct {
	Base
	State           string     `gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt       time.Time  `gorm:"index;not null"`
	CompletedAt     *time.Time `gorm:"index"`
	Status          string     `gorm:"size:20;not null;default:started"`
	FailureCategory *string    `gorm:"size:50"`
	UserID          *string    `gorm:"type:char(36);index"`

	User *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

func (WeChatLoginAttemptModel) TableName() string { return "wechat_login_attempts" }
