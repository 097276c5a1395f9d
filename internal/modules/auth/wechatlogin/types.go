package wechatlogin

import (
	"errors"
	"time"

	"github.com/ai-resource-hub/server/internal/models"
)

const (
	ActionLogin = "login"
	ActionLink  = "link"

	stateBytes       = 32
	categoryInternal = "internal_error"
)

type StartDTO struct {
	Action   string  `json:"action"    binding:"omitempty,oneof=login link"`
	ReturnTo *string `json:"return_to" binding:"omitempty,max=2048"`
}

type StartResponse struct {
	AppID        string `json:"appid"`
	Scope        string `json:"scope"`
	RedirectURI  string `json:"redirect_uri"`
	State        string `json:"state"`
	WxLoginJSURL string `json:"wx_login_js_url"`
}

// CodeDTO carries the OAuth callback parameters for complete and link.
type CodeDTO struct {
	Code  string `json:"code"  binding:"required,min=1,max=512"`
	State string `json:"state" binding:"required,min=1,max=64"`
}

type LinkPublic struct {
	ID        string    `json:"id"`
	OpenID    string    `json:"openid"`
	UnionID   *string   `json:"unionid"`
	Nickname  *string   `json:"nickname"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

func toPublic(l *models.WeChatLinkModel) *LinkPublic {
	return &LinkPublic{
		ID:        l.ID,
		OpenID:    l.OpenID,
		UnionID:   l.UnionID,
		Nickname:  l.Nickname,
		AvatarURL: l.AvatarURL,
		CreatedAt: l.CreatedAt,
	}
}

// StateError rejects a state token. Reason is not_found, expired or already_used.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string { return "wechat state " + e.Reason }

func (e *StateError) Message() string {
	switch e.Reason {
	case "not_found":
		return "Invalid state token"
	case "expired":
		return "State token expired"
	case "already_used":
		return "State token already used"
	}
	return "State validation failed"
}

// ProviderError is a failed code exchange or profile fetch.
type ProviderError struct {
	Category string
}

func (e *ProviderError) Error() string { return "wechat provider: " + e.Category }

var (
	errOrphanedLink  = errors.New("wechat link without user")
	errInactive      = errors.New("inactive user")
	errHasLink       = errors.New("user already linked")
	errLinkedToOther = errors.New("wechat identity linked to another user")
	errNoLink        = errors.New("no wechat link")
	errUnlinkUnsafe  = errors.New("unlink would leave no sign-in method")
)
