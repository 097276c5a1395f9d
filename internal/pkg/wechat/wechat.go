// Package wechat talks to the WeChat website-application OAuth endpoints.
// Access tokens are used for a single profile fetch and never stored.
package wechat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	DefaultTokenURL    = "https://api.weixin.qq.com/sns/oauth2/access_token"
	DefaultUserInfoURL = "https://api.weixin.qq.com/sns/userinfo"
	LoginJSURL         = "https://res.wx.qq.com/connect/zh_CN/htmledition/js/wxLogin.js"
	Scope              = "snsapi_login"

	requestTimeout   = 10 * time.Second
	defaultExpiresIn = 7200
	maxReplyBytes    = 1 << 20
)

// Failure categories recorded on login attempts and shown to clients.
const (
	CategoryInvalidCode         = "invalid_code"
	CategoryCodeUsed            = "code_used"
	CategoryMissingAppID        = "missing_appid"
	CategoryMissingSecret       = "missing_secret"
	CategoryTokenExpired        = "token_expired"
	CategoryRefreshTokenExpired = "refresh_token_expired"
	CategoryCodeExpired         = "code_expired"
	CategoryProviderError       = "provider_error"
	CategoryNetworkError        = "network_error"
)

var errcodeCategories = map[int64]string{
	40029: CategoryInvalidCode,
	40163: CategoryCodeUsed,
	41002: CategoryMissingAppID,
	41004: CategoryMissingSecret,
	42001: CategoryTokenExpired,
	42002: CategoryRefreshTokenExpired,
	42003: CategoryCodeExpired,
}

// APIError is a non-zero errcode reply.
type APIError struct {
	Code    int64
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wechat error %d: %s", e.Code, e.Message)
}

// Category maps the errcode to a stable failure category.
func (e *APIError) Category() string {
	if c, ok := errcodeCategories[e.Code]; ok {
		return c
	}
	return CategoryProviderError
}

// ErrNetwork wraps transport failures and non-2xx replies.
var ErrNetwork = errors.New("wechat: service unavailable")

// Token is the result of a code exchange.
type Token struct {
	AccessToken  string
	OpenID       string
	UnionID      string
	ExpiresIn    int64
	RefreshToken string
}

// UserInfo is the public profile of a WeChat user.
type UserInfo struct {
	OpenID     string
	UnionID    string
	Nickname   string
	HeadImgURL string
}

// Profile is what a completed OAuth round trip yields.
type Profile struct {
	Token Token
	User  UserInfo
}

// Client performs the two OAuth calls.
type Client struct {
	appID       string
	appSecret   string
	tokenURL    string
	userInfoURL string
	http        *http.Client
	logger      *zap.Logger
}

type Option func(*Client)

// WithEndpoints overrides the API URLs.
func WithEndpoints(tokenURL, userInfoURL string) Option {
	return func(c *Client) {
		c.tokenURL = tokenURL
		c.userInfoURL = userInfoURL
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(appID, appSecret string, opts ...Option) *Client {
	c := &Client{
		appID:       appID,
		appSecret:   appSecret,
		tokenURL:    DefaultTokenURL,
		userInfoURL: DefaultUserInfoURL,
		http:        &http.Client{Timeout: requestTimeout},
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AppID is the public application id handed to the browser widget.
func (c *Client) AppID() string { return c.appID }

// ExchangeCode trades an authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	q := url.Values{}
	q.Set("appid", c.appID)
	q.Set("secret", c.appSecret)
	q.Set("code", code)
	q.Set("grant_type", "authorization_code")

	reply, err := c.get(ctx, c.tokenURL, q)
	if err != nil {
		return nil, err
	}
	if err := c.checkErr(reply, "token exchange"); err != nil {
		return nil, err
	}

	expires := reply.Get("expires_in").Int()
	if !reply.Get("expires_in").Exists() {
		expires = defaultExpiresIn
	}
	tok := &Token{
		AccessToken:  reply.Get("access_token").String(),
		OpenID:       reply.Get("openid").String(),
		UnionID:      reply.Get("unionid").String(),
		ExpiresIn:    expires,
		RefreshToken: reply.Get("refresh_token").String(),
	}
	if tok.AccessToken == "" || tok.OpenID == "" {
		return nil, &APIError{Code: -1, Message: "token reply is missing access_token or openid"}
	}
	c.logger.Info("wechat token exchange successful")
	return tok, nil
}

// FetchUserInfo loads the profile behind an access token.
func (c *Client) FetchUserInfo(ctx context.Context, accessToken, openID string) (*UserInfo, error) {
	q := url.Values{}
	q.Set("access_token", accessToken)
	q.Set("openid", openID)

	reply, err := c.get(ctx, c.userInfoURL, q)
	if err != nil {
		return nil, err
	}
	if err := c.checkErr(reply, "userinfo fetch"); err != nil {
		return nil, err
	}
	info := &UserInfo{
		OpenID:     reply.Get("openid").String(),
		UnionID:    reply.Get("unionid").String(),
		Nickname:   reply.Get("nickname").String(),
		HeadImgURL: reply.Get("headimgurl").String(),
	}
	if info.OpenID == "" {
		info.OpenID = openID
	}
	c.logger.Info("wechat userinfo fetch successful")
	return info, nil
}

// Profile exchanges code and fetches the user behind it.
func (c *Client) Profile(ctx context.Context, code string) (*Profile, error) {
	tok, err := c.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	info, err := c.FetchUserInfo(ctx, tok.AccessToken, tok.OpenID)
	if err != nil {
		return nil, err
	}
	return &Profile{Token: *tok, User: *info}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return gjson.Result{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrNetwork, redact(err))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, fmt.Errorf("%w: http status %d", ErrNetwork, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &APIError{Code: -1, Message: "reply is not valid JSON"}
	}
	return gjson.ParseBytes(body), nil
}

func (c *Client) checkErr(reply gjson.Result, op string) error {
	code := reply.Get("errcode")
	if !code.Exists() || code.Int() == 0 {
		return nil
	}
	msg := reply.Get("errmsg").String()
	if msg == "" {
		msg = "Unknown error"
	}
	c.logger.Warn("wechat "+op+" failed", zap.Int64("errcode", code.Int()), zap.String("errmsg", msg))
	return &APIError{Code: code.Int(), Message: msg}
}

// redact drops the request URL from transport errors; it carries the secret.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}

// CategoryOf classifies any error returned by the client.
func CategoryOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Category()
	}
	if errors.Is(err, ErrNetwork) {
		return CategoryNetworkError
	}
	return CategoryProviderError
}
