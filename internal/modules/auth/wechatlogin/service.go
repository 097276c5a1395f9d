package wechatlogin

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ai-resource-hub/server/internal/database"
	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/modules/auth/login"
	"github.com/ai-resource-hub/server/internal/modules/auth/user"
	"github.com/ai-resource-hub/server/internal/pkg/password"
	"github.com/ai-resource-hub/server/internal/pkg/wechat"
)

type Options struct {
	StateTTL        time.Duration
	FrontendHost    string
	IntermediaryURL string
	EmailsEnabled   bool
}

type Service struct {
	db     *gorm.DB
	client *wechat.Client
	users  *user.Service
	tokens *login.Service
	opts   Options
	log    *zap.Logger
}

func NewService(db *gorm.DB, client *wechat.Client, users *user.Service, tokens *login.Service, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, client: client, users: users, tokens: tokens, opts: opts, log: log}
}

// IsPlaceholderEmail reports whether email was generated for a WeChat-only account.
func IsPlaceholderEmail(email string) bool {
	return models.IsPlaceholderEmail(email)
}

func placeholderEmail() string {
	return models.PlaceholderEmail(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// RedirectURI builds the OAuth callback. returnTo is kept only when it is a
// relative path. With an intermediary the callback travels in its from param.
func (s *Service) RedirectURI(action string, returnTo *string) string {
	callback := strings.TrimRight(s.opts.FrontendHost, "/") + "/wechat-callback"
	q := url.Values{}
	if action != "" {
		q.Set("action", action)
	}
	if returnTo != nil && strings.HasPrefix(*returnTo, "/") {
		q.Set("from", *returnTo)
	}
	if len(q) > 0 {
		callback += "?" + q.Encode()
	}
	if s.opts.IntermediaryURL == "" {
		return callback
	}
	return s.opts.IntermediaryURL + "?" + url.Values{"from": {callback}}.Encode()
}

func (s *Service) Start(ctx context.Context, dto *StartDTO) (*StartResponse, error) {
	state, err := password.Random(stateBytes)
	if err != nil {
		return nil, err
	}
	attempt := models.WeChatLoginAttemptModel{
		State:     state,
		ExpiresAt: time.Now().Add(s.opts.StateTTL),
		Status:    models.AttemptStarted,
	}
	if err := s.db.WithContext(ctx).Create(&attempt).Error; err != nil {
		return nil, err
	}
	action := dto.Action
	if action == "" {
		action = ActionLogin
	}
	s.log.Info("wechat login started", zap.String("state_prefix", state[:8]))
	return &StartResponse{
		AppID:        s.client.AppID(),
		Scope:        wechat.Scope,
		RedirectURI:  s.RedirectURI(action, dto.ReturnTo),
		State:        state,
		WxLoginJSURL: wechat.LoginJSURL,
	}, nil
}

// claim takes a usable attempt by marking it completed. Expired and reused
// states are consumed as failed.
func (s *Service) claim(ctx context.Context, state string) (*models.WeChatLoginAttemptModel, error) {
	var a models.WeChatLoginAttemptModel
	err := s.db.WithContext(ctx).Where("state = ?", state).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &StateError{Reason: "not_found"}
	}
	if err != nil {
		return nil, err
	}

	reason := ""
	switch {
	case time.Now().After(a.ExpiresAt):
		reason = "expired"
	case a.CompletedAt != nil:
		reason = "already_used"
	}
	if reason != "" {
		if err := s.consume(ctx, &a, false, "state_"+reason); err != nil {
			return nil, err
		}
		s.log.Warn("wechat state validation failed", zap.String("reason", reason), zap.String("state_prefix", prefix(state)))
		return nil, &StateError{Reason: reason}
	}

	// Only one request may take a started attempt; the loser leaves the winner's outcome alone.
	res := s.db.WithContext(ctx).Model(&models.WeChatLoginAttemptModel{}).
		Where("id = ? AND completed_at IS NULL", a.ID).
		Update("completed_at", time.Now())
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		s.log.Warn("wechat state claimed concurrently", zap.String("state_prefix", prefix(state)))
		return nil, &StateError{Reason: "already_used"}
	}
	return &a, nil
}

// consume closes an attempt so its state cannot be replayed.
func (s *Service) consume(ctx context.Context, a *models.WeChatLoginAttemptModel, success bool, category string) error {
	status := models.AttemptSucceeded
	var failure *string
	if !success {
		status = models.AttemptFailed
		failure = &category
	}
	now := time.Now()
	return s.db.WithContext(ctx).Model(a).Updates(map[string]interface{}{
		"completed_at":     now,
		"status":           status,
		"failure_category": failure,
	}).Error
}

func (s *Service) fail(ctx context.Context, a *models.WeChatLoginAttemptModel, category string, cause error) error {
	if err := s.consume(ctx, a, false, category); err != nil {
		return err
	}
	return cause
}

func (s *Service) profile(ctx context.Context, a *models.WeChatLoginAttemptModel, code string) (*wechat.Profile, error) {
	p, err := s.client.Profile(ctx, code)
	if err == nil {
		return p, nil
	}
	category := wechat.CategoryOf(err)
	if category == wechat.CategoryNetworkError {
		s.log.Error("wechat network failure", zap.Error(err))
	} else {
		s.log.Warn("wechat api error", zap.String("category", category))
	}
	return nil, s.fail(ctx, a, category, &ProviderError{Category: category})
}

// subject prefers the unionid, which is stable across a developer's apps.
func subject(info wechat.UserInfo) (string, string) {
	if info.UnionID != "" {
		return models.SubjectTypeUnionID, info.UnionID
	}
	return models.SubjectTypeOpenID, info.OpenID
}

func (s *Service) linkBySubject(ctx context.Context, typ, subj string) (*models.WeChatLinkModel, error) {
	var l models.WeChatLinkModel
	err := s.db.WithContext(ctx).Where("primary_subject_type = ? AND primary_subject = ?", typ, subj).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Status returns the caller's link, or nil.
func (s *Service) Status(ctx context.Context, userID string) (*models.WeChatLinkModel, error) {
	var l models.WeChatLinkModel
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Service) createLink(ctx context.Context, userID string, info wechat.UserInfo) error {
	typ, subj := subject(info)
	l := models.WeChatLinkModel{
		UserID:             userID,
		OpenID:             info.OpenID,
		UnionID:            nonEmpty(info.UnionID),
		PrimarySubjectType: typ,
		PrimarySubject:     subj,
		Nickname:           nonEmpty(info.Nickname),
		AvatarURL:          nonEmpty(info.HeadImgURL),
	}
	return s.db.WithContext(ctx).Create(&l).Error
}

// Complete finishes a login. A known subject signs in its user; a new one
// gets a placeholder account.
func (s *Service) Complete(ctx context.Context, dto *CodeDTO) (*login.Token, error) {
	a, err := s.claim(ctx, dto.State)
	if err != nil {
		return nil, err
	}
	p, err := s.profile(ctx, a, dto.Code)
	if err != nil {
		return nil, err
	}

	typ, subj := subject(p.User)
	link, err := s.linkBySubject(ctx, typ, subj)
	if err != nil {
		return nil, s.fail(ctx, a, categoryInternal, err)
	}

	var u *models.UserModel
	if link != nil {
		u, err = s.users.GetByID(ctx, link.UserID)
		if err != nil {
			return nil, s.fail(ctx, a, categoryInternal, err)
		}
		if u == nil {
			s.log.Error("orphaned wechat link", zap.String("link_id", link.ID))
			return nil, s.fail(ctx, a, "orphaned_link", errOrphanedLink)
		}
		if !u.IsActive {
			return nil, s.fail(ctx, a, "inactive_user", errInactive)
		}
	} else {
		u, err = s.register(ctx, p.User)
		if err != nil {
			return nil, s.fail(ctx, a, categoryInternal, err)
		}
	}

	if err := s.consume(ctx, a, true, ""); err != nil {
		return nil, err
	}
	s.log.Info("wechat login successful",
		zap.String("user_id", u.ID), zap.Bool("new_user", link == nil), zap.String("state_prefix", prefix(dto.State)))
	return s.tokens.IssueToken(u)
}

func (s *Service) register(ctx context.Context, info wechat.UserInfo) (*models.UserModel, error) {
	secret, err := password.Random(stateBytes)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Create(ctx, user.CreateParams{
		Email:    placeholderEmail(),
		Password: secret,
		FullName: nonEmpty(info.Nickname),
		IsActive: true,
	})
	if err != nil {
		return nil, err
	}
	if err := s.createLink(ctx, u.ID, info); err != nil {
		if derr := s.users.Delete(ctx, u); derr != nil {
			s.log.Warn("failed to remove account after link error", zap.String("user_id", u.ID), zap.Error(derr))
		}
		return nil, err
	}
	return u, nil
}

// Link attaches a WeChat identity to u. Accounts are never merged.
func (s *Service) Link(ctx context.Context, u *models.UserModel, dto *CodeDTO) error {
	existing, err := s.Status(ctx, u.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return errHasLink
	}
	a, err := s.claim(ctx, dto.State)
	if err != nil {
		return err
	}
	p, err := s.profile(ctx, a, dto.Code)
	if err != nil {
		return err
	}

	typ, subj := subject(p.User)
	other, err := s.linkBySubject(ctx, typ, subj)
	if err != nil {
		return s.fail(ctx, a, categoryInternal, err)
	}
	if other != nil {
		return s.fail(ctx, a, "already_linked_other", errLinkedToOther)
	}
	if err := s.createLink(ctx, u.ID, p.User); err != nil {
		if database.IsDuplicate(err) {
			return s.fail(ctx, a, "already_linked_other", errLinkedToOther)
		}
		return s.fail(ctx, a, categoryInternal, err)
	}
	if err := s.consume(ctx, a, true, ""); err != nil {
		return err
	}
	s.log.Info("wechat link created", zap.String("user_id", u.ID))
	return nil
}

// Unlink removes the caller's link when password recovery can still reach them.
func (s *Service) Unlink(ctx context.Context, u *models.UserModel) error {
	link, err := s.Status(ctx, u.ID)
	if err != nil {
		return err
	}
	if link == nil {
		return errNoLink
	}
	if !s.opts.EmailsEnabled || IsPlaceholderEmail(u.Email) {
		return errUnlinkUnsafe
	}
	if err := s.db.WithContext(ctx).Delete(link).Error; err != nil {
		return err
	}
	s.log.Info("wechat link removed", zap.String("user_id", u.ID))
	return nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func prefix(state string) string {
	if len(state) > 8 {
		return state[:8]
	}
	return state
}
