package login

import (
	"context"
	"net/url"
	"time"

	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/modules/auth/user"
	"github.com/ai-resource-hub/server/internal/pkg/jwt"
	"github.com/ai-resource-hub/server/internal/pkg/mail"
)

// Options are the token lifetimes and email settings of the login flows.
type Options struct {
	AccessTTL    time.Duration
	ResetTTL     time.Duration
	ProjectName  string
	FrontendHost string
}

type Service struct {
	users *user.Service
	opts  Options
}

func NewService(users *user.Service, opts Options) *Service {
	return &Service{users: users, opts: opts}
}

// Login checks credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, plain string) (*Token, error) {
	u, err := s.users.Authenticate(ctx, email, plain)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errBadCredentials
	}
	if !u.IsActive {
		return nil, errInactive
	}
	return s.IssueToken(u)
}

// IssueToken signs an access token for u.
func (s *Service) IssueToken(u *models.UserModel) (*Token, error) {
	token, err := jwt.Sign(u.ID, s.opts.AccessTTL)
	if err != nil {
		return nil, err
	}
	return &Token{AccessToken: token, TokenType: "bearer"}, nil
}

// RecoveryEmail renders the password recovery email for the account behind email.
func (s *Service) RecoveryEmail(ctx context.Context, email string) (*models.UserModel, mail.Email, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, mail.Email{}, err
	}
	if u == nil {
		return nil, mail.Email{}, errUnknownEmail
	}
	token, err := jwt.SignPasswordReset(u.Email, s.opts.ResetTTL)
	if err != nil {
		return nil, mail.Email{}, err
	}
	rendered, err := mail.RenderResetPassword(mail.TemplateData{
		ProjectName: s.opts.ProjectName,
		Email:       u.Email,
		Username:    u.Email,
		Link:        s.opts.FrontendHost + "/reset-password?token=" + url.QueryEscape(token),
		ValidHours:  int(s.opts.ResetTTL / time.Hour),
	})
	return u, rendered, err
}

// ResetPassword applies a new password for the holder of a valid reset token.
func (s *Service) ResetPassword(ctx context.Context, token, next string) error {
	email, err := jwt.ParsePasswordReset(token)
	if err != nil || email == "" {
		return errInvalidToken
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return errUnknownEmail
	}
	if !u.IsActive {
		return errInactive
	}
	return s.users.SetPassword(ctx, u, next)
}
