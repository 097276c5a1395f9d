package user

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ai-resource-hub/server/internal/database"
	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/pkg/pagination"
	"github.com/ai-resource-hub/server/internal/pkg/password"
	"github.com/ai-resource-hub/server/internal/pkg/storage"
)

type Service struct {
	db      *gorm.DB
	avatars storage.Store
	log     *zap.Logger
}

func NewService(db *gorm.DB, avatars storage.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, avatars: avatars, log: log}
}

func (s *Service) List(ctx context.Context, q pagination.Query) ([]models.UserModel, int64, error) {
	var users []models.UserModel
	total, err := pagination.Paginate(s.db.WithContext(ctx).Model(&models.UserModel{}).Order("created_at ASC"), q, &users)
	return users, total, err
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Authenticate returns the user when email and password match, nil otherwise.
func (s *Service) Authenticate(ctx context.Context, email, plain string) (*models.UserModel, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, err
	}
	if !password.Verify(plain, u.HashedPassword) {
		return nil, nil
	}
	return u, nil
}

// Create inserts a new account. A taken email yields ErrEmailExists, also
// when the unique index catches a concurrent insert.
func (s *Service) Create(ctx context.Context, p CreateParams) (*models.UserModel, error) {
	existing, err := s.GetByEmail(ctx, p.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}
	hash, err := password.Hash(p.Password)
	if err != nil {
		return nil, err
	}
	u := models.UserModel{
		Email:          strings.TrimSpace(p.Email),
		IsActive:       p.IsActive,
		IsSuperuser:    p.IsSuperuser,
		FullName:       p.FullName,
		HashedPassword: hash,
		Locale:         models.LocaleEN,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return &u, nil
}

// emailTakenByOther reports whether email belongs to an account other than selfID.
func (s *Service) emailTakenByOther(ctx context.Context, email, selfID string) (bool, error) {
	other, err := s.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return other != nil && other.ID != selfID, nil
}

func (s *Service) UpdateMe(ctx context.Context, u *models.UserModel, dto *UpdateMeDTO) (*models.UserModel, error) {
	updates := map[string]interface{}{}
	if dto.Email != nil {
		taken, err := s.emailTakenByOther(ctx, *dto.Email, u.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailExists
		}
		updates["email"] = strings.TrimSpace(*dto.Email)
	}
	if dto.FullName != nil {
		updates["full_name"] = *dto.FullName
	}
	if dto.Locale != nil {
		updates["locale"] = *dto.Locale
	}
	return s.applyUpdates(ctx, u, updates)
}

// Update is the superuser edit of any account.
func (s *Service) Update(ctx context.Context, u *models.UserModel, dto *UpdateUserDTO) (*models.UserModel, error) {
	updates := map[string]interface{}{}
	if dto.Email != nil {
		taken, err := s.emailTakenByOther(ctx, *dto.Email, u.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailExists
		}
		updates["email"] = strings.TrimSpace(*dto.Email)
	}
	if dto.FullName != nil {
		updates["full_name"] = *dto.FullName
	}
	if dto.IsActive != nil {
		updates["is_active"] = *dto.IsActive
	}
	if dto.IsSuperuser != nil {
		updates["is_superuser"] = *dto.IsSuperuser
	}
	if dto.Password != nil {
		hash, err := password.Hash(*dto.Password)
		if err != nil {
			return nil, err
		}
		updates["hashed_password"] = hash
	}
	return s.applyUpdates(ctx, u, updates)
}

func (s *Service) applyUpdates(ctx context.Context, u *models.UserModel, updates map[string]interface{}) (*models.UserModel, error) {
	if len(updates) == 0 {
		return u, nil
	}
	if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return u, nil
}

// ChangePassword verifies current and stores next.
func (s *Service) ChangePassword(ctx context.Context, u *models.UserModel, current, next string) error {
	if !password.Verify(current, u.HashedPassword) {
		return errIncorrectPassword
	}
	if current == next {
		return errSamePassword
	}
	return s.SetPassword(ctx, u, next)
}

// SetPassword replaces the password without checking the old one.
func (s *Service) SetPassword(ctx context.Context, u *models.UserModel, next string) error {
	hash, err := password.Hash(next)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(u).Update("hashed_password", hash).Error; err != nil {
		return err
	}
	u.HashedPassword = hash
	return nil
}

// Delete removes the account; links, likes, comments and transcripts go with
// it through foreign keys. The avatar file is removed best effort.
func (s *Service) Delete(ctx context.Context, u *models.UserModel) error {
	if err := s.db.WithContext(ctx).Delete(&models.UserModel{}, "id = ?", u.ID).Error; err != nil {
		return err
	}
	if u.AvatarKey != nil && *u.AvatarKey != "" && s.avatars != nil {
		if err := s.avatars.Delete(ctx, *u.AvatarKey); err != nil {
			s.log.Warn("delete avatar file failed", zap.String("user_id", u.ID), zap.Error(err))
		}
	}
	return nil
}

// EnsureSuperuser creates the bootstrap superuser when no account holds email.
func (s *Service) EnsureSuperuser(ctx context.Context, email, plain string) (bool, error) {
	existing, err := s.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	_, err = s.Create(ctx, CreateParams{Email: email, Password: plain, IsActive: true, IsSuperuser: true})
	if errors.Is(err, ErrEmailExists) {
		return false, nil
	}
	return err == nil, err
}
