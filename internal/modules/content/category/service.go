package category

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/ai-resource-hub/server/internal/database"
	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/pkg/pagination"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) List(ctx context.Context, q pagination.Query) ([]models.CategoryModel, int64, error) {
	var cats []models.CategoryModel
	total, err := pagination.Paginate(s.db.WithContext(ctx).Model(&models.CategoryModel{}).Order("name ASC"), q, &cats)
	return cats, total, err
}

type usageRow struct {
	CategoryID string
	N          int64
}

// ListAdmin pages categories and attaches resource and submission counts,
// two GROUP BY queries per page.
func (s *Service) ListAdmin(ctx context.Context, q pagination.Query) ([]AdminItem, int64, error) {
	cats, total, err := s.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	items := make([]AdminItem, 0, len(cats))
	if len(cats) == 0 {
		return items, total, nil
	}

	ids := make([]string, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	resources, err := s.countBy(ctx, &models.ResourceModel{}, ids)
	if err != nil {
		return nil, 0, err
	}
	submissions, err := s.countBy(ctx, &models.SubmissionModel{}, ids)
	if err != nil {
		return nil, 0, err
	}

	for _, c := range cats {
		r, sub := resources[c.ID], submissions[c.ID]
		items = append(items, AdminItem{
			ID:               c.ID,
			Name:             c.Name,
			InUse:            r > 0 || sub > 0,
			ResourcesCount:   r,
			SubmissionsCount: sub,
		})
	}
	return items, total, nil
}

func (s *Service) countBy(ctx context.Context, model interface{}, ids []string) (map[string]int64, error) {
	var rows []usageRow
	err := s.db.WithContext(ctx).Model(model).
		Select("category_id, COUNT(*) AS n").
		Where("category_id IN ?", ids).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.CategoryID] = r.N
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.CategoryModel, error) {
	var cat models.CategoryModel
	if err := s.db.WithContext(ctx).First(&cat, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cat, nil
}

// GetByName matches case-insensitively through name_key.
func (s *Service) GetByName(ctx context.Context, name string) (*models.CategoryModel, error) {
	var cat models.CategoryModel
	if err := s.db.WithContext(ctx).Where("name_key = ?", models.CategoryKey(name)).First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cat, nil
}

func (s *Service) checkName(ctx context.Context, raw, selfID string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", errBlankName
	}
	existing, err := s.GetByName(ctx, name)
	if err != nil {
		return "", err
	}
	if existing != nil && existing.ID != selfID {
		return "", errNameExists
	}
	return name, nil
}

func (s *Service) Create(ctx context.Context, raw string) (*models.CategoryModel, error) {
	name, err := s.checkName(ctx, raw, "")
	if err != nil {
		return nil, err
	}
	cat := models.CategoryModel{Name: name, NameKey: models.CategoryKey(name)}
	if err := s.db.WithContext(ctx).Create(&cat).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, errNameExists
		}
		return nil, err
	}
	return &cat, nil
}

func (s *Service) Rename(ctx context.Context, cat *models.CategoryModel, raw string) (*models.CategoryModel, error) {
	name, err := s.checkName(ctx, raw, cat.ID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(cat).Updates(map[string]interface{}{
		"name":     name,
		"name_key": models.CategoryKey(name),
	}).Error
	if err != nil {
		if database.IsDuplicate(err) {
			return nil, errNameExists
		}
		return nil, err
	}
	return cat, nil
}

// Usage counts the resources and submissions filed under id.
func (s *Service) Usage(ctx context.Context, id string) (int64, int64, error) {
	var resources, submissions int64
	if err := s.db.WithContext(ctx).Model(&models.ResourceModel{}).Where("category_id = ?", id).Count(&resources).Error; err != nil {
		return 0, 0, err
	}
	if err := s.db.WithContext(ctx).Model(&models.SubmissionModel{}).Where("category_id = ?", id).Count(&submissions).Error; err != nil {
		return 0, 0, err
	}
	return resources, submissions, nil
}

// Delete refuses categories still in use. The RESTRICT foreign keys catch
// rows added between the check and the delete.
func (s *Service) Delete(ctx context.Context, cat *models.CategoryModel) error {
	resources, submissions, err := s.Usage(ctx, cat.ID)
	if err != nil {
		return err
	}
	if resources > 0 || submissions > 0 {
		return &InUseError{Name: cat.Name, Resources: resources, Submissions: submissions}
	}
	if err := s.db.WithContext(ctx).Delete(&models.CategoryModel{}, "id = ?", cat.ID).Error; err != nil {
		if database.IsReferenced(err) {
			return errReferenced
		}
		return err
	}
	return nil
}
