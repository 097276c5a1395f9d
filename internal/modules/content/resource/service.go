package resource

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ai-resource-hub/server/internal/database"
	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/modules/storage/images"
	"github.com/ai-resource-hub/server/internal/pkg/imageproc"
	"github.com/ai-resource-hub/server/internal/pkg/pagination"
	"github.com/ai-resource-hub/server/internal/pkg/storage"
)

type Service struct {
	db    *gorm.DB
	files storage.Store
	log   *zap.Logger
}

func NewService(db *gorm.DB, files storage.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, files: files, log: log}
}

// Files is the store holding uploaded resource images.
func (s *Service) Files() storage.Store { return s.files }

func (s *Service) List(ctx context.Context, f ListFilter, q pagination.Query) ([]Entry, int64, error) {
	tx := s.db.WithContext(ctx).Model(&models.ResourceModel{})
	switch {
	case !f.Admin:
		tx = tx.Where("is_published = ?", true)
	case f.Published != nil:
		tx = tx.Where("is_published = ?", *f.Published)
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		tx = tx.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if f.CategoryID != "" {
		tx = tx.Where("category_id = ?", f.CategoryID)
	}

	var rows []models.ResourceModel
	total, err := pagination.Paginate(tx.Order("created_at DESC"), q, &rows)
	if err != nil {
		return nil, 0, err
	}
	entries, err := s.decorate(ctx, rows)
	return entries, total, err
}

type countRow struct {
	ResourceID string
	N          int64
}

// decorate attaches category names and like counts with one query each.
func (s *Service) decorate(ctx context.Context, rows []models.ResourceModel) ([]Entry, error) {
	out := make([]Entry, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(rows))
	catIDs := make([]string, 0, len(rows))
	for i, r := range rows {
		out[i].Resource = r
		ids = append(ids, r.ID)
		if r.CategoryID != nil {
			catIDs = append(catIDs, *r.CategoryID)
		}
	}

	names := make(map[string]string)
	if len(catIDs) > 0 {
		var cats []models.CategoryModel
		if err := s.db.WithContext(ctx).Select("id", "name").Where("id IN ?", catIDs).Find(&cats).Error; err != nil {
			return nil, err
		}
		for _, c := range cats {
			names[c.ID] = c.Name
		}
	}

	var likes []countRow
	err := s.db.WithContext(ctx).Model(&models.LikeModel{}).
		Select("resource_id, COUNT(*) AS n").
		Where("resource_id IN ?", ids).
		Group("resource_id").
		Scan(&likes).Error
	if err != nil {
		return nil, err
	}
	likeCounts := make(map[string]int64, len(likes))
	for _, l := range likes {
		likeCounts[l.ResourceID] = l.N
	}

	for i := range out {
		if id := out[i].Resource.CategoryID; id != nil {
			if name, ok := names[*id]; ok {
				out[i].CategoryName = &name
			}
		}
		out[i].LikesCount = likeCounts[out[i].Resource.ID]
	}
	return out, nil
}

func (s *Service) entry(ctx context.Context, r *models.ResourceModel) (*Entry, error) {
	entries, err := s.decorate(ctx, []models.ResourceModel{*r})
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.ResourceModel, error) {
	var r models.ResourceModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetPublished returns the resource only when it is published.
func (s *Service) GetPublished(ctx context.Context, id string) (*models.ResourceModel, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil || r == nil || !r.IsPublished {
		return nil, err
	}
	return r, nil
}

// Detail loads a resource as viewer sees it. Unpublished resources are
// hidden from everyone but superusers.
func (s *Service) Detail(ctx context.Context, id string, viewer *models.UserModel) (*DetailEntry, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil || r == nil {
		return nil, err
	}
	if !r.IsPublished && (viewer == nil || !viewer.IsSuperuser) {
		return nil, nil
	}
	e, err := s.entry(ctx, r)
	if err != nil {
		return nil, err
	}
	d := &DetailEntry{Entry: *e}

	db := s.db.WithContext(ctx)
	if err := db.Model(&models.FavoriteModel{}).Where("resource_id = ?", id).Count(&d.FavoritesCount).Error; err != nil {
		return nil, err
	}
	if viewer != nil {
		if d.LikedByMe, err = s.exists(ctx, &models.LikeModel{}, viewer.ID, id); err != nil {
			return nil, err
		}
		if d.FavoritedByMe, err = s.exists(ctx, &models.FavoriteModel{}, viewer.ID, id); err != nil {
			return nil, err
		}
	}
	if r.PublishedByID != nil {
		var u models.UserModel
		err := db.Where("id = ?", *r.PublishedByID).First(&u).Error
		switch {
		case err == nil:
			d.Publisher = &u
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}
	return d, nil
}

func (s *Service) exists(ctx context.Context, model interface{}, userID, resourceID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND resource_id = ?", userID, resourceID).
		Count(&n).Error
	return n > 0, err
}

// CheckCategory accepts nil or blank ids and otherwise requires the category to exist.
func (s *Service) CheckCategory(ctx context.Context, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.CategoryModel{}).Where("id = ?", *id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// URLTaken reports whether a resource other than exceptID already uses rawURL.
func (s *Service) URLTaken(ctx context.Context, rawURL, exceptID string) (bool, error) {
	tx := s.db.WithContext(ctx).Model(&models.ResourceModel{}).Where("destination_url_hash = ?", models.URLHash(rawURL))
	if exceptID != "" {
		tx = tx.Where("id <> ?", exceptID)
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create publishes a new resource on behalf of publisher.
func (s *Service) Create(ctx context.Context, dto *CreateDTO, publisher *models.UserModel) (*Entry, error) {
	if err := images.ValidateExternalURL(dto.ImageExternalURL); err != nil {
		return nil, err
	}
	if err := s.CheckCategory(ctx, dto.CategoryID); err != nil {
		return nil, err
	}
	taken, err := s.URLTaken(ctx, dto.DestinationURL, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrURLExists
	}

	r := models.ResourceModel{
		Title:          dto.Title,
		Description:    dto.Description,
		DestinationURL: strings.TrimSpace(dto.DestinationURL),
		CategoryID:     emptyToNil(dto.CategoryID),
		IsPublished:    true,
		PublishedByID:  &publisher.ID,
	}
	r.ImageExternalURL = emptyToNil(dto.ImageExternalURL)
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, ErrURLExists
		}
		return nil, err
	}
	return s.entry(ctx, &r)
}

// Update applies dto to the resource. A nil entry with a nil error means
// the resource does not exist.
func (s *Service) Update(ctx context.Context, id string, dto *UpdateDTO) (*Entry, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil || r == nil {
		return nil, err
	}
	if err := images.ValidateExternalURL(dto.ImageExternalURL); err != nil {
		return nil, err
	}
	if dto.DestinationURL != nil && strings.TrimSpace(*dto.DestinationURL) != r.DestinationURL {
		taken, err := s.URLTaken(ctx, *dto.DestinationURL, r.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrURLExists
		}
		r.DestinationURL = strings.TrimSpace(*dto.DestinationURL)
	}
	if dto.CategoryID != nil {
		if err := s.CheckCategory(ctx, dto.CategoryID); err != nil {
			return nil, err
		}
		r.CategoryID = emptyToNil(dto.CategoryID)
	}
	if dto.Title != nil {
		r.Title = *dto.Title
	}
	if dto.Description != nil {
		r.Description = dto.Description
	}
	if dto.IsPublished != nil {
		r.IsPublished = *dto.IsPublished
	}
	if dto.ImageExternalURL != nil {
		r.ImageExternalURL = emptyToNil(dto.ImageExternalURL)
		if r.ImageExternalURL != nil {
			s.deleteFile(ctx, r)
			r.ClearUpload()
		}
	}
	if err := s.db.WithContext(ctx).Save(r).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, ErrURLExists
		}
		return nil, err
	}
	return s.entry(ctx, r)
}

// Delete removes the resource and its uploaded image. It reports false when
// the resource does not exist.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil || r == nil {
		return false, err
	}
	if err := s.db.WithContext(ctx).Delete(r).Error; err != nil {
		return true, err
	}
	s.deleteFile(ctx, r)
	return true, nil
}

// ReplaceImage stores an uploaded image and drops any external link.
func (s *Service) ReplaceImage(ctx context.Context, r *models.ResourceModel, processed *imageproc.Processed) (*Entry, error) {
	s.deleteFile(ctx, r)
	key := storage.ObjectName(r.ID, processed.Extension)
	if err := s.files.Put(ctx, key, processed.Data, processed.ContentType); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	r.ImageKey = &key
	r.ImageContentType = &processed.ContentType
	r.ImageUpdatedAt = &now
	r.ImageVersion++
	r.ImageExternalURL = nil
	if err := s.db.WithContext(ctx).Save(r).Error; err != nil {
		return nil, err
	}
	return s.entry(ctx, r)
}

// ClearImage removes both the uploaded image and the external link. The
// version is kept so a later upload still gets a fresh URL.
func (s *Service) ClearImage(ctx context.Context, r *models.ResourceModel) (*Entry, error) {
	s.deleteFile(ctx, r)
	r.ClearUpload()
	r.ImageExternalURL = nil
	if err := s.db.WithContext(ctx).Save(r).Error; err != nil {
		return nil, err
	}
	return s.entry(ctx, r)
}

func (s *Service) deleteFile(ctx context.Context, r *models.ResourceModel) {
	if r.ImageKey == nil || *r.ImageKey == "" {
		return
	}
	if err := s.files.Delete(ctx, *r.ImageKey); err != nil && !errors.Is(err, storage.ErrNotExist) {
		s.log.Warn("delete resource image failed", zap.String("resource_id", r.ID), zap.Error(err))
	}
}

// React turns the caller's like or favorite on or off and returns the new
// total. Repeating a call leaves the state unchanged.
func (s *Service) React(ctx context.Context, favorite bool, resourceID, userID string, on bool) (*Reaction, error) {
	var model interface{} = &models.LikeModel{}
	if favorite {
		model = &models.FavoriteModel{}
	}
	db := s.db.WithContext(ctx)
	if on {
		var row interface{} = &models.LikeModel{UserID: userID, ResourceID: resourceID}
		if favorite {
			row = &models.FavoriteModel{UserID: userID, ResourceID: resourceID}
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
			return nil, err
		}
	} else {
		if err := db.Where("user_id = ? AND resource_id = ?", userID, resourceID).Delete(model).Error; err != nil {
			return nil, err
		}
	}
	var n int64
	if err := db.Model(model).Where("resource_id = ?", resourceID).Count(&n).Error; err != nil {
		return nil, err
	}
	return &Reaction{Active: on, Count: n}, nil
}

// Favorites pages the published resources userID saved, newest save first.
func (s *Service) Favorites(ctx context.Context, userID string, q pagination.Query) ([]Entry, int64, error) {
	tx := s.db.WithContext(ctx).Model(&models.ResourceModel{}).
		Joins("JOIN resource_favorites ON resource_favorites.resource_id = resources.id").
		Where("resource_favorites.user_id = ? AND resources.is_published = ?", userID, true)

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.ResourceModel
	if err := q.Apply(tx.Select("resources.*").Order("resource_favorites.created_at DESC")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	entries, err := s.decorate(ctx, rows)
	return entries, total, err
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
