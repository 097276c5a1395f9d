package submission

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ai-resource-hub/server/internal/database"
	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/modules/content/resource"
	"github.com/ai-resource-hub/server/internal/modules/storage/images"
	"github.com/ai-resource-hub/server/internal/pkg/imageproc"
	"github.com/ai-resource-hub/server/internal/pkg/pagination"
	"github.com/ai-resource-hub/server/internal/pkg/storage"
)

type Service struct {
	db        *gorm.DB
	files     storage.Store
	resources *resource.Service
	log       *zap.Logger
}

func NewService(db *gorm.DB, files storage.Store, resources *resource.Service, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, files: files, resources: resources, log: log}
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.SubmissionModel, error) {
	var sub models.SubmissionModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Service) decorate(ctx context.Context, subs []models.SubmissionModel) ([]Entry, error) {
	out := make([]Entry, len(subs))
	catIDs := make([]string, 0, len(subs))
	for i, sub := range subs {
		out[i].Submission = sub
		if sub.CategoryID != nil {
			catIDs = append(catIDs, *sub.CategoryID)
		}
	}
	if len(catIDs) == 0 {
		return out, nil
	}
	var cats []models.CategoryModel
	if err := s.db.WithContext(ctx).Select("id", "name").Where("id IN ?", catIDs).Find(&cats).Error; err != nil {
		return nil, err
	}
	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	for i := range out {
		if id := out[i].Submission.CategoryID; id != nil {
			if name, ok := names[*id]; ok {
				out[i].CategoryName = &name
			}
		}
	}
	return out, nil
}

// Entry decorates a single submission.
func (s *Service) Entry(ctx context.Context, sub *models.SubmissionModel) (*Entry, error) {
	entries, err := s.decorate(ctx, []models.SubmissionModel{*sub})
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

func (s *Service) page(ctx context.Context, tx *gorm.DB, q pagination.Query) ([]Entry, int64, error) {
	var subs []models.SubmissionModel
	total, err := pagination.Paginate(tx.Order("created_at DESC"), q, &subs)
	if err != nil {
		return nil, 0, err
	}
	entries, err := s.decorate(ctx, subs)
	return entries, total, err
}

// Mine pages the caller's own submissions, newest first.
func (s *Service) Mine(ctx context.Context, userID string, q pagination.Query) ([]Entry, int64, error) {
	tx := s.db.WithContext(ctx).Model(&models.SubmissionModel{}).Where("submitter_id = ?", userID)
	return s.page(ctx, tx, q)
}

// List pages every submission, optionally with one status.
func (s *Service) List(ctx context.Context, status string, q pagination.Query) ([]Entry, int64, error) {
	tx := s.db.WithContext(ctx).Model(&models.SubmissionModel{})
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	return s.page(ctx, tx, q)
}

func (s *Service) hasPending(ctx context.Context, userID, rawURL, exceptID string) (bool, error) {
	tx := s.db.WithContext(ctx).Model(&models.SubmissionModel{}).
		Where("submitter_id = ? AND destination_url_hash = ? AND status = ?", userID, models.URLHash(rawURL), models.SubmissionPending)
	if exceptID != "" {
		tx = tx.Where("id <> ?", exceptID)
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// checkURL rejects URLs that are already a resource or already pending
// from the same submitter.
func (s *Service) checkURL(ctx context.Context, userID, rawURL, exceptID string) error {
	taken, err := s.resources.URLTaken(ctx, rawURL, "")
	if err != nil {
		return err
	}
	if taken {
		return resource.ErrURLExists
	}
	pending, err := s.hasPending(ctx, userID, rawURL, exceptID)
	if err != nil {
		return err
	}
	if pending {
		return errPendingDuplicate
	}
	return nil
}

func (s *Service) Create(ctx context.Context, dto *CreateDTO, submitter *models.UserModel) (*Entry, error) {
	if err := images.ValidateExternalURL(dto.ImageExternalURL); err != nil {
		return nil, err
	}
	if err := s.resources.CheckCategory(ctx, dto.CategoryID); err != nil {
		return nil, err
	}
	if err := s.checkURL(ctx, submitter.ID, dto.DestinationURL, ""); err != nil {
		return nil, err
	}
	sub := models.SubmissionModel{
		Title:          dto.Title,
		Description:    dto.Description,
		DestinationURL: strings.TrimSpace(dto.DestinationURL),
		CategoryID:     trimmedOrNil(dto.CategoryID),
		Status:         models.SubmissionPending,
		SubmitterID:    submitter.ID,
	}
	sub.ImageExternalURL = trimmedOrNil(dto.ImageExternalURL)
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return nil, err
	}
	return s.Entry(ctx, &sub)
}

// CanView reports whether caller may read sub.
func CanView(sub *models.SubmissionModel, caller *models.UserModel) bool {
	return caller != nil && (caller.IsSuperuser || sub.SubmitterID == caller.ID)
}

func editable(sub *models.SubmissionModel, caller *models.UserModel, notPending string) error {
	if caller == nil || sub.SubmitterID != caller.ID {
		return errNotOwner
	}
	if sub.Status != models.SubmissionPending {
		return &StateError{Message: notPending}
	}
	return nil
}

func (s *Service) Update(ctx context.Context, sub *models.SubmissionModel, caller *models.UserModel, dto *UpdateDTO) (*Entry, error) {
	if err := editable(sub, caller, msgUpdateNotPending); err != nil {
		return nil, err
	}
	if err := images.ValidateExternalURL(dto.ImageExternalURL); err != nil {
		return nil, err
	}
	if dto.DestinationURL != nil && strings.TrimSpace(*dto.DestinationURL) != sub.DestinationURL {
		if err := s.checkURL(ctx, caller.ID, *dto.DestinationURL, sub.ID); err != nil {
			return nil, err
		}
		sub.DestinationURL = strings.TrimSpace(*dto.DestinationURL)
	}
	if dto.CategoryID != nil {
		if err := s.resources.CheckCategory(ctx, dto.CategoryID); err != nil {
			return nil, err
		}
		sub.CategoryID = trimmedOrNil(dto.CategoryID)
	}
	if dto.Title != nil {
		sub.Title = *dto.Title
	}
	if dto.Description != nil {
		sub.Description = dto.Description
	}
	if dto.ImageExternalURL != nil {
		sub.ImageExternalURL = trimmedOrNil(dto.ImageExternalURL)
		if sub.ImageExternalURL != nil && sub.HasUploadedImage() {
			s.deleteFile(ctx, sub)
			sub.ClearUpload()
			sub.ImageVersion = 0
		}
	}
	if err := s.db.WithContext(ctx).Save(sub).Error; err != nil {
		return nil, err
	}
	return s.Entry(ctx, sub)
}

func (s *Service) Delete(ctx context.Context, sub *models.SubmissionModel, caller *models.UserModel) error {
	if err := editable(sub, caller, msgDeleteNotPending); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(sub).Error; err != nil {
		return err
	}
	s.deleteFile(ctx, sub)
	return nil
}

// CheckImageEditable is the ownership and status gate for image changes. The
// handler runs it before reading the upload.
func CheckImageEditable(sub *models.SubmissionModel, caller *models.UserModel) error {
	return editable(sub, caller, msgImageNotPending)
}

func (s *Service) ReplaceImage(ctx context.Context, sub *models.SubmissionModel, processed *imageproc.Processed) (*Entry, error) {
	s.deleteFile(ctx, sub)
	key := storage.ObjectName(sub.ID, processed.Extension)
	if err := s.files.Put(ctx, key, processed.Data, processed.ContentType); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sub.ImageKey = &key
	sub.ImageContentType = &processed.ContentType
	sub.ImageUpdatedAt = &now
	sub.ImageVersion++
	sub.ImageExternalURL = nil
	if err := s.db.WithContext(ctx).Save(sub).Error; err != nil {
		return nil, err
	}
	return s.Entry(ctx, sub)
}

func (s *Service) ClearImage(ctx context.Context, sub *models.SubmissionModel) (*Entry, error) {
	s.deleteFile(ctx, sub)
	sub.ClearUpload()
	sub.ImageVersion = 0
	sub.ImageExternalURL = nil
	if err := s.db.WithContext(ctx).Save(sub).Error; err != nil {
		return nil, err
	}
	return s.Entry(ctx, sub)
}

func (s *Service) deleteFile(ctx context.Context, sub *models.SubmissionModel) {
	if sub.ImageKey == nil || *sub.ImageKey == "" {
		return
	}
	if err := s.files.Delete(ctx, *sub.ImageKey); err != nil && !errors.Is(err, storage.ErrNotExist) {
		s.log.Warn("delete submission image failed", zap.String("submission_id", sub.ID), zap.Error(err))
	}
}

// Approve publishes sub as a new resource owned by approver and carries the
// image over. An uploaded file is copied into the resource store at
// version 1. A missing file leaves the resource without an image.
func (s *Service) Approve(ctx context.Context, sub *models.SubmissionModel, approver *models.UserModel) (*Entry, error) {
	if sub.Status != models.SubmissionPending {
		return nil, &StateError{Message: msgApproveNotPending}
	}
	taken, err := s.resources.URLTaken(ctx, sub.DestinationURL, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, resource.ErrURLExists
	}

	res := models.ResourceModel{
		Title:          sub.Title,
		Description:    sub.Description,
		DestinationURL: sub.DestinationURL,
		CategoryID:     sub.CategoryID,
		IsPublished:    true,
		PublishedByID:  &approver.ID,
	}
	// The id is needed up front to name the copied file.
	res.ID = uuid.NewString()

	var copied string
	switch {
	case sub.ImageExternalURL != nil && *sub.ImageExternalURL != "":
		res.ImageExternalURL = sub.ImageExternalURL
	case sub.HasUploadedImage():
		key := storage.ObjectName(res.ID, strings.TrimPrefix(path.Ext(*sub.ImageKey), "."))
		err := storage.Copy(ctx, s.files, *sub.ImageKey, s.resources.Files(), key, *sub.ImageContentType)
		switch {
		case err == nil:
			now := time.Now().UTC()
			res.ImageKey = &key
			res.ImageVersion = 1
			res.ImageContentType = sub.ImageContentType
			res.ImageUpdatedAt = &now
			copied = key
		case errors.Is(err, storage.ErrNotExist):
			s.log.Warn("submission image missing on approve", zap.String("submission_id", sub.ID))
		default:
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&res).Error; err != nil {
			if database.IsDuplicate(err) {
				return resource.ErrURLExists
			}
			return err
		}
		sub.Status = models.SubmissionApproved
		return tx.Model(sub).Update("status", models.SubmissionApproved).Error
	})
	if err != nil {
		sub.Status = models.SubmissionPending
		if copied != "" {
			if derr := s.resources.Files().Delete(ctx, copied); derr != nil {
				s.log.Warn("remove copied image failed", zap.String("key", copied), zap.Error(derr))
			}
		}
		return nil, err
	}
	return s.Entry(ctx, sub)
}

func (s *Service) Reject(ctx context.Context, sub *models.SubmissionModel) (*Entry, error) {
	if sub.Status != models.SubmissionPending {
		return nil, &StateError{Message: msgRejectNotPending}
	}
	if err := s.db.WithContext(ctx).Model(sub).Update("status", models.SubmissionRejected).Error; err != nil {
		return nil, err
	}
	sub.Status = models.SubmissionRejected
	return s.Entry(ctx, sub)
}

func trimmedOrNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
