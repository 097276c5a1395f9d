package comment

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/pkg/pagination"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// row is one comment joined with the author's name columns.
type row struct {
	ID          string
	Body        string
	AuthorID    string
	ParentID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	AuthorName  *string
	AuthorEmail *string
}

func (k Kind) table() string {
	if k == OnSubmission {
		return "submission_comments"
	}
	return "resource_comments"
}

func (k Kind) parentColumn() string {
	if k == OnSubmission {
		return "submission_id"
	}
	return "resource_id"
}

func (k Kind) model() interface{} {
	if k == OnSubmission {
		return &models.SubmissionCommentModel{}
	}
	return &models.CommentModel{}
}

func display(fullName, email *string) *string {
	if fullName != nil && *fullName != "" {
		return fullName
	}
	return email
}

func (r row) public(k Kind) Public {
	p := Public{
		ID:            r.ID,
		Body:          r.Body,
		AuthorID:      r.AuthorID,
		AuthorDisplay: display(r.AuthorName, r.AuthorEmail),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if k == OnSubmission {
		p.SubmissionID = r.ParentID
	} else {
		p.ResourceID = r.ParentID
	}
	return p
}

// List returns the comments under parentID, oldest first.
func (s *Service) List(ctx context.Context, k Kind, parentID string, q pagination.Query) ([]Public, int64, error) {
	table, parent := k.table(), k.parentColumn()

	var total int64
	if err := s.db.WithContext(ctx).Model(k.model()).Where(parent+" = ?", parentID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []row
	err := s.db.WithContext(ctx).Table(table+" AS c").
		Select("c.id, c.body, c.author_id, c."+parent+" AS parent_id, c.created_at, c.updated_at, "+
			"u.full_name AS author_name, u.email AS author_email").
		Joins("JOIN users AS u ON u.id = c.author_id").
		Where("c."+parent+" = ?", parentID).
		Order("c.created_at ASC").
		Offset(q.Skip).Limit(q.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]Public, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.public(k))
	}
	return out, total, nil
}

// Create stores a comment by author under parentID.
func (s *Service) Create(ctx context.Context, k Kind, parentID string, author *models.UserModel, body string) (*Public, error) {
	var r row
	switch k {
	case OnSubmission:
		m := models.SubmissionCommentModel{Body: body, AuthorID: author.ID, SubmissionID: parentID}
		if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
			return nil, err
		}
		r = row{ID: m.ID, Body: m.Body, AuthorID: m.AuthorID, ParentID: m.SubmissionID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
	default:
		m := models.CommentModel{Body: body, AuthorID: author.ID, ResourceID: parentID}
		if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
			return nil, err
		}
		r = row{ID: m.ID, Body: m.Body, AuthorID: m.AuthorID, ParentID: m.ResourceID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
	}
	r.AuthorName = author.FullName
	r.AuthorEmail = &author.Email
	p := r.public(k)
	return &p, nil
}

func (s *Service) get(ctx context.Context, k Kind, id string) (*row, error) {
	var rows []row
	err := s.db.WithContext(ctx).Table(k.table()+" AS c").
		Select("c.id, c.body, c.author_id, c."+k.parentColumn()+" AS parent_id, c.created_at, c.updated_at, "+
			"u.full_name AS author_name, u.email AS author_email").
		Joins("LEFT JOIN users AS u ON u.id = c.author_id").
		Where("c.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Update edits the body. Only the author may edit. A nil result with a nil
// error means the comment does not exist.
func (s *Service) Update(ctx context.Context, k Kind, id string, caller *models.UserModel, dto *UpdateDTO) (*Public, error) {
	r, err := s.get(ctx, k, id)
	if err != nil || r == nil {
		return nil, err
	}
	if r.AuthorID != caller.ID {
		return nil, errNotAuthor
	}
	if dto.Body != nil {
		now := time.Now()
		err := s.db.WithContext(ctx).Table(k.table()).Where("id = ?", id).
			Updates(map[string]interface{}{"body": *dto.Body, "updated_at": now}).Error
		if err != nil {
			return nil, err
		}
		r.Body = *dto.Body
		r.UpdatedAt = now
	}
	p := r.public(k)
	return &p, nil
}

// Delete removes the comment when caller wrote it or is a superuser. It
// reports false when the comment does not exist.
func (s *Service) Delete(ctx context.Context, k Kind, id string, caller *models.UserModel) (bool, error) {
	r, err := s.get(ctx, k, id)
	if err != nil || r == nil {
		return false, err
	}
	if r.AuthorID != caller.ID && !caller.IsSuperuser {
		return true, errNotAuthor
	}
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(k.model()).Error; err != nil {
		return true, err
	}
	return true, nil
}

// IsNotAuthor reports whether err is a permission refusal from Update or Delete.
func IsNotAuthor(err error) bool {
	return errors.Is(err, errNotAuthor)
}
