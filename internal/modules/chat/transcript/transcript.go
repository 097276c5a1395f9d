// Package transcript stores chat conversations a user explicitly saved.
package transcript

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ai-resource-hub/server/internal/middleware"
	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/pkg/pagination"
	"github.com/ai-resource-hub/server/internal/pkg/response"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type CreateDTO struct {
	Title    *string                    `json:"title"    binding:"omitempty,max=120"`
	Messages []models.TranscriptMessage `json:"messages" binding:"required,min=1,dive"`
}

type Public struct {
	ID        string                    `json:"id"`
	Title     *string                   `json:"title"`
	Messages  models.TranscriptMessages `json:"messages"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

func toPublic(t *models.ChatTranscriptModel) Public {
	p := Public{ID: t.ID, Messages: t.Messages, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt}
	if t.Title != "" {
		title := t.Title
		p.Title = &title
	}
	if p.Messages == nil {
		p.Messages = models.TranscriptMessages{}
	}
	return p
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) List(ctx context.Context, userID string, q pagination.Query) ([]models.ChatTranscriptModel, int64, error) {
	var rows []models.ChatTranscriptModel
	tx := s.db.WithContext(ctx).Model(&models.ChatTranscriptModel{}).Where("user_id = ?", userID).Order("updated_at DESC")
	total, err := pagination.Paginate(tx, q, &rows)
	return rows, total, err
}

func (s *Service) Create(ctx context.Context, userID string, dto *CreateDTO) (*models.ChatTranscriptModel, error) {
	t := models.ChatTranscriptModel{UserID: userID, Messages: dto.Messages}
	if dto.Title != nil {
		t.Title = *dto.Title
	}
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// Get is owner scoped: another user's transcript reads as missing.
func (s *Service) Get(ctx context.Context, userID, id string) (*models.ChatTranscriptModel, error) {
	var t models.ChatTranscriptModel
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Service) Delete(ctx context.Context, t *models.ChatTranscriptModel) error {
	return s.db.WithContext(ctx).Delete(t).Error
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/me/chat-transcripts", authMW)
	g.GET("/", h.list)
	g.POST("/", h.create)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	rows, total, err := h.svc.List(c.Request.Context(), middleware.CurrentUserID(c), pagination.FromContext(c, defaultLimit, maxLimit))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]Public, 0, len(rows))
	for i := range rows {
		out = append(out, toPublic(&rows[i]))
	}
	response.List(c, out, total)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	t, err := h.svc.Create(c.Request.Context(), middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, toPublic(t))
}

func (h *Handler) load(c *gin.Context) (*models.ChatTranscriptModel, bool) {
	t, err := h.svc.Get(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return nil, false
	}
	if t == nil {
		response.NotFoundMsg(c, "Transcript not found")
		return nil, false
	}
	return t, true
}

func (h *Handler) get(c *gin.Context) {
	if t, ok := h.load(c); ok {
		response.OK(c, toPublic(t))
	}
}

func (h *Handler) delete(c *gin.Context) {
	t, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), t); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Message(c, "Transcript deleted")
}
