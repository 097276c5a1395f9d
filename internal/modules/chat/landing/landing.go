// Package landing answers free-text questions on the landing page with a
// short assistant reply grounded on the published catalog.
package landing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/pkg/llm"
	"github.com/ai-resource-hub/server/internal/pkg/metrics"
	"github.com/ai-resource-hub/server/internal/pkg/response"
)

const (
	maxQueryRunes = 100
	maxMatches    = 5

	msgDisabled    = "Chat is currently unavailable. Please try keyword search instead."
	msgUnavailable = "Chat is temporarily unavailable. Please try keyword search instead."

	groundedPrompt = "You are a helpful assistant for an AI resource hub. " +
		"Recommend resources from the following catalog only. " +
		"If nothing matches, suggest the user try a different search. " +
		"Be friendly and concise.\n\nAvailable resources:\n"
	fallbackPrompt = "You are a helpful assistant for an AI resource hub. " +
		"No resources match the user's request. " +
		"Politely suggest they try different keywords or browse categories. " +
		"Be friendly and concise."
)

type ChatRequest struct {
	Message string `json:"message" binding:"required,min=1,max=4000"`
}

type Preview struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Type        string  `json:"type"`
}

type ChatResponse struct {
	AssistantMessage string    `json:"assistant_message"`
	Recommendations  []Preview `json:"recommendations"`
}

type Service struct {
	db     *gorm.DB
	llm    llm.Completer
	logger *zap.Logger
}

// NewService builds the chat service. A nil completer disables chat.
func NewService(db *gorm.DB, completer llm.Completer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, llm: completer, logger: logger}
}

func (s *Service) Enabled() bool { return s.llm != nil }

// searchTerm is the trimmed message cut to maxQueryRunes.
func searchTerm(message string) string {
	term := strings.TrimSpace(message)
	if r := []rune(term); len(r) > maxQueryRunes {
		term = string(r[:maxQueryRunes])
	}
	return term
}

func (s *Service) search(ctx context.Context, term string) ([]models.ResourceModel, error) {
	like := "%" + strings.ToLower(term) + "%"
	var found []models.ResourceModel
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("is_published = ?", true).
		Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like).
		Limit(maxMatches).
		Find(&found).Error
	return found, err
}

func systemPrompt(found []models.ResourceModel) string {
	if len(found) == 0 {
		return fallbackPrompt
	}
	var b strings.Builder
	b.WriteString(groundedPrompt)
	for i, r := range found {
		if i > 0 {
			b.WriteByte('\n')
		}
		desc := "No description"
		if r.Description != nil && *r.Description != "" {
			desc = *r.Description
		}
		fmt.Fprintf(&b, "- %s: %s", r.Title, desc)
	}
	return b.String()
}

// Recommend grounds message on the catalog and asks the model for a reply.
func (s *Service) Recommend(ctx context.Context, message string) (*ChatResponse, error) {
	found, err := s.search(ctx, searchTerm(message))
	if err != nil {
		return nil, err
	}
	reply, err := s.llm.Complete(ctx, systemPrompt(found), message)
	if err != nil {
		return nil, err
	}
	out := &ChatResponse{AssistantMessage: reply, Recommendations: make([]Preview, 0, len(found))}
	for _, r := range found {
		p := Preview{ID: r.ID, Title: r.Title, Description: r.Description}
		if r.Category != nil {
			p.Type = r.Category.Name
		}
		out.Recommendations = append(out.Recommendations, p)
	}
	return out, nil
}

type Handler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, logger: svc.logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/landing/chat/recommendations", h.recommend)
}

func (h *Handler) recommend(c *gin.Context) {
	if !h.svc.Enabled() {
		metrics.RecordChat(metrics.ChatDisabled, 0)
		response.ServiceUnavailable(c, msgDisabled)
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	start := time.Now()
	out, err := h.svc.Recommend(c.Request.Context(), req.Message)
	if err != nil {
		// Only the error type is logged; the message may be personal.
		h.logger.Error("chat recommendation failed", zap.String("error_type", llm.ErrorKind(err)))
		metrics.RecordChat(metrics.ChatUnavailable, time.Since(start))
		response.ServiceUnavailable(c, msgUnavailable)
		return
	}
	metrics.RecordChat(metrics.ChatOK, time.Since(start))
	response.OK(c, out)
}
