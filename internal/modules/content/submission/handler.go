package submission

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ai-resource-hub/server/internal/middleware"
	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/modules/content/comment"
	"github.com/ai-resource-hub/server/internal/modules/content/resource"
	"github.com/ai-resource-hub/server/internal/modules/storage/images"
	"github.com/ai-resource-hub/server/internal/pkg/imageproc"
	"github.com/ai-resource-hub/server/internal/pkg/metrics"
	"github.com/ai-resource-hub/server/internal/pkg/pagination"
	"github.com/ai-resource-hub/server/internal/pkg/response"
)

const notFound = "Submission not found"

type Handler struct {
	svc       *Service
	comments  *comment.Service
	apiPrefix string
	image     imageproc.Options
}

func NewHandler(svc *Service, comments *comment.Service, apiPrefix string, image imageproc.Options) *Handler {
	image.Mode = imageproc.Fit
	return &Handler{svc: svc, comments: comments, apiPrefix: apiPrefix, image: image}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/submissions", authMW)
	g.GET("/mine", h.mine)
	g.POST("/", h.create)
	g.GET("/", h.list)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/image", h.uploadImage)
	g.DELETE("/:id/image", h.clearImage)
	g.POST("/:id/approve", h.approve)
	g.POST("/:id/reject", h.reject)
	g.GET("/:id/comments", h.listComments)
	g.POST("/:id/comments", h.createComment)
}

func (h *Handler) public(e *Entry) Public {
	s := &e.Submission
	return Public{
		ID:               s.ID,
		Title:            s.Title,
		Description:      s.Description,
		DestinationURL:   s.DestinationURL,
		CategoryID:       s.CategoryID,
		CategoryName:     e.CategoryName,
		Status:           s.Status,
		SubmitterID:      s.SubmitterID,
		ImageExternalURL: s.ImageExternalURL,
		ImageURL:         images.SubmissionURL(h.apiPrefix, s),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func (h *Handler) publicList(entries []Entry) []Public {
	out := make([]Public, 0, len(entries))
	for i := range entries {
		out = append(out, h.public(&entries[i]))
	}
	return out
}

func (h *Handler) fail(c *gin.Context, err error) {
	var urlErr *images.ExternalURLError
	var stateErr *StateError
	switch {
	case errors.As(err, &urlErr):
		response.BadRequest(c, urlErr.Message)
	case errors.As(err, &stateErr):
		response.BadRequest(c, stateErr.Message)
	case errors.Is(err, errNotOwner):
		response.Forbidden(c)
	case errors.Is(err, resource.ErrURLExists), errors.Is(err, errPendingDuplicate):
		response.Conflict(c, err.Error())
	case errors.Is(err, resource.ErrCategoryNotFound):
		response.NotFoundMsg(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

// load fetches the :id submission or writes a 404.
func (h *Handler) load(c *gin.Context) (*models.SubmissionModel, bool) {
	sub, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return nil, false
	}
	if sub == nil {
		response.NotFoundMsg(c, notFound)
		return nil, false
	}
	return sub, true
}

func (h *Handler) respond(c *gin.Context, e *Entry, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, h.public(e))
}

func (h *Handler) mine(c *gin.Context) {
	entries, total, err := h.svc.Mine(c.Request.Context(), middleware.CurrentUserID(c), pagination.FromContext(c, 50, pagination.MaxLimit))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.List(c, h.publicList(entries), total)
}

func (h *Handler) list(c *gin.Context) {
	if !middleware.IsSuperuser(c) {
		response.Forbidden(c)
		return
	}
	entries, total, err := h.svc.List(c.Request.Context(), c.Query("status"), pagination.FromContext(c, 50, pagination.MaxLimit))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.List(c, h.publicList(entries), total)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	e, err := h.svc.Create(c.Request.Context(), &dto, middleware.CurrentUser(c))
	h.respond(c, e, err)
}

func (h *Handler) get(c *gin.Context) {
	sub, ok := h.load(c)
	if !ok {
		return
	}
	if !CanView(sub, middleware.CurrentUser(c)) {
		response.Forbidden(c)
		return
	}
	e, err := h.svc.Entry(c.Request.Context(), sub)
	h.respond(c, e, err)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	sub, ok := h.load(c)
	if !ok {
		return
	}
	e, err := h.svc.Update(c.Request.Context(), sub, middleware.CurrentUser(c), &dto)
	h.respond(c, e, err)
}

func (h *Handler) delete(c *gin.Context) {
	sub, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), sub, middleware.CurrentUser(c)); err != nil {
		h.fail(c, err)
		return
	}
	response.Message(c, "Submission deleted successfully")
}

func (h *Handler) uploadImage(c *gin.Context) {
	sub, ok := h.load(c)
	if !ok {
		return
	}
	if err := CheckImageEditable(sub, middleware.CurrentUser(c)); err != nil {
		h.fail(c, err)
		return
	}
	data, contentType, err := images.ReadUpload(c, h.image.MaxBytes)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	processed, err := imageproc.Process(data, contentType, h.image)
	if err != nil {
		metrics.RecordImageUpload("submission", false)
		var verr *imageproc.ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(c, verr.Message)
			return
		}
		response.InternalError(c, err)
		return
	}
	e, err := h.svc.ReplaceImage(c.Request.Context(), sub, processed)
	metrics.RecordImageUpload("submission", err == nil)
	h.respond(c, e, err)
}

func (h *Handler) clearImage(c *gin.Context) {
	sub, ok := h.load(c)
	if !ok {
		return
	}
	if err := CheckImageEditable(sub, middleware.CurrentUser(c)); err != nil {
		h.fail(c, err)
		return
	}
	e, err := h.svc.ClearImage(c.Request.Context(), sub)
	h.respond(c, e, err)
}

func (h *Handler) approve(c *gin.Context) {
	if !middleware.IsSuperuser(c) {
		response.Forbidden(c)
		return
	}
	sub, ok := h.load(c)
	if !ok {
		return
	}
	e, err := h.svc.Approve(c.Request.Context(), sub, middleware.CurrentUser(c))
	h.respond(c, e, err)
}

func (h *Handler) reject(c *gin.Context) {
	if !middleware.IsSuperuser(c) {
		response.Forbidden(c)
		return
	}
	sub, ok := h.load(c)
	if !ok {
		return
	}
	e, err := h.svc.Reject(c.Request.Context(), sub)
	h.respond(c, e, err)
}

func (h *Handler) listComments(c *gin.Context) {
	sub, ok := h.load(c)
	if !ok {
		return
	}
	out, total, err := h.comments.List(c.Request.Context(), comment.OnSubmission, sub.ID, pagination.FromContext(c, 50, pagination.MaxLimit))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.List(c, out, total)
}

func (h *Handler) createComment(c *gin.Context) {
	var dto comment.CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	sub, ok := h.load(c)
	if !ok {
		return
	}
	out, err := h.comments.Create(c.Request.Context(), comment.OnSubmission, sub.ID, middleware.CurrentUser(c), dto.Body)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, out)
}
