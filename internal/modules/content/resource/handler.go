package resource

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ai-resource-hub/server/internal/middleware"
	"github.com/ai-resource-hub/server/internal/modules/content/comment"
	"github.com/ai-resource-hub/server/internal/modules/storage/images"
	"github.com/ai-resource-hub/server/internal/pkg/imageproc"
	"github.com/ai-resource-hub/server/internal/pkg/metrics"
	"github.com/ai-resource-hub/server/internal/pkg/pagination"
	"github.com/ai-resource-hub/server/internal/pkg/response"
)

const notFound = "Resource not found"

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

// RegisterRoutes mounts /resources. The public reads still see the caller
// when an optional auth middleware ran earlier in the chain.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/resources")
	g.GET("/", h.list)
	g.GET("/:id", h.get)
	g.GET("/:id/comments", h.listComments)

	authed := g.Group("", authMW)
	authed.GET("/me/favorites", h.favorites)
	authed.POST("/:id/comments", h.createComment)
	authed.POST("/:id/like", h.react(false, true))
	authed.DELETE("/:id/like", h.react(false, false))
	authed.POST("/:id/favorite", h.react(true, true))
	authed.DELETE("/:id/favorite", h.react(true, false))

	authed.POST("/", h.create)
	authed.PUT("/:id", h.update)
	authed.DELETE("/:id", h.delete)
	authed.POST("/:id/image-upload", h.uploadImage)
	authed.DELETE("/:id/image", h.clearImage)
}

func (h *Handler) public(e *Entry) Public {
	r := &e.Resource
	return Public{
		ID:               r.ID,
		Title:            r.Title,
		Description:      r.Description,
		DestinationURL:   r.DestinationURL,
		CategoryID:       r.CategoryID,
		CategoryName:     e.CategoryName,
		IsPublished:      r.IsPublished,
		PublishedByID:    r.PublishedByID,
		ImageExternalURL: r.ImageExternalURL,
		ImageURL:         images.ResourceURL(h.apiPrefix, r),
		LikesCount:       e.LikesCount,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func (h *Handler) publicList(entries []Entry) []Public {
	out := make([]Public, 0, len(entries))
	for i := range entries {
		out = append(out, h.public(&entries[i]))
	}
	return out
}

func admin(c *gin.Context) bool {
	if !middleware.IsSuperuser(c) {
		response.Forbidden(c)
		return false
	}
	return true
}

func (h *Handler) fail(c *gin.Context, err error) {
	var urlErr *images.ExternalURLError
	switch {
	case errors.As(err, &urlErr):
		response.BadRequest(c, urlErr.Message)
	case errors.Is(err, ErrURLExists):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrCategoryNotFound):
		response.NotFoundMsg(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

func (h *Handler) list(c *gin.Context) {
	f := ListFilter{
		Query:      c.Query("q"),
		CategoryID: c.Query("category_id"),
		Admin:      middleware.IsSuperuser(c),
	}
	if raw := c.Query("is_published"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.UnprocessableEntity(c, "is_published must be a boolean")
			return
		}
		f.Published = &v
	}
	entries, total, err := h.svc.List(c.Request.Context(), f, pagination.FromContext(c, 50, pagination.MaxLimit))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.List(c, h.publicList(entries), total)
}

func (h *Handler) get(c *gin.Context) {
	d, err := h.svc.Detail(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if d == nil {
		response.NotFoundMsg(c, notFound)
		return
	}
	out := Detail{
		Public:         h.public(&d.Entry),
		FavoritesCount: d.FavoritesCount,
		LikedByMe:      d.LikedByMe,
		FavoritedByMe:  d.FavoritedByMe,
	}
	if p := d.Publisher; p != nil {
		display := p.Email
		if p.FullName != nil && *p.FullName != "" {
			display = *p.FullName
		}
		out.PublishedByDisplay = &display
		out.PublishedByAvatarURL = images.AvatarURL(h.apiPrefix, p)
	}
	response.OK(c, out)
}

func (h *Handler) create(c *gin.Context) {
	if !admin(c) {
		return
	}
	var dto CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	e, err := h.svc.Create(c.Request.Context(), &dto, middleware.CurrentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, h.public(e))
}

func (h *Handler) update(c *gin.Context) {
	if !admin(c) {
		return
	}
	var dto UpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	e, err := h.svc.Update(c.Request.Context(), c.Param("id"), &dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	if e == nil {
		response.NotFoundMsg(c, notFound)
		return
	}
	response.OK(c, h.public(e))
}

func (h *Handler) delete(c *gin.Context) {
	if !admin(c) {
		return
	}
	found, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if !found {
		response.NotFoundMsg(c, notFound)
		return
	}
	response.Message(c, "Resource deleted successfully")
}

func (h *Handler) uploadImage(c *gin.Context) {
	if !admin(c) {
		return
	}
	r, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if r == nil {
		response.NotFoundMsg(c, notFound)
		return
	}
	data, contentType, err := images.ReadUpload(c, h.image.MaxBytes)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	processed, err := imageproc.Process(data, contentType, h.image)
	if err != nil {
		metrics.RecordImageUpload("resource", false)
		var verr *imageproc.ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(c, verr.Message)
			return
		}
		response.InternalError(c, err)
		return
	}
	e, err := h.svc.ReplaceImage(c.Request.Context(), r, processed)
	metrics.RecordImageUpload("resource", err == nil)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, h.public(e))
}

func (h *Handler) clearImage(c *gin.Context) {
	if !admin(c) {
		return
	}
	r, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if r == nil {
		response.NotFoundMsg(c, notFound)
		return
	}
	e, err := h.svc.ClearImage(c.Request.Context(), r)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, h.public(e))
}

func (h *Handler) react(favorite, on bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		r, err := h.svc.GetPublished(ctx, c.Param("id"))
		if err != nil {
			response.InternalError(c, err)
			return
		}
		if r == nil {
			response.NotFoundMsg(c, notFound)
			return
		}
		state, err := h.svc.React(ctx, favorite, r.ID, middleware.CurrentUserID(c), on)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		response.OK(c, state)
	}
}

func (h *Handler) favorites(c *gin.Context) {
	entries, total, err := h.svc.Favorites(c.Request.Context(), middleware.CurrentUserID(c), pagination.FromContext(c, 50, pagination.MaxLimit))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.List(c, h.publicList(entries), total)
}

func (h *Handler) listComments(c *gin.Context) {
	ctx := c.Request.Context()
	r, err := h.svc.GetPublished(ctx, c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if r == nil {
		response.NotFoundMsg(c, notFound)
		return
	}
	out, total, err := h.comments.List(ctx, comment.OnResource, r.ID, pagination.FromContext(c, 50, pagination.MaxLimit))
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
	ctx := c.Request.Context()
	r, err := h.svc.GetPublished(ctx, c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if r == nil {
		response.NotFoundMsg(c, notFound)
		return
	}
	out, err := h.comments.Create(ctx, comment.OnResource, r.ID, middleware.CurrentUser(c), dto.Body)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, out)
}
