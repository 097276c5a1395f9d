package category

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ai-resource-hub/server/internal/middleware"
	"github.com/ai-resource-hub/server/internal/pkg/pagination"
	"github.com/ai-resource-hub/server/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	cats := rg.Group("/categories")
	cats.GET("/", h.list)

	authed := cats.Group("", authMW)
	authed.GET("/admin", h.listAdmin)
	authed.POST("/", h.create)
	authed.PUT("/:id", h.update)
	authed.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	cats, total, err := h.svc.List(c.Request.Context(), pagination.FromContext(c, 100, 0))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]Public, 0, len(cats))
	for _, cat := range cats {
		out = append(out, Public{ID: cat.ID, Name: cat.Name})
	}
	response.List(c, out, total)
}

func (h *Handler) listAdmin(c *gin.Context) {
	if !middleware.IsSuperuser(c) {
		response.Forbidden(c)
		return
	}
	items, total, err := h.svc.ListAdmin(c.Request.Context(), pagination.FromContext(c, 100, 0))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.List(c, items, total)
}

func (h *Handler) create(c *gin.Context) {
	if !middleware.IsSuperuser(c) {
		response.Forbidden(c)
		return
	}
	var dto CategoryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	cat, err := h.svc.Create(c.Request.Context(), dto.Name)
	if err != nil {
		writeNameError(c, err)
		return
	}
	response.OK(c, Public{ID: cat.ID, Name: cat.Name})
}

func (h *Handler) update(c *gin.Context) {
	if !middleware.IsSuperuser(c) {
		response.Forbidden(c)
		return
	}
	var dto CategoryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	cat, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if cat == nil {
		response.NotFoundMsg(c, "Category not found")
		return
	}
	cat, err = h.svc.Rename(c.Request.Context(), cat, dto.Name)
	if err != nil {
		writeNameError(c, err)
		return
	}
	response.OK(c, Public{ID: cat.ID, Name: cat.Name})
}

func writeNameError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errBlankName):
		response.BadRequest(c, "Category name cannot be blank")
	case errors.Is(err, errNameExists):
		response.Conflict(c, "A category with this name already exists")
	default:
		response.InternalError(c, err)
	}
}

func (h *Handler) delete(c *gin.Context) {
	if !middleware.IsSuperuser(c) {
		response.Forbidden(c)
		return
	}
	cat, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if cat == nil {
		response.NotFoundMsg(c, "Category not found")
		return
	}

	err = h.svc.Delete(c.Request.Context(), cat)
	var inUse *InUseError
	switch {
	case errors.As(err, &inUse):
		response.Conflict(c, inUse.Error())
	case errors.Is(err, errReferenced):
		response.Conflict(c, fmt.Sprintf("Cannot delete category '%s' because it is in use", cat.Name))
	case err != nil:
		response.InternalError(c, err)
	default:
		response.Message(c, "Category deleted successfully")
	}
}
