package comment

import (
	"github.com/gin-gonic/gin"

	"github.com/ai-resource-hub/server/internal/middleware"
	"github.com/ai-resource-hub/server/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts edit and delete for both comment kinds. Listing and
// creation live under their parent resource or submission.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/comments", authMW)
	g.PUT("/:id", h.update(OnResource))
	g.DELETE("/:id", h.delete(OnResource))
	g.PUT("/submission/:id", h.update(OnSubmission))
	g.DELETE("/submission/:id", h.delete(OnSubmission))
}

func (h *Handler) update(k Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var dto UpdateDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.UnprocessableEntity(c, err.Error())
			return
		}
		out, err := h.svc.Update(c.Request.Context(), k, c.Param("id"), middleware.CurrentUser(c), &dto)
		switch {
		case IsNotAuthor(err):
			response.Forbidden(c)
		case err != nil:
			response.InternalError(c, err)
		case out == nil:
			response.NotFoundMsg(c, "Comment not found")
		default:
			response.OK(c, out)
		}
	}
}

func (h *Handler) delete(k Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := h.svc.Delete(c.Request.Context(), k, c.Param("id"), middleware.CurrentUser(c))
		switch {
		case IsNotAuthor(err):
			response.Forbidden(c)
		case err != nil:
			response.InternalError(c, err)
		case !found:
			response.NotFoundMsg(c, "Comment not found")
		default:
			response.Message(c, "Comment deleted successfully")
		}
	}
}
