package wechatlogin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ai-resource-hub/server/internal/middleware"
	"github.com/ai-resource-hub/server/internal/pkg/response"
	"github.com/ai-resource-hub/server/internal/pkg/wechat"
)

type Handler struct {
	svc     *Service
	enabled bool
}

// NewHandler mounts the routes even when disabled so clients get a clear 403.
func NewHandler(svc *Service, enabled bool) *Handler {
	return &Handler{svc: svc, enabled: enabled}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/login/wechat/start", h.gate, h.start)
	rg.POST("/login/wechat/complete", h.gate, h.complete)
	rg.GET("/users/me/wechat", h.gate, authMW, h.status)
	rg.POST("/users/me/wechat/link", h.gate, authMW, h.link)
	rg.DELETE("/users/me/wechat/link", h.gate, authMW, h.unlink)
}

func (h *Handler) gate(c *gin.Context) {
	if !h.enabled || h.svc == nil {
		response.ForbiddenMsg(c, "WeChat login is not enabled")
		return
	}
	c.Next()
}

func (h *Handler) start(c *gin.Context) {
	var dto StartDTO
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.UnprocessableEntity(c, err.Error())
			return
		}
	}
	out, err := h.svc.Start(c.Request.Context(), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, out)
}

func (h *Handler) complete(c *gin.Context) {
	var dto CodeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	token, err := h.svc.Complete(c.Request.Context(), &dto)
	if err != nil {
		h.fail(c, "WeChat login failed", err)
		return
	}
	response.OK(c, token)
}

func (h *Handler) status(c *gin.Context) {
	link, err := h.svc.Status(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if link == nil {
		response.OK(c, nil)
		return
	}
	response.OK(c, toPublic(link))
}

func (h *Handler) link(c *gin.Context) {
	var dto CodeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	if err := h.svc.Link(c.Request.Context(), middleware.CurrentUser(c), &dto); err != nil {
		h.fail(c, "WeChat linking failed", err)
		return
	}
	response.Message(c, "WeChat account linked successfully")
}

func (h *Handler) unlink(c *gin.Context) {
	if err := h.svc.Unlink(c.Request.Context(), middleware.CurrentUser(c)); err != nil {
		h.fail(c, "", err)
		return
	}
	response.Message(c, "WeChat account unlinked successfully")
}

func (h *Handler) fail(c *gin.Context, providerPrefix string, err error) {
	var stateErr *StateError
	var provErr *ProviderError
	switch {
	case errors.As(err, &stateErr):
		response.BadRequest(c, stateErr.Message())
	case errors.As(err, &provErr):
		switch provErr.Category {
		case wechat.CategoryNetworkError:
			response.BadGateway(c, "WeChat service unavailable")
		case wechat.CategoryProviderError:
			response.BadGateway(c, providerPrefix+": "+provErr.Category)
		default:
			response.BadRequest(c, providerPrefix+": "+provErr.Category)
		}
	case errors.Is(err, errOrphanedLink):
		response.Error(c, http.StatusInternalServerError, "Account error - please contact support")
	case errors.Is(err, errInactive):
		response.BadRequest(c, "Login failed")
	case errors.Is(err, errHasLink):
		response.BadRequest(c, "Account already has a WeChat link. Unlink first to change.")
	case errors.Is(err, errLinkedToOther):
		response.Conflict(c, "This WeChat account is already linked to another user")
	case errors.Is(err, errNoLink):
		response.NotFoundMsg(c, "No WeChat link found for this account")
	case errors.Is(err, errUnlinkUnsafe):
		response.BadRequest(c, "Cannot unlink WeChat: no other sign-in method available. "+
			"Please update your email address and ensure password recovery is available first.")
	default:
		response.InternalError(c, err)
	}
}
