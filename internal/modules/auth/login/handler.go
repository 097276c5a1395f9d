package login

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ai-resource-hub/server/internal/middleware"
	"github.com/ai-resource-hub/server/internal/modules/auth/user"
	"github.com/ai-resource-hub/server/internal/pkg/mail"
	"github.com/ai-resource-hub/server/internal/pkg/response"
)

type Handler struct {
	svc       *Service
	mailer    *mail.Sender
	apiPrefix string
	log       *zap.Logger
}

func NewHandler(svc *Service, mailer *mail.Sender, apiPrefix string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, mailer: mailer, apiPrefix: apiPrefix, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/login/access-token", h.accessToken)
	rg.POST("/login/test-token", authMW, h.testToken)
	rg.POST("/password-recovery/:email", h.recoverPassword)
	rg.POST("/reset-password/", h.resetPassword)
	rg.POST("/password-recovery-html-content/:email", authMW,
		middleware.Superuser("The user doesn't have enough privileges"), h.recoveryHTML)
}

func (h *Handler) accessToken(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	token, err := h.svc.Login(c.Request.Context(), form.Username, form.Password)
	switch {
	case errors.Is(err, errBadCredentials):
		response.BadRequest(c, "Incorrect email or password")
	case errors.Is(err, errInactive):
		response.BadRequest(c, "Inactive user")
	case err != nil:
		response.InternalError(c, err)
	default:
		response.OK(c, token)
	}
}

func (h *Handler) testToken(c *gin.Context) {
	response.OK(c, user.ToPublic(h.apiPrefix, middleware.CurrentUser(c)))
}

func (h *Handler) recoverPassword(c *gin.Context) {
	u, email, err := h.svc.RecoveryEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		if errors.Is(err, errUnknownEmail) {
			response.NotFoundMsg(c, "The user with this email does not exist in the system.")
			return
		}
		response.InternalError(c, err)
		return
	}
	if h.mailer != nil && h.mailer.Enabled() {
		if err := h.mailer.Send(mail.Message{To: []string{u.Email}, Subject: email.Subject, HTML: email.HTML}); err != nil {
			h.log.Warn("send password recovery email failed", zap.Error(err))
		}
	}
	response.Message(c, "Password recovery email sent")
}

func (h *Handler) resetPassword(c *gin.Context) {
	var dto ResetPasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	err := h.svc.ResetPassword(c.Request.Context(), dto.Token, dto.NewPassword)
	switch {
	case errors.Is(err, errInvalidToken):
		response.BadRequest(c, "Invalid token")
	case errors.Is(err, errUnknownEmail):
		response.NotFoundMsg(c, "The user with this email does not exist in the system.")
	case errors.Is(err, errInactive):
		response.BadRequest(c, "Inactive user")
	case err != nil:
		response.InternalError(c, err)
	default:
		response.Message(c, "Password updated successfully")
	}
}

func (h *Handler) recoveryHTML(c *gin.Context) {
	_, email, err := h.svc.RecoveryEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		if errors.Is(err, errUnknownEmail) {
			response.NotFoundMsg(c, "The user with this username does not exist in the system.")
			return
		}
		response.InternalError(c, err)
		return
	}
	c.Header("subject", email.Subject)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(email.HTML))
}
