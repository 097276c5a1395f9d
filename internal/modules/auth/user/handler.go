package user

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ai-resource-hub/server/internal/middleware"
	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/modules/storage/images"
	"github.com/ai-resource-hub/server/internal/pkg/imageproc"
	"github.com/ai-resource-hub/server/internal/pkg/mail"
	"github.com/ai-resource-hub/server/internal/pkg/metrics"
	"github.com/ai-resource-hub/server/internal/pkg/pagination"
	"github.com/ai-resource-hub/server/internal/pkg/response"
)

// Options carries the settings the user endpoints need from the app config.
type Options struct {
	APIPrefix    string
	ProjectName  string
	FrontendHost string
	Avatar       imageproc.Options
	AvatarLimit  AvatarLimit
}

type Handler struct {
	svc    *Service
	mailer *mail.Sender
	opts   Options
	log    *zap.Logger
}

func NewHandler(svc *Service, mailer *mail.Sender, opts Options, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	opts.Avatar.Mode = imageproc.SquareCrop
	return &Handler{svc: svc, mailer: mailer, opts: opts, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	users := rg.Group("/users")
	users.POST("/signup", h.signup)

	authed := users.Group("", authMW)
	authed.GET("/me", h.me)
	authed.PATCH("/me", h.updateMe)
	authed.PATCH("/me/password", h.updatePassword)
	authed.DELETE("/me", h.deleteMe)
	authed.POST("/me/avatar", h.uploadAvatar)
	authed.DELETE("/me/avatar", h.deleteAvatar)
	authed.GET("/:id", h.get)

	admin := authed.Group("", middleware.Superuser(privilegeMessage))
	admin.GET("/", h.list)
	admin.POST("/", h.create)
	admin.PATCH("/:id", h.update)
	admin.DELETE("/:id", h.delete)
}

// ToPublic renders u for API responses.
func ToPublic(apiPrefix string, u *models.UserModel) *Public {
	if u == nil {
		return nil
	}
	locale := u.Locale
	if locale == "" {
		locale = models.LocaleEN
	}
	return &Public{
		ID:            u.ID,
		Email:         u.Email,
		IsActive:      u.IsActive,
		IsSuperuser:   u.IsSuperuser,
		FullName:      u.FullName,
		Locale:        locale,
		AvatarURL:     images.AvatarURL(apiPrefix, u),
		AvatarVersion: u.AvatarVersion,
		CreatedAt:     u.CreatedAt,
	}
}

func (h *Handler) public(u *models.UserModel) *Public {
	return ToPublic(h.opts.APIPrefix, u)
}

func (h *Handler) list(c *gin.Context) {
	users, total, err := h.svc.List(c.Request.Context(), pagination.FromContext(c, 100, 0))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]*Public, 0, len(users))
	for i := range users {
		out = append(out, h.public(&users[i]))
	}
	response.List(c, out, total)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	u, err := h.svc.Create(c.Request.Context(), userCreateParams(&dto))
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			response.BadRequest(c, "The user with this email already exists in the system.")
			return
		}
		response.InternalError(c, err)
		return
	}
	h.sendNewAccountEmail(u.Email, dto.Password)
	response.OK(c, h.public(u))
}

func (h *Handler) sendNewAccountEmail(email, plain string) {
	if h.mailer == nil || !h.mailer.Enabled() {
		return
	}
	msg, err := mail.RenderNewAccount(mail.TemplateData{
		ProjectName: h.opts.ProjectName,
		Email:       email,
		Username:    email,
		Password:    plain,
		Link:        h.opts.FrontendHost,
	})
	if err == nil {
		err = h.mailer.Send(mail.Message{To: []string{email}, Subject: msg.Subject, HTML: msg.HTML})
	}
	if err != nil {
		h.log.Warn("send new account email failed", zap.Error(err))
	}
}

func (h *Handler) signup(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	u, err := h.svc.Create(c.Request.Context(), CreateParams{
		Email:    dto.Email,
		Password: dto.Password,
		FullName: dto.FullName,
		IsActive: true,
	})
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			response.BadRequest(c, "The user with this email already exists in the system")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, h.public(u))
}

func (h *Handler) me(c *gin.Context) {
	response.OK(c, h.public(middleware.CurrentUser(c)))
}

func (h *Handler) updateMe(c *gin.Context) {
	var dto UpdateMeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	u, err := h.svc.UpdateMe(c.Request.Context(), middleware.CurrentUser(c), &dto)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			response.Conflict(c, "User with this email already exists")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, h.public(u))
}

func (h *Handler) updatePassword(c *gin.Context) {
	var dto UpdatePasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	err := h.svc.ChangePassword(c.Request.Context(), middleware.CurrentUser(c), dto.CurrentPassword, dto.NewPassword)
	switch {
	case errors.Is(err, errIncorrectPassword):
		response.BadRequest(c, "Incorrect password")
	case errors.Is(err, errSamePassword):
		response.BadRequest(c, "New password cannot be the same as the current one")
	case err != nil:
		response.InternalError(c, err)
	default:
		response.Message(c, "Password updated successfully")
	}
}

func (h *Handler) deleteMe(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u.IsSuperuser {
		response.ForbiddenMsg(c, "Super users are not allowed to delete themselves")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), u); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Message(c, "User deleted successfully")
}

func (h *Handler) get(c *gin.Context) {
	current := middleware.CurrentUser(c)
	id := c.Param("id")
	if id == current.ID {
		response.OK(c, h.public(current))
		return
	}
	if !current.IsSuperuser {
		response.ForbiddenMsg(c, privilegeMessage)
		return
	}
	u, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, h.public(u))
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	u, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if u == nil {
		response.NotFoundMsg(c, "The user with this id does not exist in the system")
		return
	}
	u, err = h.svc.Update(c.Request.Context(), u, &dto)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			response.Conflict(c, "User with this email already exists")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, h.public(u))
}

func (h *Handler) delete(c *gin.Context) {
	u, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if u == nil {
		response.NotFoundMsg(c, "User not found")
		return
	}
	if u.ID == middleware.CurrentUserID(c) {
		response.ForbiddenMsg(c, "Super users are not allowed to delete themselves")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), u); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Message(c, "User deleted successfully")
}

func (h *Handler) checkAvatarLimit(c *gin.Context, u *models.UserModel) bool {
	allowed, err := h.svc.allowAvatarChange(c.Request.Context(), u.ID, h.opts.AvatarLimit, time.Now().UTC())
	if err != nil {
		response.InternalError(c, err)
		return false
	}
	if !allowed {
		response.TooManyRequests(c, "Too many avatar change attempts. Please try again later.")
		return false
	}
	return true
}

func (h *Handler) uploadAvatar(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if !h.checkAvatarLimit(c, u) {
		return
	}
	data, contentType, err := images.ReadUpload(c, h.opts.Avatar.MaxBytes)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	processed, err := imageproc.Process(data, contentType, h.opts.Avatar)
	if err != nil {
		metrics.RecordImageUpload("avatar", false)
		var verr *imageproc.ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(c, verr.Message)
			return
		}
		response.InternalError(c, err)
		return
	}
	u, err = h.svc.ReplaceAvatar(c.Request.Context(), u, processed)
	metrics.RecordImageUpload("avatar", err == nil)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, h.public(u))
}

func (h *Handler) deleteAvatar(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if !h.checkAvatarLimit(c, u) {
		return
	}
	u, err := h.svc.RemoveAvatar(c.Request.Context(), u)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, h.public(u))
}
