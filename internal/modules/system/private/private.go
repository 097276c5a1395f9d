// Package private holds routes that only exist in local environments.
package private

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ai-resource-hub/server/internal/modules/auth/user"
	"github.com/ai-resource-hub/server/internal/pkg/response"
)

type CreateUserDTO struct {
	Email      string  `json:"email"       binding:"required,email,max=255"`
	Password   string  `json:"password"    binding:"required,min=8,max=128"`
	FullName   *string `json:"full_name"   binding:"omitempty,max=255"`
	IsVerified bool    `json:"is_verified"`
}

// RegisterRoutes mounts account bootstrap without authentication. Callers
// must only invoke it for env local.
func RegisterRoutes(rg *gin.RouterGroup, users *user.Service, apiPrefix string) {
	rg.POST("/private/users/", func(c *gin.Context) {
		var dto CreateUserDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.UnprocessableEntity(c, err.Error())
			return
		}
		u, err := users.Create(c.Request.Context(), user.CreateParams{
			Email:    dto.Email,
			Password: dto.Password,
			FullName: dto.FullName,
			IsActive: true,
		})
		if errors.Is(err, user.ErrEmailExists) {
			response.BadRequest(c, "The user with this email already exists in the system")
			return
		}
		if err != nil {
			response.InternalError(c, err)
			return
		}
		response.OK(c, user.ToPublic(apiPrefix, u))
	})
}
