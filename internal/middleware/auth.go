package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/pkg/jwt"
	"github.com/ai-resource-hub/server/internal/pkg/response"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeyUser   = "user"
)

var (
	errNoToken      = errors.New("token is required")
	errBadToken     = errors.New("could not validate credentials")
	errUserNotFound = errors.New("user not found")
	errInactiveUser = errors.New("inactive user")
)

// Auth requires a bearer access token for an existing, active user.
func Auth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}
		user, err := authenticate(db, c)
		switch {
		case errors.Is(err, errNoToken):
			response.Unauthorized(c)
			return
		case errors.Is(err, errBadToken):
			response.ForbiddenMsg(c, "Could not validate credentials")
			return
		case errors.Is(err, errUserNotFound):
			response.NotFoundMsg(c, "User not found")
			return
		case errors.Is(err, errInactiveUser):
			response.BadRequest(c, "Inactive user")
			return
		case err != nil:
			response.InternalError(c, err)
			return
		}
		setUser(c, user)
		c.Next()
	}
}

// OptionalAuth loads the user when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := authenticate(db, c); err == nil {
			setUser(c, user)
		}
		c.Next()
	}
}

// Superuser rejects callers without the superuser flag. It must run after Auth.
func Superuser(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Unauthorized(c)
			return
		}
		if !user.IsSuperuser {
			response.Error(c, http.StatusForbidden, message)
			return
		}
		c.Next()
	}
}

func authenticate(db *gorm.DB, c *gin.Context) (*models.UserModel, error) {
	token := NormalizeToken(c.GetHeader("Authorization"))
	if token == "" {
		return nil, errNoToken
	}
	claims, err := jwt.Parse(token)
	if err != nil || claims.UserID() == "" {
		return nil, errBadToken
	}

	var user models.UserModel
	if err := db.WithContext(c.Request.Context()).First(&user, "id = ?", claims.UserID()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errInactiveUser
	}
	return &user, nil
}

func setUser(c *gin.Context, user *models.UserModel) {
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeyUser, user)
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *models.UserModel {
	v, ok := c.Get(ContextKeyUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.UserModel)
	return u
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUserID)
	id, _ := v.(string)
	return id
}

// IsAuthenticated returns true if the request carried a valid token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

// IsSuperuser reports whether the caller is an authenticated superuser.
func IsSuperuser(c *gin.Context) bool {
	u := CurrentUser(c)
	return u != nil && u.IsSuperuser
}

// NormalizeToken trims spaces and strips the Bearer scheme. Other schemes
// yield an empty token.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	scheme, rest, found := strings.Cut(token, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(rest)
}
