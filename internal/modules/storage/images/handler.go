// Package images serves processed uploads and holds the helpers other
// modules use to read uploads and build image URLs.
package images

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/pkg/imageproc"
	"github.com/ai-resource-hub/server/internal/pkg/response"
	"github.com/ai-resource-hub/server/internal/pkg/storage"
)

const cacheControl = "public, max-age=31536000, immutable"

type Handler struct {
	db     *gorm.DB
	stores *storage.Set
}

func NewHandler(db *gorm.DB, stores *storage.Set) *Handler {
	return &Handler{db: db, stores: stores}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/avatars/:id/:file", h.avatar)
	rg.GET("/resource-images/:id/:file", h.resourceImage)
	rg.GET("/submission-images/:id", h.submissionImage)
}

func (h *Handler) avatar(c *gin.Context) {
	version, contentType, ok := parseVersionedFile(c.Param("file"))
	if !ok {
		response.NotFoundMsg(c, "Avatar not found")
		return
	}

	var u models.UserModel
	if err := h.db.WithContext(c.Request.Context()).First(&u, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundMsg(c, "User not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	if u.AvatarKey == nil || *u.AvatarKey == "" || u.AvatarVersion != version ||
		u.AvatarContentType == nil || *u.AvatarContentType != contentType {
		response.NotFoundMsg(c, "Avatar not found")
		return
	}
	h.serve(c, h.stores.Avatars, *u.AvatarKey, contentType, "Avatar not found")
}

func (h *Handler) resourceImage(c *gin.Context) {
	version, contentType, ok := parseVersionedFile(c.Param("file"))
	if !ok {
		response.NotFoundMsg(c, "Resource image not found")
		return
	}

	var r models.ResourceModel
	if err := h.db.WithContext(c.Request.Context()).First(&r, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundMsg(c, "Resource image not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	if !r.HasUploadedImage() || r.ImageVersion != version || *r.ImageContentType != contentType {
		response.NotFoundMsg(c, "Resource image not found")
		return
	}
	h.serve(c, h.stores.ResourceImages, *r.ImageKey, contentType, "Resource image not found")
}

// submissionImage looks the file up by id alone; ?v= only busts caches.
func (h *Handler) submissionImage(c *gin.Context) {
	id := c.Param("id")
	for _, ext := range []string{"webp", "jpg"} {
		contentType, _ := imageproc.ContentTypeFor(ext)
		data, err := h.stores.SubmissionImages.Get(c.Request.Context(), storage.ObjectName(id, ext))
		if err != nil {
			if errors.Is(err, storage.ErrNotExist) || errors.Is(err, storage.ErrInvalidName) {
				continue
			}
			response.InternalError(c, err)
			return
		}
		writeImage(c, data, contentType)
		return
	}
	response.NotFoundMsg(c, "Submission image not found")
}

func (h *Handler) serve(c *gin.Context, store storage.Store, key, contentType, notFound string) {
	data, err := store.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) || errors.Is(err, storage.ErrInvalidName) {
			response.NotFoundMsg(c, notFound)
			return
		}
		response.InternalError(c, err)
		return
	}
	writeImage(c, data, contentType)
}

func writeImage(c *gin.Context, data []byte, contentType string) {
	c.Header("Cache-Control", cacheControl)
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, contentType, data)
}

// parseVersionedFile splits "<version>.<ext>" and maps ext to its content type.
func parseVersionedFile(file string) (int, string, bool) {
	base, ext, found := strings.Cut(file, ".")
	if !found {
		return 0, "", false
	}
	version, err := strconv.Atoi(base)
	if err != nil || version < 0 {
		return 0, "", false
	}
	contentType, ok := imageproc.ContentTypeFor(ext)
	if !ok || ext != strings.ToLower(ext) {
		return 0, "", false
	}
	return version, contentType, true
}
