package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListResponse is the envelope for list endpoints.
type ListResponse struct {
	Data  interface{} `json:"data"`
	Count int64       `json:"count"`
}

// MessageResponse is the envelope for operations that only report an outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// OK sends a 200 response.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// List sends a {data, count} response.
func List(c *gin.Context, data interface{}, count int64) {
	c.JSON(http.StatusOK, ListResponse{Data: data, Count: count})
}

// Message sends a 200 {message} response.
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, MessageResponse{Message: message})
}

// Created sends a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error aborts with the error envelope. "detail" mirrors "message" for clients
// that read either key.
func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": 0, "code": status, "message": message, "detail": message})
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 error response.
func Unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	Error(c, http.StatusUnauthorized, "Not authenticated")
}

// Forbidden sends a 403 error response.
func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Not enough permissions")
}

// ForbiddenMsg sends a 403 error response with a custom message.
func ForbiddenMsg(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Not Found")
}

// NotFoundMsg sends a 404 error with a custom message.
func NotFoundMsg(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// Conflict sends a 409 error response.
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

// UnprocessableEntity sends a 422 error response.
func UnprocessableEntity(c *gin.Context, message string) {
	Error(c, http.StatusUnprocessableEntity, message)
}

// TooManyRequests sends a 429 error response.
func TooManyRequests(c *gin.Context, message string) {
	Error(c, http.StatusTooManyRequests, message)
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, err error) {
	Error(c, http.StatusInternalServerError, err.Error())
}

// BadGateway sends a 502 error response.
func BadGateway(c *gin.Context, message string) {
	Error(c, http.StatusBadGateway, message)
}

// ServiceUnavailable sends a 503 error response.
func ServiceUnavailable(c *gin.Context, message string) {
	Error(c, http.StatusServiceUnavailable, message)
}
