package images

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
)

// FormField is the multipart field carrying image uploads.
const FormField = "file"

// ErrUploadUnreadable is returned when the multipart file cannot be read.
var ErrUploadUnreadable = errors.New("Failed to read uploaded file")

// ReadUpload returns the bytes and declared content type of the uploaded
// file. At most limit+1 bytes are read so oversized files still fail the
// size check downstream without being buffered whole.
func ReadUpload(c *gin.Context, limit int64) ([]byte, string, error) {
	fileHeader, err := c.FormFile(FormField)
	if err != nil {
		return nil, "", ErrUploadUnreadable
	}
	f, err := fileHeader.Open()
	if err != nil {
		return nil, "", ErrUploadUnreadable
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", ErrUploadUnreadable
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}
