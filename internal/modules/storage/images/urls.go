package images

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	"github.com/ai-resource-hub/server/internal/models"
	"github.com/ai-resource-hub/server/internal/pkg/imageproc"
)

// AvatarURL is the versioned public URL of a user's avatar, or nil.
func AvatarURL(apiPrefix string, u *models.UserModel) *string {
	if u == nil || !u.HasAvatar() {
		return nil
	}
	s := fmt.Sprintf("%s/avatars/%s/%d.%s", apiPrefix, u.ID, u.AvatarVersion, imageproc.ExtensionFor(*u.AvatarContentType))
	return &s
}

// ResourceURL prefers the external URL and falls back to the uploaded file.
func ResourceURL(apiPrefix string, r *models.ResourceModel) *string {
	if r == nil {
		return nil
	}
	if r.ImageExternalURL != nil && *r.ImageExternalURL != "" {
		s := *r.ImageExternalURL
		return &s
	}
	if !r.HasUploadedImage() {
		return nil
	}
	s := fmt.Sprintf("%s/resource-images/%s/%d.%s", apiPrefix, r.ID, r.ImageVersion, imageproc.ExtensionFor(*r.ImageContentType))
	return &s
}

// SubmissionURL prefers the external URL and falls back to the uploaded file.
func SubmissionURL(apiPrefix string, s *models.SubmissionModel) *string {
	if s == nil {
		return nil
	}
	if s.ImageExternalURL != nil && *s.ImageExternalURL != "" {
		out := *s.ImageExternalURL
		return &out
	}
	if !s.HasUploadedImage() {
		return nil
	}
	out := fmt.Sprintf("%s/submission-images/%s?v=%d", apiPrefix, s.ID, s.ImageVersion)
	return &out
}

// ExternalURLError explains why an image_external_url was rejected.
type ExternalURLError struct {
	Message string
}

func (e *ExternalURLError) Error() string { return e.Message }

// ValidateExternalURL accepts nil or blank, and otherwise absolute http(s) URLs
// whose host is a valid (possibly internationalized) domain name or an IP.
func ValidateExternalURL(raw *string) error {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	u, err := url.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return &ExternalURLError{Message: "image_external_url is not a valid URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ExternalURLError{Message: "image_external_url must use http or https scheme"}
	}
	host := u.Hostname()
	if host == "" {
		return &ExternalURLError{Message: "image_external_url must include a valid host"}
	}
	if strings.Contains(host, ":") || isIPv4(host) {
		return nil
	}
	if _, err := idna.Lookup.ToASCII(host); err != nil {
		return &ExternalURLError{Message: "image_external_url must include a valid host"}
	}
	return nil
}

func isIPv4(host string) bool {
	parts := strings.Split(host, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" || len(p) > 3 {
			return false
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
