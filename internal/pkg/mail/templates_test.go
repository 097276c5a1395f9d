package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderResetPassword(t *testing.T) {
	email, err := RenderResetPassword(TemplateData{
		ProjectName: "Hub",
		Username:    "a@example.com",
		Link:        "http://localhost:5173/reset-password?token=abc",
		ValidHours:  48,
	})
	require.NoError(t, err)

	assert.Equal(t, "Hub - Password recovery for user a@example.com", email.Subject)
	assert.Contains(t, email.HTML, `<a href="http://localhost:5173/reset-password?token=abc">Reset password</a>`)
	assert.Contains(t, email.HTML, "48 hours")
	assert.Contains(t, email.HTML, "<h1>")
}

func TestRenderDropsRawHTML(t *testing.T) {
	email, err := RenderNewAccount(TemplateData{
		ProjectName: "Hub",
		Username:    "<script>alert(1)</script>",
		Link:        "http://localhost:5173",
	})
	require.NoError(t, err)
	assert.NotContains(t, email.HTML, "<script>")
}

func TestRenderTestEmail(t *testing.T) {
	email, err := RenderTestEmail(TemplateData{ProjectName: "Hub", Email: "x@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Hub - Test email", email.Subject)
	assert.Contains(t, email.HTML, "<strong>x@example.com</strong>")
}

func TestDisabledSenderIsNoop(t *testing.T) {
	s := New(Config{})
	assert.False(t, s.Enabled())
	assert.NoError(t, s.Send(Message{To: []string{"a@example.com"}, Subject: "x"}))
}
