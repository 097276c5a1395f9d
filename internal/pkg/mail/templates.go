package mail

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
	"time"

	"github.com/yuin/goldmark"
)

const layoutTpl = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Subject}}</title></head>
<body style="font-family: -apple-system, Segoe UI, Helvetica, Arial, sans-serif; color: #1a202c; max-width: 600px; margin: 0 auto; padding: 24px;">
{{.Body}}
<hr style="border: none; border-top: 1px solid #e2e8f0; margin-top: 32px;">
<p style="color: #718096; font-size: 12px;">&copy; {{.Year}} {{.ProjectName}}</p>
</body>
</html>`

const testEmailMD = `# {{.ProjectName}}

Test email for: **{{.Email}}**
`

const resetPasswordMD = `# {{.ProjectName}} - Password Recovery

Hello {{.Username}},

We've received a request to recover your password. Use the link below to choose a new one:

[Reset password]({{.Link}})

The link expires in {{.ValidHours}} hours. If you didn't request a password recovery you can ignore this email.
`

const newAccountMD = `# {{.ProjectName}} - New Account

Welcome! An account was created for **{{.Username}}**.

Your password is **{{.Password}}**. Sign in at [{{.Link}}]({{.Link}}) and change it from your settings page.
`

var markdown = goldmark.New()

var layout = template.Must(template.New("layout").Parse(layoutTpl))

// Email is a rendered email ready to send.
type Email struct {
	Subject string
	HTML    string
}

// TemplateData carries the values the email templates interpolate.
type TemplateData struct {
	ProjectName string
	Email       string
	Username    string
	Password    string
	Link        string
	ValidHours  int
}

// RenderTestEmail renders the message sent by the test-email endpoint.
func RenderTestEmail(data TemplateData) (Email, error) {
	return render(fmt.Sprintf("%s - Test email", data.ProjectName), testEmailMD, data)
}

// RenderResetPassword renders the password recovery email.
func RenderResetPassword(data TemplateData) (Email, error) {
	return render(fmt.Sprintf("%s - Password recovery for user %s", data.ProjectName, data.Username), resetPasswordMD, data)
}

// RenderNewAccount renders the welcome email for admin-created accounts.
func RenderNewAccount(data TemplateData) (Email, error) {
	return render(fmt.Sprintf("%s - New account for user %s", data.ProjectName, data.Username), newAccountMD, data)
}

func render(subject, source string, data TemplateData) (Email, error) {
	tpl, err := texttemplate.New("body").Parse(source)
	if err != nil {
		return Email{}, err
	}
	var md bytes.Buffer
	if err := tpl.Execute(&md, data); err != nil {
		return Email{}, err
	}

	var body bytes.Buffer
	if err := markdown.Convert(md.Bytes(), &body); err != nil {
		return Email{}, fmt.Errorf("render markdown: %w", err)
	}

	var out bytes.Buffer
	err = layout.Execute(&out, map[string]interface{}{
		"Subject":     subject,
		"Body":        template.HTML(body.String()),
		"Year":        time.Now().Year(),
		"ProjectName": data.ProjectName,
	})
	if err != nil {
		return Email{}, err
	}
	return Email{Subject: subject, HTML: out.String()}, nil
}
