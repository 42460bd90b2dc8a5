package mail

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"
)

// ResetPasswordSubject is the subject line of password reset messages.
const ResetPasswordSubject = "[Microblog] Reset Your Password"

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl"))
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl"))
)

type resetPasswordData struct {
	Username  string
	Link      string
	ExpiresIn string
}

// ResetPasswordMessage renders the reset email for username. The link points
// at baseURL/reset_password/<token>.
func ResetPasswordMessage(sender, recipient, username, baseURL, token string, expiresIn time.Duration) (Message, error) {
	data := resetPasswordData{
		Username:  username,
		Link:      strings.TrimRight(baseURL, "/") + "/reset_password/" + url.PathEscape(token),
		ExpiresIn: expiresIn.Round(time.Second).String(),
	}

	var text, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, "reset_password.txt.tmpl", data); err != nil {
		return Message{}, err
	}
	if err := htmlTemplates.ExecuteTemplate(&html, "reset_password.html.tmpl", data); err != nil {
		return Message{}, err
	}

	return Message{
		Subject:    ResetPasswordSubject,
		Sender:     sender,
		Recipients: []string{recipient},
		TextBody:   text.String(),
		HTMLBody:   html.String(),
	}, nil
}
