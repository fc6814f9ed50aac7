// Package mail composes and sends outgoing email.
package mail

import (
	"bytes"
	"context"
	"html/template"

	"github.com/user/redditclone-go/apperror"
	"github.com/user/redditclone-go/logging"
)

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var resetPasswordTmpl = template.Must(template.New("reset").Parse(
	`<p>Someone asked to reset the password for your account.</p>
<p><a href="{{.Link}}">Reset password</a></p>
<p>The link is valid for 24 hours. If you did not ask for this, ignore this email.</p>
`))

// ResetPasswordMessage builds the email carrying a password-reset link.
func ResetPasswordMessage(to, link string) (Message, error) {
	var buf bytes.Buffer
	if err := resetPasswordTmpl.Execute(&buf, struct{ Link string }{link}); err != nil {
		return Message{}, apperror.NewInternalError("failed to render reset password email", err)
	}
	return Message{
		To:      to,
		Subject: "Change password",
		HTML:    buf.String(),
	}, nil
}

// LogSender writes messages to the log instead of sending them.
// Used in development when no SMTP host is configured.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.log.Info(ctx, "email not sent, no SMTP host configured", "to", msg.To, "subject", msg.Subject, "body", msg.HTML)
	return nil
}
