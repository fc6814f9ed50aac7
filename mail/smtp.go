package mail

import (
	"context"

	gomail "github.com/wneessen/go-mail"

	"github.com/user/redditclone-go/apperror"
	"github.com/user/redditclone-go/config"
)

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	client *gomail.Client
	from   string
}

// NewSMTPSender configures a client for cfg. No connection is made until the first Send.
func NewSMTPSender(cfg *config.MailConfig) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, apperror.NewConfigError("invalid SMTP configuration", err)
	}
	return &SMTPSender{client: client, from: cfg.From}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		return apperror.NewConfigError("invalid sender address", err)
	}
	if err := m.To(msg.To); err != nil {
		return apperror.NewValidationError("invalid recipient address", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return apperror.NewExternalServiceError("failed to send email", err)
	}
	return nil
}
