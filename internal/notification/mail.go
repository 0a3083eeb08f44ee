package notification

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// MailSink sends plain-text mail over SMTP.
type MailSink struct {
	client mailSender
	from   string
}

// NewMailSink dials lazily; nothing connects until the first delivery.
func NewMailSink(host string, port int, username, password, from string) (*MailSink, error) {
	opts := []mail.Option{mail.WithPort(port)}
	if username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	}
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &MailSink{client: client, from: from}, nil
}

func (s *MailSink) Deliver(ctx context.Context, to Recipient, msg Message) error {
	if to.Email == "" {
		return ErrNotAddressable
	}

	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("set mail sender: %w", err)
	}
	if err := m.To(to.Email); err != nil {
		return fmt.Errorf("set mail recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
