package mail

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	dommail "github.com/bryanwahyu/assessly/internal/domain/mail"
)

// SMTPSender delivers messages through a plain SMTP relay via gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send pushes one message out. gomail has no context support, so the
// ctx is only checked up front; delivery itself is fire and forget.
func (s *SMTPSender) Send(ctx context.Context, msg dommail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	for _, att := range msg.Attachments {
		att := att
		m.Attach(att.Name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(att.Bytes)
			return err
		}))
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}
