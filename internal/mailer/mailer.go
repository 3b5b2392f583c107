// Package mailer sends HTML email with optional binary attachments over SMTP.
package mailer

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"

	mail "gopkg.in/mail.v2"
)

// Attachment is a binary file attached to an outgoing message.
type Attachment struct {
	Filename string
	Content  []byte
}

// Mailer delivers one message per call. Implementations must bound delivery
// time so callers iterating over recipients are never blocked indefinitely.
type Mailer interface {
	Send(to, subject, htmlBody string, attachment *Attachment) error
}

// SMTP is the production Mailer. The dial/send timeout keeps a slow SMTP
// server from stalling the monthly report loop.
type SMTP struct {
	dialer *mail.Dialer
	from   string
}

// NewSMTP builds an SMTP mailer. port is a decimal string as it arrives from
// the environment.
func NewSMTP(host, port, username, password, from string) (*SMTP, error) {
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP port %q: %w", port, err)
	}
	dialer := mail.NewDialer(host, p, username, password)
	dialer.Timeout = 30 * time.Second
	return &SMTP{dialer: dialer, from: from}, nil
}

func (s *SMTP) Send(to, subject, htmlBody string, attachment *Attachment) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	if attachment != nil {
		msg.Attach(attachment.Filename, mail.SetCopyFunc(func(w io.Writer) error {
			_, err := io.Copy(w, bytes.NewReader(attachment.Content))
			return err
		}))
	}

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}
