package notification

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/magabrotheeeer/farm-backend/internal/lib/sl"
	"github.com/magabrotheeeer/farm-backend/internal/lib/smtp"
)

// SMTPSender отправляет письма через SMTP сервер.
type SMTPSender struct {
	transport smtp.Dialer
	log       *slog.Logger
}

// NewSMTPSender создает новый экземпляр SMTPSender.
func NewSMTPSender(transport smtp.Dialer, log *slog.Logger) *SMTPSender {
	return &SMTPSender{transport: transport, log: log}
}

func buildMessage(from, to, subject, body string, date time.Time) string {
	return strings.Join([]string{
		"Date: " + date.Format(time.RFC1123Z),
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")
}

// Send отправляет одно письмо.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	const op = "notification.SMTPSender.Send"
	log := s.log.With(sl.Op(op), slog.String("to", to))
	from := s.transport.From()

	client, err := s.transport.Dial(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = client.Close() }()

	if err = client.Mail(from); err != nil {
		log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = client.Rcpt(to); err != nil {
		log.Error("failed to set RCPT TO", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	wc, err := client.Data()
	if err != nil {
		log.Error("failed to get Data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err = wc.Write([]byte(buildMessage(from, to, subject, body, time.Now()))); err != nil {
		_ = wc.Close()
		log.Error("failed to write email body", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = wc.Close(); err != nil {
		log.Error("failed to close Data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = client.Quit(); err != nil {
		log.Error("failed to quit SMTP client", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email sent successfully")
	return nil
}
