// Package mailer sends the graded critique to the student as styled HTML email.
package mailer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"
)

// Config defines the mail relay settings.
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	SenderName string
}

// Message is one critique email to deliver.
type Message struct {
	To          string
	StudentName string
	Advice      string
}

// Mailer renders and delivers critique emails over SMTP submission.
type Mailer struct {
	dialer *gomail.Dialer
	cfg    Config
	logger zerolog.Logger
}

// New builds a mailer. STARTTLS is negotiated on the conventional submission
// port; implicit TLS is used when the relay is configured for port 465.
func New(cfg Config, logger zerolog.Logger) (*Mailer, error) {
	if cfg.Host == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("mail relay host and credentials are required")
	}

	if cfg.Port <= 0 {
		cfg.Port = 587
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.SSL = cfg.Port == 465

	return &Mailer{
		dialer: dialer,
		cfg:    cfg,
		logger: logger.With().Str("component", "mailer").Logger(),
	}, nil
}

// Send renders the critique and submits it to the relay. The context is
// honoured up-front only; gomail performs the SMTP exchange synchronously.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("recipient address is required")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	html, err := RenderHTML(msg.StudentName, msg.Advice)
	if err != nil {
		return fmt.Errorf("render email html: %w", err)
	}

	mail := gomail.NewMessage()
	mail.SetHeader("From", mail.FormatAddress(m.cfg.Username, m.cfg.SenderName))
	mail.SetHeader("To", msg.To)
	mail.SetHeader("Subject", fmt.Sprintf("【採点完了】%sさんの仮定法説明について", msg.StudentName))
	mail.SetBody("text/plain", RenderPlainText(msg.StudentName, msg.Advice))
	mail.AddAlternative("text/html", html)

	if err := m.dialer.DialAndSend(mail); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	m.logger.Debug().Str("to", msg.To).Msg("critique email sent")
	return nil
}
