package email

import (
	"context"
	"fmt"
	"net/smtp"

	"edm-backend/internal/config"
	"edm-backend/pkg/logger"

	"go.uber.org/zap"
)

// Sender delivers outgoing mail. Delivery failures are the caller's problem
// to log; senders never retry.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends through a plain SMTP relay.
type SMTPSender struct {
	host string
	port string
	from string
}

func NewSMTPSender(host, port, from string) *SMTPSender {
	return &SMTPSender{host: host, port: port, from: from}
}

func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.from, to, subject, body)
	return smtp.SendMail(s.host+":"+s.port, nil, s.from, []string{to}, []byte(msg))
}

// LogSender only logs the mail. Used in development and tests.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, subject, _ string) error {
	logger.L.Info("email suppressed (no SMTP configured)",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}

// NewFromConfig picks the SMTP sender when a host is configured, otherwise
// the logging sender.
func NewFromConfig() Sender {
	cfg := config.AppConfig
	if cfg.SMTPHost == "" {
		return LogSender{}
	}
	return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
}
