package smtp

import (
	"context"
	"fmt"
	smtpPkg "net/smtp"
	"strings"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type ItfSmtp interface {
	SendMail(ctx context.Context, to string, subject string, body string) error
}

type sendFunc func(addr string, a smtpPkg.Auth, from string, to []string, msg []byte) error

type smtp struct {
	addr string
	auth smtpPkg.Auth
	from string
	send sendFunc
}

func New(cfg Config) ItfSmtp {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return &smtp{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: smtpPkg.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
		from: from,
		send: smtpPkg.SendMail,
	}
}

func (s *smtp) SendMail(ctx context.Context, to string, subject string, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.send(s.addr, s.auth, s.from, []string{to}, buildMessage(s.from, to, subject, body)); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + sanitizeHeader(subject) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(sb.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
