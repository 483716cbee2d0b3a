package utils

import (
	"fmt"
	"html"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"pg-backend/models"
)

// SMTPConfig holds the outgoing mail settings. An incomplete config makes
// the mailer log instead of sending.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	FromName string
}

func (c SMTPConfig) complete() bool {
	return c.Host != "" && c.Port != "" && c.Username != "" && c.Password != ""
}

// ReminderMailer sends rent reminders over SMTP.
type ReminderMailer struct {
	cfg  SMTPConfig
	log  *zap.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewReminderMailer(cfg SMTPConfig, log *zap.Logger) *ReminderMailer {
	return &ReminderMailer{cfg: cfg, log: log, send: smtp.SendMail}
}

// SendPaymentReminder emails a rent reminder for month to a guest.
func (m *ReminderMailer) SendPaymentReminder(to, name string, month models.Month, amount int64) error {
	if !m.cfg.complete() {
		m.log.Info("[MOCK EMAIL] payment reminder",
			zap.String("to", MaskEmail(to)), zap.String("month", month.String()), zap.Int64("amount", amount))
		return nil
	}

	msg := BuildReminderMessage(m.cfg, to, name, month, amount)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.Username, []string{to}, msg); err != nil {
		m.log.Error("failed to send reminder email", zap.String("to", MaskEmail(to)), zap.Error(err))
		return err
	}
	m.log.Info("reminder email sent", zap.String("to", MaskEmail(to)), zap.String("month", month.String()))
	return nil
}

// BuildReminderMessage renders the multipart reminder mail.
func BuildReminderMessage(cfg SMTPConfig, to, name string, month models.Month, amount int64) []byte {
	safe := func(s string) string {
		return strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(s), "\r", " "), "\n", " ")
	}
	name = safe(name)
	to = safe(to)

	fromName := cfg.FromName
	if fromName == "" {
		fromName = "PG Management"
	}
	from := fmt.Sprintf("%s <%s>", safe(fromName), cfg.Username)
	subject := fmt.Sprintf("Rent reminder for %s", monthLabel(month))
	boundary := "----=_REMINDER_EMAIL_BOUNDARY"

	plainBody := fmt.Sprintf(
		"Hi %s,\n\n"+
			"This is a reminder that your rent of %s for %s is due.\n"+
			"Please ignore this mail if you have already paid.\n",
		name, FormatRupees(amount), monthLabel(month),
	)
	htmlBody := fmt.Sprintf(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Rent reminder</title></head>
<body style="background:#f5f7fb;font-family:Arial, Helvetica, sans-serif;color:#222;">
<div style="max-width:640px;margin:20px auto;background:#fff;border:1px solid #e6eef6;padding:24px;border-radius:8px;">
  <p>Hi %s,</p>
  <p>This is a reminder that your rent of <strong>%s</strong> for <strong>%s</strong> is due.</p>
  <p>Please ignore this mail if you have already paid.</p>
</div>
</body>
</html>`, html.EscapeString(name), FormatRupees(amount), monthLabel(month))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary))

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(plainBody + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	sb.WriteString(htmlBody + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return []byte(sb.String())
}

// FormatRupees formats amount with Indian digit grouping, e.g. ₹1,25,000.
func FormatRupees(amount int64) string {
	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}
	s := strconv.FormatInt(amount, 10)
	if len(s) > 3 {
		head, tail := s[:len(s)-3], s[len(s)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		groups = append([]string{head}, groups...)
		s = strings.Join(groups, ",") + "," + tail
	}
	return sign + "₹" + s
}

func monthLabel(m models.Month) string {
	t := m.Time()
	if t.IsZero() {
		return m.String()
	}
	return t.Format("January 2006")
}
