package utils

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFormatRupees(t *testing.T) {
	cases := map[int64]string{
		0:        "₹0",
		500:      "₹500",
		5000:     "₹5,000",
		125000:   "₹1,25,000",
		10000000: "₹1,00,00,000",
		-4500:    "-₹4,500",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatRupees(in), "amount %d", in)
	}
}

func TestReminderMailerMockWithoutSMTP(t *testing.T) {
	m := NewReminderMailer(SMTPConfig{}, zap.NewNop())
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called without SMTP settings")
		return nil
	}
	assert.NoError(t, m.SendPaymentReminder("asha@example.com", "Asha", "2024-03", 5000))
}

func TestReminderMailerSends(t *testing.T) {
	cfg := SMTPConfig{Host: "smtp.example.com", Port: "587", Username: "pg@example.com", Password: "secret", FromName: "Sunrise PG"}
	m := NewReminderMailer(cfg, zap.NewNop())

	var gotAddr string
	var gotTo []string
	var gotMsg string
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.Equal(t, "pg@example.com", from)
		return nil
	}

	require.NoError(t, m.SendPaymentReminder("asha@example.com", "Asha", "2024-03", 5000))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"asha@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Rent reminder for March 2024\r\n")
	assert.Contains(t, gotMsg, "From: Sunrise PG <pg@example.com>")
	assert.Contains(t, gotMsg, "₹5,000")
}

func TestReminderMailerSendError(t *testing.T) {
	cfg := SMTPConfig{Host: "h", Port: "25", Username: "u", Password: "p"}
	m := NewReminderMailer(cfg, zap.NewNop())
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("dial failed") }

	assert.EqualError(t, m.SendPaymentReminder("a@b.c", "A", "2024-03", 5000), "dial failed")
}

func TestBuildReminderMessageStripsHeaderInjection(t *testing.T) {
	msg := string(BuildReminderMessage(SMTPConfig{Username: "u@x"}, "a@b.c\r\nBcc: evil@x", "Asha", "2024-03", 5000))
	for _, line := range strings.Split(msg, "\r\n") {
		assert.False(t, strings.HasPrefix(line, "Bcc:"), "injected header line %q", line)
	}
}

func TestBuildReminderMessageEscapesHTMLName(t *testing.T) {
	msg := string(BuildReminderMessage(SMTPConfig{Username: "u@x"}, "a@b.c", `<b>Asha & "Co"</b>`, "2024-03", 5000))
	assert.Contains(t, msg, "<p>Hi &lt;b&gt;Asha &amp; &#34;Co&#34;&lt;/b&gt;,</p>")
	assert.NotContains(t, msg, "<p>Hi <b>")
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken(""))
}

func TestGenerateSecureToken(t *testing.T) {
	tok, err := GenerateSecureToken(16)
	require.NoError(t, err)
	assert.Len(t, tok, 32)

	_, err = GenerateSecureToken(0)
	assert.Error(t, err)
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a**a@example.com", MaskEmail("asha@example.com"))
	assert.Equal(t, "a*@x.io", MaskEmail("ab@x.io"))
	assert.Equal(t, "nope", MaskEmail("nope"))
}
