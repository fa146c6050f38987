package notifier

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"

	mail "github.com/go-mail/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selfreg/internal/platform/config"
	"selfreg/internal/selfregister/models"
)

func testRegistration() *models.PendingRegistration {
	return &models.PendingRegistration{
		Identity: models.ResolvedIdentity{
			TenantDomain:    "acme.com",
			UserStoreDomain: "PRIMARY",
			Username:        "jane.doe@example.com",
		},
		RecoveryID:          "rec-123",
		NotificationChannel: models.ChannelInternal,
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSMTPNotifier_ComposesConfirmation(t *testing.T) {
	var sent *mail.Message
	n := NewSMTP(config.SMTPConfig{
		Host:            "smtp.example.com",
		Port:            587,
		From:            "no-reply@example.com",
		ConfirmationURL: "https://id.example.com/confirm",
	}, discard(), WithSendFunc(func(m *mail.Message) error {
		sent = m
		return nil
	}))

	require.NoError(t, n.SendConfirmation(context.Background(), testRegistration()))
	require.NotNil(t, sent)

	assert.Equal(t, []string{"no-reply@example.com"}, sent.GetHeader("From"))
	assert.Equal(t, []string{confirmationSubject}, sent.GetHeader("Subject"))
	require.Len(t, sent.GetHeader("To"), 1)
	assert.Contains(t, sent.GetHeader("To")[0], "jane.doe@example.com")
	assert.Contains(t, sent.GetHeader("To")[0], "Jane Doe")

	var raw bytes.Buffer
	_, err := sent.WriteTo(&raw)
	require.NoError(t, err)
	// bodies are quoted-printable, so only match the values
	assert.Contains(t, raw.String(), "rec-123")
	assert.Contains(t, raw.String(), "acme.com")
}

func TestSMTPNotifier_SendFailure(t *testing.T) {
	n := NewSMTP(config.SMTPConfig{Host: "smtp.example.com", ConfirmationURL: "https://x/confirm?lang=en"}, discard(),
		WithSendFunc(func(*mail.Message) error { return errors.New("relay refused") }))

	err := n.SendConfirmation(context.Background(), testRegistration())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay refused")
}

func TestSMTPNotifier_DefaultDialerReportsRelayErrors(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	n := NewSMTP(config.SMTPConfig{
		Host:            "127.0.0.1",
		Port:            port,
		From:            "no-reply@example.com",
		ConfirmationURL: "https://id.example.com/confirm",
	}, discard())

	err = n.SendConfirmation(context.Background(), testRegistration())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp send")
}

func TestSMTPNotifier_CancelledContext(t *testing.T) {
	called := false
	n := NewSMTP(config.SMTPConfig{}, discard(), WithSendFunc(func(*mail.Message) error {
		called = true
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, n.SendConfirmation(ctx, testRegistration()), context.Canceled)
	assert.False(t, called)
}

func TestConfirmationLinkKeepsExistingQuery(t *testing.T) {
	n := NewSMTP(config.SMTPConfig{ConfirmationURL: "https://x/confirm?lang=en"}, discard())
	assert.Equal(t, "https://x/confirm?lang=en&code=rec-123&tenant=acme.com", n.confirmationLink(testRegistration()))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLog(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, n.SendConfirmation(context.Background(), testRegistration()))
	assert.Contains(t, buf.String(), "smtp not configured")
	assert.NotContains(t, buf.String(), "rec-123")
}
