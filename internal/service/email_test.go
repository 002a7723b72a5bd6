package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwilder2/diarydawn-backend/internal/util"
)

type recordingSender struct {
	to      string
	subject string
	body    string
	isHTML  bool
}

func (s *recordingSender) Send(_ context.Context, to, subject, body string, isHTML bool) error {
	s.to = to
	s.subject = subject
	s.body = body
	s.isHTML = isHTML
	return nil
}

func TestSendPasswordRecoveryEmail(t *testing.T) {
	sender := &recordingSender{}
	svc := NewEmailService(sender, &util.EmailConfig{BaseURL: "https://diarydawn.example"})

	require.NoError(t, svc.SendPasswordRecoveryEmail(context.Background(), "user@example.com", "reset-jwt"))

	assert.Equal(t, "user@example.com", sender.to)
	assert.Equal(t, "Password Recovery Instructions", sender.subject)
	assert.Contains(t, sender.body, "https://diarydawn.example/reset-password?token=reset-jwt")
	assert.True(t, sender.isHTML)
}

func TestEmailServiceSend(t *testing.T) {
	sender := &recordingSender{}
	svc := NewEmailService(sender, &util.EmailConfig{})

	require.NoError(t, svc.Send(context.Background(), "user@example.com", "Hello", "plain text", false))
	assert.Equal(t, "Hello", sender.subject)
	assert.Equal(t, "plain text", sender.body)
	assert.False(t, sender.isHTML)
}
