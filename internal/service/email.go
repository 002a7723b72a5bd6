package service

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"go.uber.org/zap"

	"github.com/mwilder2/diarydawn-backend/internal/util"
)

// EmailSender delivers a single message out-of-band.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string, isHTML bool) error
}

type SESSender struct {
	client *ses.SES
	sender string
	log    *zap.SugaredLogger
}

func NewSESSender(cfg *util.EmailConfig, log *zap.SugaredLogger) (*SESSender, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.Region)})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return &SESSender{
		client: ses.New(sess),
		sender: cfg.Sender,
		log:    log,
	}, nil
}

func (s *SESSender) Send(ctx context.Context, to, subject, body string, isHTML bool) error {
	content := &ses.Body{}
	if isHTML {
		content.Html = &ses.Content{Data: aws.String(body)}
	} else {
		content.Text = &ses.Content{Data: aws.String(body)}
	}

	input := &ses.SendEmailInput{
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(to)},
		},
		Message: &ses.Message{
			Body:    content,
			Subject: &ses.Content{Data: aws.String(subject)},
		},
		Source: aws.String(s.sender),
	}

	if _, err := s.client.SendEmailWithContext(ctx, input); err != nil {
		s.log.Errorw("failed to send email", "to", to, "error", err)
		return fmt.Errorf("send email: %w", err)
	}
	s.log.Infow("email sent", "to", to, "subject", subject)
	return nil
}

// LogSender logs instead of sending, for development and tests.
type LogSender struct {
	log *zap.SugaredLogger
}

func NewLogSender(log *zap.SugaredLogger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, to, subject, body string, _ bool) error {
	s.log.Infow("email (dev mode, not sent)", "to", to, "subject", subject, "body", body)
	return nil
}

// EmailService renders the application's messages on top of a sender.
type EmailService struct {
	sender  EmailSender
	baseURL string
}

func NewEmailService(sender EmailSender, cfg *util.EmailConfig) *EmailService {
	return &EmailService{sender: sender, baseURL: cfg.BaseURL}
}

func (s *EmailService) Send(ctx context.Context, to, subject, body string, isHTML bool) error {
	return s.sender.Send(ctx, to, subject, body, isHTML)
}

func (s *EmailService) SendPasswordRecoveryEmail(ctx context.Context, to, resetToken string) error {
	subject := "Password Recovery Instructions"
	body := fmt.Sprintf(`
<p>You've initiated a password reset process. Please follow the link below to complete it:</p>
<p><a href="%s/reset-password?token=%s">Reset your password</a></p>
<p>The link expires in 30 minutes. If you did not request a reset, you can ignore this email.</p>`,
		s.baseURL, resetToken)
	return s.sender.Send(ctx, to, subject, body, true)
}
