package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

const resendRequestTimeout = 10 * time.Second

type ResendEmailSender struct {
	From   string
	client *resend.Client
}

// NewResendEmailSender returns a sender that fails every Send when the API
// key or sender address is missing.
func NewResendEmailSender(apiKey string, from string) *ResendEmailSender {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from) == "" {
		return &ResendEmailSender{}
	}
	httpClient := &http.Client{Timeout: resendRequestTimeout}
	return &ResendEmailSender{
		From:   from,
		client: resend.NewCustomClient(httpClient, apiKey),
	}
}

func (s *ResendEmailSender) Configured() bool {
	return s.client != nil
}

// Send is bounded by ctx and by the client's request timeout, whichever
// ends first.
func (s *ResendEmailSender) Send(ctx context.Context, email Email) error {
	if s.client == nil {
		return ErrEmailSenderNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.From,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	})
	return err
}
