// Package mail provides MailSender implementations for the email node.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"

	"automation-platform/api/services/workflow"
)

// ResendSender delivers email through the Resend API.
type ResendSender struct {
	client      *resend.Client
	defaultFrom string
}

// ResendOption configures a ResendSender.
type ResendOption func(*ResendSender) error

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(raw string) ResendOption {
	return func(s *ResendSender) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse base url: %w", err)
		}
		s.client.BaseURL = u
		return nil
	}
}

// NewResendSender creates a sender for apiKey. defaultFrom is used when a
// message has no sender of its own.
func NewResendSender(apiKey, defaultFrom string, opts ...ResendOption) (*ResendSender, error) {
	if apiKey == "" {
		return nil, errors.New("resend api key is required")
	}

	s := &ResendSender{
		client:      resend.NewClient(apiKey),
		defaultFrom: defaultFrom,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *ResendSender) Send(ctx context.Context, msg workflow.MailMessage) (workflow.MailReceipt, error) {
	from := msg.From
	if from == "" {
		from = s.defaultFrom
	}
	if from == "" {
		return workflow.MailReceipt{}, errors.New("no sender address configured")
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      []string{msg.Recipient},
		Subject: msg.Subject,
	}
	if msg.HTML {
		req.Html = msg.Content
	} else {
		req.Text = msg.Content
	}

	resp, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return workflow.MailReceipt{}, fmt.Errorf("send email via resend: %w", err)
	}

	log.Debug().Str("message_id", resp.Id).Str("recipient", msg.Recipient).Msg("Email sent")
	return workflow.MailReceipt{MessageID: resp.Id}, nil
}
