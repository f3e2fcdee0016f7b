// Package mailer sends account emails such as password reset links.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/nano-social/backend/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"
)

// Mailer delivers password reset links
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// New returns an SES mailer when region is set and a logging mailer otherwise
func New(region, from string) (Mailer, error) {
	if region == "" {
		return LogMailer{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSESMailer(ses.NewFromConfig(cfg), from), nil
}

// LogMailer writes reset links to the log instead of sending them. Meant for
// development setups without a mail service.
type LogMailer struct{}

// SendPasswordReset logs the link
func (LogMailer) SendPasswordReset(_ context.Context, to, link string) error {
	logger.Log.Info("Password reset requested", zap.String("to", to), zap.String("link", link))
	return nil
}

// SendEmailAPI is the part of the SES client the mailer uses
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer sends mail through AWS SES
type SESMailer struct {
	client SendEmailAPI
	from   string
}

// NewSESMailer creates an SESMailer sending as from
func NewSESMailer(client SendEmailAPI, from string) *SESMailer {
	return &SESMailer{client: client, from: from}
}

// SendPasswordReset mails the reset link to the account owner
func (m *SESMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	input := &ses.SendEmailInput{
		Source:      aws.String(m.from),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: utf8("Password reset"),
			Body: &types.Body{
				Html: utf8(fmt.Sprintf(`<h3>You have requested a password reset</h3>
<p>Follow this <a href="%s">link</a> to reset your password</p>
<p>The link is only valid for an hour</p>`, link)),
				Text: utf8(fmt.Sprintf("You have requested a password reset.\n\nOpen %s to reset your password. The link is only valid for an hour.\n", link)),
			},
		},
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

func utf8(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}
