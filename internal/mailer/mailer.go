// Package mailer dispatches the refund summary over SES.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/AnitBishwas/swiss-event-handler/internal/serviceerrs"
)

const charsetUTF8 = "UTF-8"

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput,
		optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SES struct {
	client sesAPI
	source string
	to     []string
	cc     []string
	log    *slog.Logger
}

func NewSES(ctx context.Context, region, source string, to, cc []string, log *slog.Logger) (*SES, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SES{
		client: sesv2.NewFromConfig(awsCfg),
		source: source,
		to:     to,
		cc:     cc,
		log:    log,
	}, nil
}

func (m *SES) Send(ctx context.Context, subject, htmlBody string) error {
	if htmlBody == "" {
		return serviceerrs.ErrEmptyContent
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.source),
		Destination: &types.Destination{
			ToAddresses: m.to,
			CcAddresses: m.cc,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String(charsetUTF8),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String(charsetUTF8),
					},
				},
			},
		},
	}
	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
