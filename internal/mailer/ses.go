package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the subset of the SES client used to send mail.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESTransport sends mail through Amazon SES.
type SESTransport struct {
	client SESAPI
	from   string
	logger *slog.Logger
}

func NewSESTransport(ctx context.Context, region, from string, logger *slog.Logger) (*SESTransport, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return NewSESTransportWithClient(ses.NewFromConfig(cfg), from, logger), nil
}

func NewSESTransportWithClient(client SESAPI, from string, logger *slog.Logger) *SESTransport {
	return &SESTransport{client: client, from: from, logger: logger}
}

func (t *SESTransport) Name() string { return "ses" }

func (t *SESTransport) Send(ctx context.Context, msg Message) (Result, error) {
	out, err := t.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(t.from),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(msg.HTML),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("ses send: %w", err)
	}

	id := aws.ToString(out.MessageId)
	t.logger.Debug("email sent via ses", "message_id", id)
	return Result{MessageID: id}, nil
}
