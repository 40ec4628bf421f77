package verify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Channel delivers a verification code to a destination (address or number).
type Channel interface {
	Send(ctx context.Context, destination, code string) error
}

// SESAPI is the subset of the SES client we call.
type SESAPI interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SMSAPI is the subset of the SNS client we call.
type SMSAPI interface {
	Publish(ctx context.Context, in *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

// SESChannel emails codes through Amazon SES.
type SESChannel struct {
	client SESAPI
	sender string
}

func NewSESChannel(client SESAPI, sender string) *SESChannel {
	return &SESChannel{client: client, sender: sender}
}

func (c *SESChannel) Send(ctx context.Context, email, code string) error {
	_, err := c.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{email},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String("here's your code")},
			Body: &sestypes.Body{
				Text: &sestypes.Content{
					Data: aws.String(fmt.Sprintf("your email verification code for nearmatch is %s", code)),
				},
			},
		},
		Source: aws.String(c.sender),
	})
	if err != nil {
		return fmt.Errorf("email send failed: %w", err)
	}
	return nil
}

// SMSChannel texts codes through SNS direct-to-phone publishing.
type SMSChannel struct {
	client SMSAPI
}

func NewSMSChannel(client SMSAPI) *SMSChannel {
	return &SMSChannel{client: client}
}

func (c *SMSChannel) Send(ctx context.Context, phone, code string) error {
	_, err := c.client.Publish(ctx, &awssns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(fmt.Sprintf("your code for nearmatch is %s", code)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sms send failed: %w", err)
	}
	return nil
}

// LogChannel writes codes to the log instead of sending them.
type LogChannel struct {
	Logger *slog.Logger
	Kind   string
}

func (c *LogChannel) Send(_ context.Context, destination, code string) error {
	c.Logger.Info("verification code", "channel", c.Kind, "destination", destination, "code", code)
	return nil
}
