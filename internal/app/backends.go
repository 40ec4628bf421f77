package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/oggyb/nearmatch/internal/analytics"
	"github.com/oggyb/nearmatch/internal/notify"
	"github.com/oggyb/nearmatch/internal/repository"
	"github.com/oggyb/nearmatch/internal/verify"
)

// UseBackends swaps the log-only collaborators for the ones selected in
// config: SNS push, SNS SMS, SES email and the Redis analytics stream.
//
// Behavior:
//   - AWS config is loaded only when some backend needs it.
//   - Unknown backend names are an error.
//   - Analytics go to Redis whenever a Redis cache is configured.
func (a *AppContext) UseBackends(ctx context.Context) error {
	cfg := a.Config.AWS

	checks := []struct{ name, value, remote string }{
		{"PUSH_BACKEND", cfg.PushBackend, "sns"},
		{"SMS_BACKEND", cfg.SMSBackend, "sns"},
		{"MAIL_BACKEND", cfg.MailBackend, "ses"},
	}
	needAWS := false
	for _, c := range checks {
		switch c.value {
		case "", "log":
		case c.remote:
			needAWS = true
		default:
			return fmt.Errorf("unsupported %s %q", c.name, c.value)
		}
	}

	if a.RedisCache != nil {
		a.Tracker = analytics.NewRedisTracker(a.RedisCache, a.Now)
	}
	if !needAWS {
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return fmt.Errorf("failed to load aws config: %w", err)
	}
	a.useAWS(awsCfg)
	return nil
}

func (a *AppContext) useAWS(awsCfg aws.Config) {
	cfg := a.Config.AWS

	var snsClient *awssns.Client
	if cfg.PushBackend == "sns" || cfg.SMSBackend == "sns" {
		snsClient = awssns.NewFromConfig(awsCfg)
	}
	if cfg.PushBackend == "sns" {
		a.Pusher = notify.NewSNSPusher(snsClient, repository.NewDeviceRepository(a.DB), a.Logger, cfg.APNSAppARN, cfg.FCMAppARN)
	}
	if cfg.SMSBackend == "sns" {
		a.SMSChannel = verify.NewSMSChannel(snsClient)
	}
	if cfg.MailBackend == "ses" {
		a.EmailChannel = verify.NewSESChannel(ses.NewFromConfig(awsCfg), cfg.SESSender)
	}
	a.Logger.Info("aws backends enabled",
		"region", awsCfg.Region,
		"push", cfg.PushBackend,
		"sms", cfg.SMSBackend,
		"mail", cfg.MailBackend,
	)
}
