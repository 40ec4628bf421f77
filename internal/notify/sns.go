package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/oggyb/nearmatch/internal/repository"
)

// SNSAPI is the subset of the SNS client used for mobile push.
type SNSAPI interface {
	Publish(ctx context.Context, in *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
	CreatePlatformEndpoint(ctx context.Context, in *awssns.CreatePlatformEndpointInput, optFns ...func(*awssns.Options)) (*awssns.CreatePlatformEndpointOutput, error)
}

// SNSPusher publishes to the SNS platform endpoints registered for a user.
type SNSPusher struct {
	client  SNSAPI
	devices *repository.DeviceRepository
	logger  *slog.Logger

	apnsAppARN string
	fcmAppARN  string
}

func NewSNSPusher(client SNSAPI, devices *repository.DeviceRepository, logger *slog.Logger, apnsAppARN, fcmAppARN string) *SNSPusher {
	return &SNSPusher{
		client:     client,
		devices:    devices,
		logger:     logger,
		apnsAppARN: apnsAppARN,
		fcmAppARN:  fcmAppARN,
	}
}

// Deliver publishes to every enabled endpoint of the user.
//
// Behavior:
//   - No devices → nothing to do, nil.
//   - Endpoints SNS reports as disabled are switched off locally.
//   - Remaining publish errors are joined and returned.
func (p *SNSPusher) Deliver(ctx context.Context, userID uint64, message string, sound *string, extra Extra) error {
	devices, err := p.devices.EnabledForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}
	if len(devices) == 0 {
		return nil
	}

	raw, err := envelope(message, sound, extra)
	if err != nil {
		return err
	}

	var errs []error
	for _, d := range devices {
		_, err := p.client.Publish(ctx, &awssns.PublishInput{
			MessageStructure: aws.String("json"),
			Message:          aws.String(raw),
			TargetArn:        aws.String(d.EndpointARN),
		})
		if err == nil {
			continue
		}
		var disabled *types.EndpointDisabledException
		if errors.As(err, &disabled) {
			p.logger.Info("disabling push endpoint", "device_id", d.ID, "user_id", userID)
			if derr := p.devices.Disable(ctx, d.ID); derr != nil {
				errs = append(errs, derr)
			}
			continue
		}
		errs = append(errs, fmt.Errorf("publish to device %d: %w", d.ID, err))
	}
	return errors.Join(errs...)
}

func (p *SNSPusher) RegisterEndpoint(ctx context.Context, platform, token string) (string, error) {
	var appARN string
	switch strings.ToLower(platform) {
	case "ios":
		appARN = p.apnsAppARN
	case "android":
		appARN = p.fcmAppARN
	default:
		return "", fmt.Errorf("unknown platform %q", platform)
	}
	if appARN == "" {
		return "", fmt.Errorf("no platform application configured for %s", platform)
	}

	out, err := p.client.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(appARN),
		Token:                  aws.String(token),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.EndpointArn), nil
}

// envelope builds the per-platform SNS message. APNS carries the alert and
// sound in "aps", FCM the same content as notification + data.
func envelope(message string, sound *string, extra Extra) (string, error) {
	aps := map[string]any{"alert": message}
	if sound != nil {
		aps["sound"] = *sound
	}
	apns, err := json.Marshal(map[string]any{
		"aps":  aps,
		"type": extra.Type,
		"data": extra.Data,
	})
	if err != nil {
		return "", err
	}

	gcm, err := json.Marshal(map[string]any{
		"notification": map[string]string{"body": message},
		"data": map[string]any{
			"type": extra.Type,
			"data": extra.Data,
		},
	})
	if err != nil {
		return "", err
	}

	raw, err := json.Marshal(map[string]string{
		"default":      message,
		"APNS":         string(apns),
		"APNS_SANDBOX": string(apns),
		"GCM":          string(gcm),
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
