package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/oggyb/nearmatch/internal/db"
)

// Extra is the structured part of a push: the notification type and its
// JSON payload.
type Extra struct {
	Type db.NotificationType `json:"type"`
	Data json.RawMessage     `json:"data,omitempty"`
}

// Pusher delivers a message to every device of a user.
type Pusher interface {
	Deliver(ctx context.Context, userID uint64, message string, sound *string, extra Extra) error
	// RegisterEndpoint turns a device token into a provider endpoint id.
	RegisterEndpoint(ctx context.Context, platform, token string) (string, error)
}

// Dispatch forwards stored notifications to the pusher.
// Failures are logged and dropped; the stored rows are the source of truth.
func Dispatch(ctx context.Context, p Pusher, logger *slog.Logger, notifications []db.Notification) {
	for _, n := range notifications {
		err := p.Deliver(ctx, n.UserID, n.Message, n.Sound, Extra{
			Type: n.Type,
			Data: json.RawMessage(n.Data),
		})
		if err != nil {
			logger.Warn("push delivery failed",
				"user_id", n.UserID,
				"notification_id", n.ID,
				"type", n.Type,
				"err", err,
			)
		}
	}
}

// LogPusher only logs. Used in development and when PUSH_BACKEND=log.
type LogPusher struct {
	Logger *slog.Logger
}

func (p *LogPusher) Deliver(_ context.Context, userID uint64, message string, sound *string, extra Extra) error {
	p.Logger.Info("push", "user_id", userID, "type", extra.Type, "message", message, "sound", sound != nil)
	return nil
}

func (p *LogPusher) RegisterEndpoint(_ context.Context, platform, _ string) (string, error) {
	p.Logger.Debug("register endpoint", "platform", platform)
	return "", nil
}
