package app

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/nearmatch/internal/analytics"
	"github.com/oggyb/nearmatch/internal/cache"
	"github.com/oggyb/nearmatch/internal/config"
	"github.com/oggyb/nearmatch/internal/notify"
	"github.com/oggyb/nearmatch/internal/verify"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
// External collaborators (push, analytics, code delivery) are chosen at
// startup from config and injected here.
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Config     *config.Config

	Now          func() time.Time
	Pusher       notify.Pusher
	Tracker      analytics.Tracker
	EmailChannel verify.Channel
	SMSChannel   verify.Channel
}

// New creates a new AppContext with log-only collaborators and the wall
// clock at millisecond precision, which is what pagination cursors carry.
// Callers replace the collaborators they have real clients for.
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, cfg *config.Config) *AppContext {
	return &AppContext{
		DB:           db,
		RedisCache:   rdb,
		Logger:       logger,
		Config:       cfg,
		Now:          func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		Pusher:       &notify.LogPusher{Logger: logger},
		Tracker:      analytics.Nop{},
		EmailChannel: &verify.LogChannel{Logger: logger, Kind: "email"},
		SMSChannel:   &verify.LogChannel{Logger: logger, Kind: "sms"},
	}
}
