package app_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/nearmatch/internal/analytics"
	"github.com/oggyb/nearmatch/internal/app"
	"github.com/oggyb/nearmatch/internal/cache"
	"github.com/oggyb/nearmatch/internal/config"
	"github.com/oggyb/nearmatch/internal/db/dbtest"
	"github.com/oggyb/nearmatch/internal/logger"
	"github.com/oggyb/nearmatch/internal/notify"
	"github.com/oggyb/nearmatch/internal/verify"
)

func newConfig(push, sms, mail string) *config.Config {
	cfg := &config.Config{}
	cfg.AWS.Region = "us-west-2"
	cfg.AWS.SESSender = "no-reply@nearmatch.app"
	cfg.AWS.PushBackend = push
	cfg.AWS.SMSBackend = sms
	cfg.AWS.MailBackend = mail
	return cfg
}

func isolateAWS(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
}

func TestNew_DefaultsToLogCollaborators(t *testing.T) {
	a := app.New(nil, nil, logger.Discard(), newConfig("log", "log", "log"))

	assert.IsType(t, &notify.LogPusher{}, a.Pusher)
	assert.IsType(t, analytics.Nop{}, a.Tracker)
	assert.IsType(t, &verify.LogChannel{}, a.EmailChannel)
	now := a.Now()
	assert.Equal(t, now, now.Truncate(time.Millisecond))
}

func TestUseBackends_LogOnly(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := newConfig("log", "", "log")
	cfg.Redis.Addr = mr.Addr()
	a := app.New(nil, cache.NewRedisCache(cfg), logger.Discard(), cfg)

	require.NoError(t, a.UseBackends(context.Background()))
	assert.IsType(t, &notify.LogPusher{}, a.Pusher)
	assert.IsType(t, &verify.LogChannel{}, a.SMSChannel)
	assert.IsType(t, &analytics.RedisTracker{}, a.Tracker)
}

func TestUseBackends_AWS(t *testing.T) {
	isolateAWS(t)
	a := app.New(dbtest.Open(t), nil, logger.Discard(), newConfig("sns", "sns", "ses"))

	require.NoError(t, a.UseBackends(context.Background()))
	assert.IsType(t, &notify.SNSPusher{}, a.Pusher)
	assert.IsType(t, &verify.SMSChannel{}, a.SMSChannel)
	assert.IsType(t, &verify.SESChannel{}, a.EmailChannel)
	assert.IsType(t, analytics.Nop{}, a.Tracker)
}

func TestUseBackends_Unknown(t *testing.T) {
	a := app.New(nil, nil, logger.Discard(), newConfig("pigeon", "log", "log"))
	err := a.UseBackends(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PUSH_BACKEND")
}
