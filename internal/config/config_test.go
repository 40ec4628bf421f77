package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("MATCH_EXPIRY", "")
	t.Setenv("ALLOWED_EMAIL_DOMAINS", "")

	cfg := New()

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "@tcp(localhost:3306)/nearmatch")
	assert.Equal(t, 0.001, cfg.Match.BoxDegrees)
	assert.Equal(t, 15*time.Minute, cfg.Match.Freshness)
	assert.Equal(t, 24*time.Hour, cfg.Match.Expiry)
	assert.Equal(t, 1, cfg.Match.MinNumerical)
	assert.Equal(t, 1, cfg.Match.MinText)
	assert.Equal(t, 10*time.Minute, cfg.Chat.Retention)
	assert.Empty(t, cfg.Verification.AllowedEmailDomains)
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_DSN", "")
	t.Setenv("DB_HOST", "pg")
	t.Setenv("MATCH_EXPIRY", "48h")
	t.Setenv("MATCH_MIN_TEXT", "2")
	t.Setenv("ALLOWED_EMAIL_DOMAINS", " USC.edu, ,example.com")
	t.Setenv("LOG_SOURCE", "yes")

	cfg := New()

	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "host=pg")
	assert.Contains(t, cfg.DB.DSN, "port=5432")
	assert.Equal(t, 48*time.Hour, cfg.Match.Expiry)
	assert.Equal(t, 2, cfg.Match.MinText)
	assert.Equal(t, []string{"usc.edu", "example.com"}, cfg.Verification.AllowedEmailDomains)
	assert.True(t, cfg.Log.Source)
}

func TestNew_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("MATCH_BOX_DEGREES", "wide")
	t.Setenv("MATCH_FRESHNESS", "-5m")
	t.Setenv("REDIS_DB", "x")

	cfg := New()

	assert.Equal(t, 0.001, cfg.Match.BoxDegrees)
	assert.Equal(t, 15*time.Minute, cfg.Match.Freshness)
	assert.Equal(t, 0, cfg.Redis.DB)
}
