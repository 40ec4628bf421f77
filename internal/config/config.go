package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		LogSQL   bool
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	Match struct {
		BoxDegrees       float64
		Freshness        time.Duration
		Expiry           time.Duration
		MinNumerical     int
		MinText          int
		LockTTL          time.Duration
		CooldownCacheTTL time.Duration
	}

	AWS struct {
		Region      string
		SESSender   string
		PushBackend string // "sns" | "log"
		SMSBackend  string // "sns" | "log"
		MailBackend string // "ses" | "log"
		APNSAppARN  string
		FCMAppARN   string
	}

	Verification struct {
		AllowedEmailDomains []string
	}

	Chat struct {
		Retention time.Duration
	}
}

func New() *Config {
	// .env is optional; real environment variables always win.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "nearmatch")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.LogSQL = isTruthy(os.Getenv("DB_LOG_SQL"))
	cfg.DB.DSN = os.Getenv("DB_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "nearmatch")

		switch cfg.DB.Driver {
		case "postgres":
			cfg.DB.Port = getEnvDefault("DB_PORT", "5432")
			cfg.DB.DSN = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
				cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port,
			)
		case "sqlite":
			cfg.DB.DSN = getEnvDefault("DB_PATH", "nearmatch.db")
		default:
			cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Matching
	cfg.Match.BoxDegrees = getEnvFloat("MATCH_BOX_DEGREES", 0.001)
	cfg.Match.Freshness = getEnvDuration("MATCH_FRESHNESS", 15*time.Minute)
	cfg.Match.Expiry = getEnvDuration("MATCH_EXPIRY", 24*time.Hour)
	cfg.Match.MinNumerical = getEnvInt("MATCH_MIN_NUMERICAL", 1)
	cfg.Match.MinText = getEnvInt("MATCH_MIN_TEXT", 1)
	cfg.Match.LockTTL = getEnvDuration("MATCH_LOCK_TTL", 10*time.Second)
	cfg.Match.CooldownCacheTTL = getEnvDuration("MATCH_COOLDOWN_CACHE_TTL", 5*time.Minute)

	// AWS collaborators
	cfg.AWS.Region = getEnvDefault("AWS_REGION", "us-west-2")
	cfg.AWS.SESSender = getEnvDefault("SES_SENDER", "no-reply@nearmatch.app")
	cfg.AWS.PushBackend = strings.ToLower(getEnvDefault("PUSH_BACKEND", "log"))
	cfg.AWS.SMSBackend = strings.ToLower(getEnvDefault("SMS_BACKEND", "log"))
	cfg.AWS.MailBackend = strings.ToLower(getEnvDefault("MAIL_BACKEND", "log"))
	cfg.AWS.APNSAppARN = os.Getenv("SNS_APNS_ARN")
	cfg.AWS.FCMAppARN = os.Getenv("SNS_FCM_ARN")

	// Verification
	cfg.Verification.AllowedEmailDomains = splitList(os.Getenv("ALLOWED_EMAIL_DOMAINS"))

	// Chat
	cfg.Chat.Retention = getEnvDuration("CHAT_RETENTION", 10*time.Minute)

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if n, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return n
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(getEnvDefault(k, ""), 64); err == nil {
		return f
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnvDefault(k, "")); err == nil && d > 0 {
		return d
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
