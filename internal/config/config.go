package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	ServerAddress  string
	JWTSecret      string
	RequestTimeout time.Duration

	// MongoURI selects MongoStore. When empty the in-memory store is used
	// and snapshotted under DataDir.
	MongoURI string
	MongoDB  string
	DataDir  string

	// RedisURL enables cross-instance live push.
	RedisURL string

	AllowedOrigins []string
	FrontendURL    string

	LogLevel  string
	LogFormat string

	SendGridAPIKey  string
	NotifyFromEmail string
	RecaptchaSecret string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DB", "stackit")
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("NOTIFY_FROM_EMAIL", "")
	v.SetDefault("RECAPTCHA_SECRET", "")
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ServerAddress:   v.GetString("SERVER_ADDRESS"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		MongoURI:        strings.TrimSpace(v.GetString("MONGO_URI")),
		MongoDB:         v.GetString("MONGO_DB"),
		DataDir:         v.GetString("DATA_DIR"),
		RedisURL:        strings.TrimSpace(v.GetString("REDIS_URL")),
		AllowedOrigins:  splitList(v.GetString("ALLOWED_ORIGINS")),
		FrontendURL:     strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		SendGridAPIKey:  strings.TrimSpace(v.GetString("SENDGRID_API_KEY")),
		NotifyFromEmail: strings.TrimSpace(v.GetString("NOTIFY_FROM_EMAIL")),
		RecaptchaSecret: strings.TrimSpace(v.GetString("RECAPTCHA_SECRET")),
	}

	timeout, err := time.ParseDuration(v.GetString("REQUEST_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", timeout)
	}
	cfg.RequestTimeout = timeout

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}
	if cfg.JWTSecret == defaultJWTSecret {
		slog.Warn("JWT_SECRET is the development default; set it in production")
	}
	return cfg, nil
}

// MailEnabled reports whether email copies of notifications can be sent.
func (c *Config) MailEnabled() bool {
	return c.SendGridAPIKey != "" && c.NotifyFromEmail != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
