package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL string `env:"RABBITMQ_URL,required=true"`
	RedisURL    string `env:"REDIS_URL,required=true"`

	SMTPHost     string `env:"SMTP_HOST,required=true"`
	SMTPPort     int    `env:"SMTP_PORT,default=587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	MailboxHost     string `env:"MAILBOX_HOST"`
	MailboxPort     int    `env:"MAILBOX_PORT,default=995"`
	MailboxUsername string `env:"MAILBOX_USERNAME"`
	MailboxPassword string `env:"MAILBOX_PASSWORD"`
	MailboxTLS      bool   `env:"MAILBOX_TLS,default=true"`

	PublicBaseURL       string `env:"PUBLIC_BASE_URL,required=true"`
	FallbackRedirectURL string `env:"FALLBACK_REDIRECT_URL,default=https://www.google.com"`

	ReplyScanIntervalSeconds int `env:"REPLY_SCAN_INTERVAL_SECONDS,default=60"`
	ReplyLookbackHours       int `env:"REPLY_LOOKBACK_HOURS,default=24"`

	SendRatePerSec      int    `env:"SEND_RATE_PER_SEC,default=10"`
	DispatchConcurrency int    `env:"DISPATCH_CONCURRENCY,default=2"`
	APIPort             int    `env:"API_PORT,default=8080"`
	MetricsPort         int    `env:"METRICS_PORT,default=9090"`
	LogLevel            string `env:"LOG_LEVEL,default=info"`
}

func (c *Config) ReplyScanInterval() time.Duration {
	return time.Duration(c.ReplyScanIntervalSeconds) * time.Second
}

func (c *Config) ReplyLookback() time.Duration {
	return time.Duration(c.ReplyLookbackHours) * time.Hour
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
