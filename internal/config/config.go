// Package config aggregates the service configuration from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/db"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/filesystem"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/logger"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/mailer/resend"
)

// HTTP configures the server itself.
type HTTP struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	FrontendURL     string        `env:"FRONTEND_URL"`
}

// Mail selects the notification provider. The zero value disables
// notifications entirely.
type Mail struct {
	Service string `env:"EMAIL_SENDER_SERVICE"`
	From    string `env:"EMAIL_SENDER_ADDRESS"`
	Resend  resend.Config
}

// Config is the full service configuration.
type Config struct {
	HTTP       HTTP
	DB         db.Config
	Filesystem filesystem.Config
	Sentry     logger.SentryConfig
	Mail       Mail

	// AppConfigPath points at the application catalog, either a local
	// file or an s3://bucket/key URI.
	AppConfigPath string `env:"APPLICATION_CONFIG_FILE" envDefault:"application_config.yaml"`

	// InternalAPIKey protects the worker-facing status update endpoint.
	InternalAPIKey string `env:"INTERNAL_API_KEY_SECRET"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}
