// Package config defines the environment-driven application configuration.
package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: API authentication configuration
//   - database.go: Database and Redis configuration
//   - http.go: HTTP server configuration
//   - ledger.go: Accounting system client configuration
//   - services.go: Service mode and worker configuration
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Authentication configuration
	Auth AuthConfig

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Accounting system client configuration
	Ledger LedgerConfig `envPrefix:"LEDGER_"`

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"http"`

	// Migration worker configuration
	Migration MigrationWorkerConfig

	// Queue dispatcher configuration
	QueueDispatcher QueueDispatcherConfig

	// Reaper configuration
	Reaper ReaperConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Ledger.Sanitize()
	c.Migration.Sanitize()
	c.QueueDispatcher.Sanitize()
	c.Reaper.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks both DEV and APP_ENV environment variables.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	return c.isServiceEnabled(ServiceModeHTTP)
}

// IsMigrationWorkerEnabled returns true if the migration worker service is enabled.
func (c *AppConfig) IsMigrationWorkerEnabled() bool {
	return c.isServiceEnabled(ServiceModeMigrationWorker)
}

// IsQueueDispatcherEnabled returns true if the queue dispatcher service is enabled.
func (c *AppConfig) IsQueueDispatcherEnabled() bool {
	return c.isServiceEnabled(ServiceModeQueueDispatcher)
}

// IsReaperEnabled returns true if the reaper service is enabled.
func (c *AppConfig) IsReaperEnabled() bool {
	return c.isServiceEnabled(ServiceModeReaper)
}

func (c *AppConfig) isServiceEnabled(mode ServiceMode) bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[mode]
}
