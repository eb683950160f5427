package config

import (
	"strings"
	"time"
)

// LedgerConfig contains configuration for the external accounting API client.
type LedgerConfig struct {
	// BaseURL is the accounting API base URL.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:9090"`

	// TokenURL is the OAuth2 client-credentials token endpoint.
	TokenURL string `env:"TOKEN_URL"`

	// ClientID is the OAuth2 client id.
	ClientID string `env:"CLIENT_ID"`

	// ClientSecret is the OAuth2 client secret.
	ClientSecret string `env:"CLIENT_SECRET"`

	// Scopes are the OAuth2 scopes requested for submissions.
	Scopes []string `env:"SCOPES" envSeparator:"," envDefault:"timesheets:write"`

	// Timeout is the per-request timeout against the accounting API.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

// Sanitize normalises ledger configuration values.
func (l *LedgerConfig) Sanitize() {
	l.BaseURL = strings.TrimRight(strings.TrimSpace(l.BaseURL), "/")
	l.TokenURL = strings.TrimSpace(l.TokenURL)
	if l.Timeout <= 0 {
		l.Timeout = 15 * time.Second
	}
}

// Configured reports whether live submissions are possible. Without
// credentials only dry-run migrations can be served.
func (l *LedgerConfig) Configured() bool {
	return l.BaseURL != "" && l.TokenURL != "" && l.ClientID != "" && l.ClientSecret != ""
}
