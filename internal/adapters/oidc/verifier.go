// Package oidc verifies operator bearer tokens against an OIDC provider.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Verifier resolves control-plane actors from OIDC ID tokens. Every audited
// mutation records the actor it resolves.
type Verifier struct {
	verifier *gooidc.IDTokenVerifier
}

// VerifierConfig holds configuration for the OIDC verifier.
type VerifierConfig struct {
	IssuerURL  string
	ClientID   string
	HTTPClient *http.Client // Optional, defaults to a 30s-timeout client
}

// NewVerifier creates a verifier backed by the provider's published JWKS.
func NewVerifier(ctx context.Context, cfg VerifierConfig) (*Verifier, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(cfg.IssuerURL, "/")
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	return &Verifier{
		verifier: provider.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

type actorClaims struct {
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	Sub               string `json:"sub"`
}

// Actor verifies the raw bearer token and returns the identity to attribute
// audited actions to.
func (v *Verifier) Actor(ctx context.Context, rawToken string) (string, error) {
	if rawToken == "" {
		return "", errors.New("bearer token is required")
	}

	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}

	var claims actorClaims
	if err := idToken.Claims(&claims); err != nil {
		return "", fmt.Errorf("parse token claims: %w", err)
	}

	actor := firstNonEmpty(claims.PreferredUsername, claims.Email, claims.Sub)
	if actor == "" {
		return "", errors.New("token carries no usable identity claim")
	}
	return actor, nil
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
