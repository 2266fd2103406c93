// Package auth applies authentication to outgoing release-host requests.
package auth

import (
	"net/http"
	"os"
	"strings"
)

// Authenticator applies authentication to an HTTP request.
type Authenticator interface {
	Apply(req *http.Request) error
	Type() Type
}

// Type represents the type of authentication.
type Type string

// Authentication types.
const (
	// BearerAuthType represents Bearer token authentication.
	BearerAuthType Type = "bearer"
)

// DefaultTrustedSuffix is the host suffix bearer tokens are sent to when no
// explicit suffix is configured.
const DefaultTrustedSuffix = "github.com"

// HostScopedBearer sends a bearer token, but only to hosts under a trusted
// suffix. Requests to any other host (mirrors, test fixtures) go out without
// credentials so a token can never leak to a third party.
type HostScopedBearer struct {
	Token string
	// TrustedSuffix defaults to DefaultTrustedSuffix when empty.
	TrustedSuffix string
}

// Apply adds the Authorization header when the request host is trusted.
func (b HostScopedBearer) Apply(req *http.Request) error {
	if b.Token == "" {
		return nil
	}
	suffix := b.TrustedSuffix
	if suffix == "" {
		suffix = DefaultTrustedSuffix
	}
	if strings.HasSuffix(req.URL.Hostname(), suffix) {
		req.Header.Set("Authorization", "Bearer "+b.Token)
	}
	return nil
}

// Type returns the authentication type (BearerAuthType).
func (b HostScopedBearer) Type() Type { return BearerAuthType }

// FromEnv builds an Authenticator from the environment. MODDEXUP_GITHUB_TOKEN
// takes precedence over GITHUB_TOKEN; with neither set, nil is returned and
// requests go out unauthenticated.
func FromEnv() Authenticator {
	token := strings.TrimSpace(os.Getenv("MODDEXUP_GITHUB_TOKEN"))
	if token == "" {
		token = strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
	}
	if token == "" {
		return nil
	}
	return HostScopedBearer{Token: token}
}
