package config

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/docket-labs/docket/pkg/service/auth"
)

// Auth holds CLI flags for bearer token authentication
type Auth struct {
	jwtSecret string
	jwtIssuer string
	tokenTTL  time.Duration
}

// Flags returns CLI flags for authentication configuration
func (a *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "HMAC secret for bearer token verification (32+ characters)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("DOCKET_JWT_SECRET"),
			Destination: &a.jwtSecret,
		},
		&cli.StringFlag{
			Name:        "jwt-issuer",
			Usage:       "Expected token issuer",
			Category:    "Authentication",
			Value:       "docket",
			Sources:     cli.EnvVars("DOCKET_JWT_ISSUER"),
			Destination: &a.jwtIssuer,
		},
		&cli.DurationFlag{
			Name:        "token-ttl",
			Usage:       "Lifetime of issued tokens",
			Category:    "Authentication",
			Value:       24 * time.Hour,
			Sources:     cli.EnvVars("DOCKET_TOKEN_TTL"),
			Destination: &a.tokenTTL,
		},
	}
}

// IsConfigured reports whether a token secret was provided
func (a *Auth) IsConfigured() bool {
	return a.jwtSecret != ""
}

// Configure builds the token verifier from the flags
func (a *Auth) Configure() (*auth.Verifier, error) {
	if a.jwtSecret == "" {
		return nil, goerr.New("jwt-secret is required")
	}
	if len(a.jwtSecret) < 32 {
		return nil, goerr.New("jwt-secret must be at least 32 characters")
	}

	return auth.NewVerifier(a.jwtSecret, a.jwtIssuer, a.tokenTTL), nil
}
