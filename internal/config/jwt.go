package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// JWTConfig holds the settings for verifying bearer tokens issued by the
// identity provider. Tokens are only minted locally by tests.
type JWTConfig struct {
	Secret string
	// Issuer and Audience, when set, must match the token's iss and aud claims.
	Issuer   string
	Audience string
	// Leeway tolerates clock skew with the identity provider.
	Leeway          time.Duration
	ExpirationHours int
}

// NewJWTConfig reads JWT_SECRET (required), JWT_ISSUER, JWT_AUDIENCE,
// JWT_LEEWAY_SECONDS (default 0) and JWT_EXPIRATION_HOURS (default 24).
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	expirationHours, err := envInt("JWT_EXPIRATION_HOURS", 24)
	if err != nil {
		return nil, err
	}
	leewaySeconds, err := envInt("JWT_LEEWAY_SECONDS", 0)
	if err != nil {
		return nil, err
	}

	config := &JWTConfig{
		Secret:          secret,
		Issuer:          os.Getenv("JWT_ISSUER"),
		Audience:        os.Getenv("JWT_AUDIENCE"),
		Leeway:          time.Duration(leewaySeconds) * time.Second,
		ExpirationHours: expirationHours,
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// JWTEnabled reports whether bearer-token auth should be enforced.
func JWTEnabled() bool {
	return os.Getenv("JWT_SECRET") != ""
}

// Validate checks the values NewJWTConfig cannot default.
func (c *JWTConfig) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	if c.Leeway < 0 || c.Leeway > 5*time.Minute {
		return fmt.Errorf("JWT_LEEWAY_SECONDS must be between 0 and 300, got: %d", int(c.Leeway/time.Second))
	}
	return nil
}

func envInt(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", name, err)
	}
	return n, nil
}
