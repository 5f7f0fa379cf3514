package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

// ModerationConfig carries the service-specific settings on top of the
// shared platform config.
type ModerationConfig struct {
	JWTSecret      []byte
	AccessTokenTTL time.Duration

	// Upstream comments API credentials (application password auth).
	RemoteBaseURL     string
	RemoteUsername    string
	RemoteAppPassword string

	// Single console operator account. The hash is a bcrypt hash.
	OperatorUser         string
	OperatorPasswordHash string

	// AutoSync refreshes a scope right after its session is created.
	AutoSync bool
}

func Load() (ModerationConfig, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return ModerationConfig{}, errors.New("JWT_SECRET is required")
	}

	baseURL := strings.TrimSpace(os.Getenv("REMOTE_BASE_URL"))
	if baseURL == "" {
		return ModerationConfig{}, errors.New("REMOTE_BASE_URL is required")
	}

	cfg := ModerationConfig{
		JWTSecret:            []byte(secret),
		AccessTokenTTL:       parseDurationWithDefault(os.Getenv("ACCESS_TOKEN_TTL"), 12*time.Hour),
		RemoteBaseURL:        baseURL,
		RemoteUsername:       strings.TrimSpace(os.Getenv("REMOTE_USERNAME")),
		RemoteAppPassword:    strings.TrimSpace(os.Getenv("REMOTE_APP_PASSWORD")),
		OperatorUser:         strings.TrimSpace(os.Getenv("OPERATOR_USER")),
		OperatorPasswordHash: strings.TrimSpace(os.Getenv("OPERATOR_PASSWORD_HASH")),
		AutoSync:             parseBool(os.Getenv("AUTO_SYNC"), true),
	}
	if cfg.OperatorUser == "" || cfg.OperatorPasswordHash == "" {
		return ModerationConfig{}, errors.New("OPERATOR_USER and OPERATOR_PASSWORD_HASH are required")
	}
	return cfg, nil
}

func parseDurationWithDefault(v string, def time.Duration) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func parseBool(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}
