package config

import (
	"time"

	"main/utils"
)

// AuthConfig carries the tunables of the session and lockout layer.
// Defaults match the HIPAA policy the service ships with.
type AuthConfig struct {
	// IdleTimeout is the maximum gap between authenticated requests
	// before the session is rejected with a session-timeout error.
	IdleTimeout time.Duration
	// AbsoluteTTL is the hard lifetime of a session from login.
	AbsoluteTTL time.Duration
	// LockoutThreshold is the number of consecutive failed logins
	// that locks the account.
	LockoutThreshold int
	// PermissionsCacheTTL bounds how long a resolved permission set
	// may be served without re-querying.
	PermissionsCacheTTL time.Duration
	// PasswordMaxAge drives the advisory passwordExpired flag on
	// login responses. Expired passwords never block login.
	PasswordMaxAge time.Duration
}

func LoadAuthConfig() AuthConfig {
	return AuthConfig{
		IdleTimeout:         utils.GetEnvAsDuration("SESSION_IDLE_TIMEOUT", 15*time.Minute),
		AbsoluteTTL:         utils.GetEnvAsDuration("SESSION_ABSOLUTE_TTL", 15*time.Minute),
		LockoutThreshold:    utils.GetEnvAsInt("LOCKOUT_THRESHOLD", 5),
		PermissionsCacheTTL: utils.GetEnvAsDuration("PERMISSIONS_CACHE_TTL", 5*time.Minute),
		PasswordMaxAge:      utils.GetEnvAsDuration("PASSWORD_MAX_AGE", 90*24*time.Hour),
	}
}
