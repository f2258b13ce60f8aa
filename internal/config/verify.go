package config

import (
	"errors"
	"fmt"
	"strings"
)

// MinJWTSecretLength mirrors the check in auth.NewTokenService so a bad
// secret is reported at startup rather than when the first user logs in.
const MinJWTSecretLength = 16

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d characters", MinJWTSecretLength))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth.session_ttl must be positive"))
	}
	if !strings.HasPrefix(c.Auth.LoginURL, "/") {
		errs = append(errs, fmt.Errorf("auth.login_url must be a local path, got %q", c.Auth.LoginURL))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Validate checks only the database section. The admin console needs no
// more than a reachable store, so it validates this alone.
func (d DatabaseConfig) Validate() error {
	switch d.Driver {
	case DriverSQLite:
		if d.Path == "" {
			return errors.New("database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if d.DSN == "" {
			return errors.New("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q",
			DriverSQLite, DriverPostgres, d.Driver)
	}
	return nil
}
