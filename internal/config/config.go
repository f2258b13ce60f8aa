// Package config defines the application configuration and how it is loaded.
//
// Configuration is layered, later sources overriding earlier ones:
//
//  1. Built-in defaults (Default)
//  2. An optional YAML file
//  3. Environment variables prefixed with SNIPPETS_
//
// Environment variable names map onto keys by stripping the prefix,
// lower-casing, and turning a double underscore into a section separator:
//
//	SNIPPETS_SERVER__PORT=9000            → server.port
//	SNIPPETS_AUTH__JWT_SECRET=...         → auth.jwt_secret
//	SNIPPETS_AUTH__GITHUB__CLIENT_ID=...  → auth.github.client_id
package config

import (
	"time"
)

// Default configuration values.
const (
	DefaultPort            = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultDBPath = "data/snippets.db"

	// Two weeks, the conventional lifetime of a browser login session.
	DefaultSessionTTL = 14 * 24 * time.Hour
	DefaultLoginURL   = "/accounts/login/"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultSiteTitle = "Goスニペット"
	DefaultLocale    = "ja"
)

// Config is the root configuration object.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
	Site     SiteConfig     `koanf:"site"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig selects the storage backend.
// Path is used by the sqlite driver, DSN by the postgres driver.
type DatabaseConfig struct {
	Driver string `koanf:"driver"`
	Path   string `koanf:"path"`
	DSN    string `koanf:"dsn"`
}

type AuthConfig struct {
	JWTSecret    string        `koanf:"jwt_secret"`
	SessionTTL   time.Duration `koanf:"session_ttl"`
	LoginURL     string        `koanf:"login_url"`
	CookieSecure bool          `koanf:"cookie_secure"`
	GitHub       GitHubConfig  `koanf:"github"`
}

// GitHubConfig enables the GitHub OAuth login when ClientID is set.
type GitHubConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	CallbackURL  string `koanf:"callback_url"`
}

// Enabled reports whether GitHub login routes should be registered.
func (g GitHubConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// SiteConfig holds presentation settings shared by every page.
type SiteConfig struct {
	Title  string `koanf:"title"`
	Locale string `koanf:"locale"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Default returns the configuration used when no file or environment
// variable overrides a key.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   DefaultDBPath,
		},
		Auth: AuthConfig{
			SessionTTL: DefaultSessionTTL,
			LoginURL:   DefaultLoginURL,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Site: SiteConfig{
			Title:  DefaultSiteTitle,
			Locale: DefaultLocale,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}
