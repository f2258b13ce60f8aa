package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix shared by every environment variable the loader reads.
const EnvPrefix = "SNIPPETS_"

// Load builds a Config from the defaults, the YAML file at path (skipped when
// path is empty), and the environment, then validates the result.
func Load(path string) (*Config, error) {
	cfg, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUnchecked is Load without Validate. Callers validate the sections
// they use.
func LoadUnchecked(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: loading file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}

	// Unmarshal on top of the defaults: mapstructure leaves fields that have
	// no matching key untouched.
	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	return cfg, nil
}

// envKey maps SNIPPETS_AUTH__JWT_SECRET to auth.jwt_secret.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}
