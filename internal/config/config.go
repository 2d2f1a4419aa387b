package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path and returns the configuration with
// defaults applied. Secrets stay as references; see ResolveSecret.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes a YAML document into a Config, applies defaults and
// validates it.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "rpc-authd"
	}
	if cfg.Server.Bind.Port == 0 {
		cfg.Server.Bind.Port = 8000
	}
	if cfg.Auth.Realm == "" {
		cfg.Auth.Realm = "rpc"
	}
	if cfg.Auth.Backend == "" {
		cfg.Auth.Backend = "file"
	}
	if cfg.Radius.NASIdentifier == "" {
		cfg.Radius.NASIdentifier = cfg.Server.Name
	}
	if cfg.Radius.TimeoutSeconds <= 0 {
		cfg.Radius.TimeoutSeconds = 3
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "rpcauth:"
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "rpcauth_session"
	}
	if cfg.Session.TTLSeconds <= 0 {
		cfg.Session.TTLSeconds = 1800
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = cfg.Server.Name
	}
	if cfg.JWT.TTLSeconds <= 0 {
		cfg.JWT.TTLSeconds = 3600
	}
}

func (cfg *Config) validate() error {
	switch cfg.Auth.Backend {
	case "file":
		if cfg.Auth.UsersFile == "" {
			return errors.New("auth.users_file must be set for the file backend")
		}
	case "radius":
		if cfg.Radius.Server == "" {
			return errors.New("radius.server must be set for the radius backend")
		}
	default:
		return fmt.Errorf("auth.backend: unknown backend %q", cfg.Auth.Backend)
	}

	seen := make(map[string]bool, len(cfg.Methods))
	for i, m := range cfg.Methods {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("methods[%d]: name must be set", i)
		}
		if seen[m.Name] {
			return fmt.Errorf("methods[%d]: duplicate method %q", i, m.Name)
		}
		seen[m.Name] = true
	}
	return nil
}

// Addr returns the host:port the server listens on.
func (cfg *Config) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Server.Bind.Host, cfg.Server.Bind.Port)
}

// Resolve "env:XXX" to actual secret.
func ResolveSecret(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("empty secret_ref")
	}
	if strings.HasPrefix(ref, "env:") {
		key := strings.TrimPrefix(ref, "env:")
		v := os.Getenv(key)
		if v == "" {
			return "", fmt.Errorf("env %s is empty", key)
		}
		return v, nil
	}
	if strings.HasPrefix(ref, "file:") {
		b, err := os.ReadFile(strings.TrimPrefix(ref, "file:"))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	return ref, nil
}
