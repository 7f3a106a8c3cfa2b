package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration in layers:
//  1. built-in defaults
//  2. <configDir>/base.yaml
//  3. <configDir>/<env>.yaml
//  4. ${VAR} placeholders substituted from <configDir>/secrets.env
//  5. system environment variables (highest priority)
//
// Missing files are skipped so the terminal client works without a config directory.
func LoadConfig(env string, configDir string) (*Config, error) {
	if configDir == "" {
		configDir = "config"
	}

	merged := map[string]any{}

	baseConfig, err := loadYAMLFile(filepath.Join(configDir, "base.yaml"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load base.yaml: %w", err)
	}
	merged = mergeMaps(merged, baseConfig)

	if env != "" && env != "base" {
		envConfig, err := loadYAMLFile(filepath.Join(configDir, fmt.Sprintf("%s.yaml", env)))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s.yaml: %w", env, err)
		}
		merged = mergeMaps(merged, envConfig)
	}

	secrets, err := godotenv.Read(filepath.Join(configDir, "secrets.env"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load secrets.env: %w", err)
	}
	if len(secrets) > 0 {
		merged = substituteEnvVars(merged, secrets)
	}

	cfg := Default()
	if len(merged) > 0 {
		raw, err := yaml.Marshal(merged)
		if err != nil {
			return nil, fmt.Errorf("failed to re-encode config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	OverrideAPIFromEnv(&cfg.API)
	OverrideCacheFromEnv(&cfg.Cache)
	OverrideRedisFromEnv(&cfg.Redis)
	OverrideServerFromEnv(&cfg.Server)
	OverrideTokenFromEnv(&cfg.Token)
	OverrideLogFromEnv(&cfg.Log)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("cache.backend is redis but redis.addr is empty")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	if c.Cache.StaleTime < 0 || c.Cache.GCTime < 0 {
		return fmt.Errorf("cache durations must not be negative")
	}
	return nil
}

func loadYAMLFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var layer map[string]any
	if err := yaml.Unmarshal(data, &layer); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return layer, nil
}

// mergeMaps returns base overlaid with over; nested sections merge key by key.
func mergeMaps(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	maps.Copy(out, base)
	for key, value := range over {
		baseSection, okBase := out[key].(map[string]any)
		overSection, okOver := value.(map[string]any)
		if okBase && okOver {
			out[key] = mergeMaps(baseSection, overSection)
			continue
		}
		out[key] = value
	}
	return out
}

// substituteEnvVars expands ${VAR} in every string value from secrets.
// Unknown placeholders are left as written.
func substituteEnvVars(layer map[string]any, secrets map[string]string) map[string]any {
	out := make(map[string]any, len(layer))
	for key, value := range layer {
		switch v := value.(type) {
		case string:
			out[key] = expand(v, secrets)
		case map[string]any:
			out[key] = substituteEnvVars(v, secrets)
		default:
			out[key] = v
		}
	}
	return out
}

func expand(s string, secrets map[string]string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, func(name string) string {
		if v, ok := secrets[name]; ok {
			return v
		}
		return "${" + name + "}"
	})
}

// GetEnv returns the environment variable or defaultValue.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetConfigEnv returns CONFIG_ENV, "local" by default.
func GetConfigEnv() string {
	return GetEnv("CONFIG_ENV", "local")
}
