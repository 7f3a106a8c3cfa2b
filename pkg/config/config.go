package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config is the full configuration shared by the terminal client and the gateway.
type Config struct {
	API    APIConfig    `yaml:"api"`
	Cache  CacheConfig  `yaml:"cache"`
	Redis  RedisConfig  `yaml:"redis"`
	Server ServerConfig `yaml:"server"`
	Token  TokenConfig  `yaml:"token"`
	Log    LogConfig    `yaml:"log"`
}

// APIConfig points at the Abricot backend.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
}

// CacheConfig tunes the query cache.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend   string        `yaml:"backend"`
	StaleTime time.Duration `yaml:"stale_time"`
	GCTime    time.Duration `yaml:"gc_time"`
}

// RedisConfig Redis connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ServerConfig gateway listener. Port is a full listen address; the gateway
// serves one signed-in user, so it defaults to loopback.
type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"`
}

// TokenConfig where the auth token is persisted.
type TokenConfig struct {
	Path string `yaml:"path"`
}

// LogConfig logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file sets a value.
func Default() Config {
	return Config{
		API:    APIConfig{BaseURL: "http://localhost:8000"},
		Cache:  CacheConfig{Backend: "memory", StaleTime: 30 * time.Second, GCTime: 5 * time.Minute},
		Server: ServerConfig{Port: "127.0.0.1:8080", Mode: "release"},
		Token:  TokenConfig{Path: defaultTokenPath()},
		Log:    LogConfig{Level: "info"},
	}
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".abricot", "token")
	}
	return filepath.Join(home, ".abricot", "token")
}

// OverrideAPIFromEnv overrides the backend URL from the environment.
func OverrideAPIFromEnv(cfg *APIConfig) {
	if url := os.Getenv("ABRICOT_API_URL"); url != "" {
		cfg.BaseURL = url
	}
}

// OverrideCacheFromEnv overrides cache settings from the environment.
func OverrideCacheFromEnv(cfg *CacheConfig) {
	if backend := os.Getenv("CACHE_BACKEND"); backend != "" {
		cfg.Backend = backend
	}
	if d, err := time.ParseDuration(os.Getenv("CACHE_STALE_TIME")); err == nil {
		cfg.StaleTime = d
	}
	if d, err := time.ParseDuration(os.Getenv("CACHE_GC_TIME")); err == nil {
		cfg.GCTime = d
	}
}

// OverrideRedisFromEnv overrides Redis settings from the environment.
func OverrideRedisFromEnv(cfg *RedisConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			cfg.DB = n
		}
	}
}

// OverrideServerFromEnv overrides the gateway listener from the environment.
func OverrideServerFromEnv(cfg *ServerConfig) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		cfg.Mode = mode
	}
}

// OverrideTokenFromEnv overrides the token file location from the environment.
func OverrideTokenFromEnv(cfg *TokenConfig) {
	if path := os.Getenv("ABRICOT_TOKEN_PATH"); path != "" {
		cfg.Path = path
	}
}

// OverrideLogFromEnv overrides the log level from the environment.
func OverrideLogFromEnv(cfg *LogConfig) {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Level = level
	}
}
