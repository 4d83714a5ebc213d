// Package config loads server configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	// DefaultAPIBase is the EODHD REST API root.
	DefaultAPIBase = "https://eodhd.com/api"
	// DefaultWSBase is the EODHD realtime websocket root.
	DefaultWSBase = "wss://ws.eodhistoricaldata.com/ws"

	defaultHTTPAddr       = "0.0.0.0"
	defaultHTTPPort       = 8000
	defaultAccessTokenTTL = time.Hour
	defaultAuthCodeTTL    = 10 * time.Minute
)

// Config holds everything the server needs at startup. The EODHD API key is
// read once here; per-call and per-user overrides happen downstream.
type Config struct {
	APIKey  string
	APIBase string
	WSBase  string

	HTTPAddr string
	HTTPPort int

	// Public base URL published in OAuth metadata (e.g. https://mcp.eodhd.dev).
	// The bind address never leaks into metadata.
	ServerURL string

	// ResourcePath is the mount path of the OAuth-protected MCP endpoint.
	ResourcePath string

	JWTSecret      string
	AccessTokenTTL time.Duration
	AuthCodeTTL    time.Duration
	DefaultScope   string

	LogLevel string
}

// Default returns the baseline configuration before env overrides.
func Default() Config {
	return Config{
		APIKey:         "demo",
		APIBase:        DefaultAPIBase,
		WSBase:         DefaultWSBase,
		HTTPAddr:       defaultHTTPAddr,
		HTTPPort:       defaultHTTPPort,
		ResourcePath:   "/v2/mcp",
		AccessTokenTTL: defaultAccessTokenTTL,
		AuthCodeTTL:    defaultAuthCodeTTL,
		DefaultScope:   "full-access",
		LogLevel:       "info",
	}
}

// Load reads an optional .env file and applies environment overrides.
// envFile may be empty, in which case ./.env is loaded when present.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, errors.Wrapf(err, "failed to load env file %s", envFile)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		godotenv.Load(".env")
	}

	cfg := Default()
	applyEnv(&cfg)

	if cfg.ResourcePath == "" || cfg.ResourcePath[0] != '/' {
		return Config{}, errors.Errorf("invalid MCP_OAUTH_RESOURCE_PATH %q: must start with '/'", cfg.ResourcePath)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("EODHD_API_KEY", &cfg.APIKey)
	setString("EODHD_API_BASE", &cfg.APIBase)
	setString("EODHD_WS_BASE", &cfg.WSBase)
	setString("HTTP_ADDR", &cfg.HTTPAddr)
	setString("MCP_SERVER_URL", &cfg.ServerURL)
	setString("MCP_OAUTH_RESOURCE_PATH", &cfg.ResourcePath)
	setString("JWT_SECRET", &cfg.JWTSecret)
	setString("DEFAULT_SCOPE", &cfg.DefaultScope)
	setString("LOG_LEVEL", &cfg.LogLevel)

	if v := os.Getenv("HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.HTTPPort = port
		}
	}
	if v := os.Getenv("ACCESS_TOKEN_EXPIRES"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.AccessTokenTTL = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("AUTH_CODE_EXPIRES"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.AuthCodeTTL = time.Duration(secs) * time.Second
		}
	}
}
