package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Directory backend constants
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Service authentication modes understood by go-httpclient
const (
	APIAuthModeNone   = "none"
	APIAuthModeSimple = "simple"
	APIAuthModeHMAC   = "hmac"
)

// Log formats
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

type Config struct {
	// Server settings
	ServerAddr            string
	ServerShutdownTimeout time.Duration

	// Backend selection
	DirectoryBackend string // "local" or "remote"

	// Remote directory API
	DirectoryAPIURL                string
	DirectoryAPIEnforceAuth        bool // attach service credentials to service calls
	DirectoryAPIUsername           string
	DirectoryAPIPassword           string
	DirectoryAPITimeout            time.Duration
	DirectoryAPIInsecureSkipVerify bool
	DirectoryAPIAuthMode           string // "none", "simple", or "hmac"
	DirectoryAPIAuthSecret         string
	DirectoryAPIAuthHeader         string // Custom header name for simple mode (default: "X-API-Secret")
	DirectoryAPIMaxRetries         int
	DirectoryAPIRetryDelay         time.Duration
	DirectoryAPIMaxRetryDelay      time.Duration

	// Local directory snapshot
	LocalSnapshotPath  string
	LocalResourcesRoot string

	// Authority mapping
	AuthorityPrefix    string
	AuthorityUppercase bool
	AuthorityDefault   string
	AuthorityMapping   map[string]string // group -> authority
	AdminAuthority     string

	// Observability
	MetricsEnabled bool
	LogLevel       string
	LogFormat      string

	// Rate limiting for the login endpoint (requests per minute, 0 disables)
	LoginRateLimit int
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		ServerAddr:            getEnv("SERVER_ADDR", ":8080"),
		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),

		DirectoryBackend: getEnv("DIRECTORY_BACKEND", BackendLocal),

		DirectoryAPIURL:                strings.TrimRight(getEnv("DIRECTORY_API_URL", ""), "/"),
		DirectoryAPIEnforceAuth:        getEnvBool("DIRECTORY_API_ENFORCE_AUTH", true),
		DirectoryAPIUsername:           getEnv("DIRECTORY_API_USERNAME", ""),
		DirectoryAPIPassword:           getEnv("DIRECTORY_API_PASSWORD", ""),
		DirectoryAPITimeout:            getEnvDuration("DIRECTORY_API_TIMEOUT", 10*time.Second),
		DirectoryAPIInsecureSkipVerify: getEnvBool("DIRECTORY_API_INSECURE_SKIP_VERIFY", false),
		DirectoryAPIAuthMode:           getEnv("DIRECTORY_API_AUTH_MODE", APIAuthModeNone),
		DirectoryAPIAuthSecret:         getEnv("DIRECTORY_API_AUTH_SECRET", ""),
		DirectoryAPIAuthHeader:         getEnv("DIRECTORY_API_AUTH_HEADER", "X-API-Secret"),
		DirectoryAPIMaxRetries:         getEnvInt("DIRECTORY_API_MAX_RETRIES", 0),
		DirectoryAPIRetryDelay:         getEnvDuration("DIRECTORY_API_RETRY_DELAY", 1*time.Second),
		DirectoryAPIMaxRetryDelay:      getEnvDuration("DIRECTORY_API_MAX_RETRY_DELAY", 10*time.Second),

		LocalSnapshotPath:  getEnv("LOCAL_SNAPSHOT_PATH", "directory.xml"),
		LocalResourcesRoot: getEnv("LOCAL_RESOURCES_ROOT", ""),

		AuthorityPrefix:    getEnv("AUTHORITY_PREFIX", ""),
		AuthorityUppercase: getEnvBool("AUTHORITY_UPPERCASE", false),
		AuthorityDefault:   getEnv("AUTHORITY_DEFAULT", ""),
		AuthorityMapping:   getEnvMap("AUTHORITY_MAPPING"),
		AdminAuthority:     getEnv("ADMIN_AUTHORITY", "admin"),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", LogFormatJSON),

		LoginRateLimit: getEnvInt("LOGIN_RATE_LIMIT", 10),
	}
}

// Validate checks that required settings are present for the selected backend.
func (c *Config) Validate() error {
	switch c.DirectoryBackend {
	case BackendRemote:
		if c.DirectoryAPIURL == "" {
			return errors.New("DIRECTORY_API_URL is required when DIRECTORY_BACKEND=remote")
		}
		if c.DirectoryAPIEnforceAuth && c.DirectoryAPIUsername == "" {
			return errors.New(
				"DIRECTORY_API_USERNAME is required when DIRECTORY_API_ENFORCE_AUTH=true",
			)
		}
		switch c.DirectoryAPIAuthMode {
		case APIAuthModeNone, "":
		case APIAuthModeSimple, APIAuthModeHMAC:
			if c.DirectoryAPIAuthSecret == "" {
				return fmt.Errorf(
					"DIRECTORY_API_AUTH_SECRET is required when DIRECTORY_API_AUTH_MODE=%s",
					c.DirectoryAPIAuthMode,
				)
			}
		default:
			return fmt.Errorf(
				"invalid DIRECTORY_API_AUTH_MODE: %q (must be: none, simple, hmac)",
				c.DirectoryAPIAuthMode,
			)
		}
		if c.DirectoryAPIMaxRetries < 0 {
			return errors.New("DIRECTORY_API_MAX_RETRIES must not be negative")
		}
	case BackendLocal:
		if c.LocalSnapshotPath == "" {
			return errors.New("LOCAL_SNAPSHOT_PATH is required when DIRECTORY_BACKEND=local")
		}
	default:
		return fmt.Errorf(
			"invalid DIRECTORY_BACKEND: %q (must be: local, remote)",
			c.DirectoryBackend,
		)
	}

	switch c.LogFormat {
	case LogFormatJSON, LogFormatConsole:
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %q (must be: json, console)", c.LogFormat)
	}

	if c.LoginRateLimit < 0 {
		return errors.New("LOGIN_RATE_LIMIT must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvMap parses "k1=v1,k2=v2". Entries without '=' are ignored.
func getEnvMap(key string) map[string]string {
	out := map[string]string{}
	for _, part := range splitAndTrim(os.Getenv(key), ",") {
		k, v, ok := strings.Cut(part, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
