package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/jobfeed/internal/jobsapi"
)

// Storage backends for the bookmark set.
const (
	StorageBadger = "badger"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline on the local API, 0 = none

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Jobs API
	APIEndpoint string        // listing URL, "?page=n" is appended
	HTTPTimeout time.Duration // upstream request timeout, 0 = transport default

	// Bookmark storage
	Storage string // "badger" | "redis" | "memory"
	DataDir string // badger directory

	// Redis (only read when Storage == "redis")
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Access restrictions
	AllowedHosts    []string // optional, restrict mutating routes to specific Host headers
	AllowedCIDRS    []string // optional, restrict probes and /reload to specific IPs/CIDRs
	TrustProxy      bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	RateLimitBurst  int      // per-IP burst on fetch-triggering routes
	RateLimitPerMin int      // per-IP refill rate on fetch-triggering routes
}

// fileValues holds the YAML overlay. Environment variables win over it.
var fileValues map[string]string

// Load reads .env, then the optional JOBFEED_CONFIG_FILE, then the
// environment. Invalid settings panic.
func Load() *Config {
	_ = godotenv.Load()

	fileValues = nil
	if path := os.Getenv("JOBFEED_CONFIG_FILE"); path != "" {
		values, err := loadFile(path)
		if err != nil {
			panic(fmt.Sprintf("❌ FATAL: %v", err))
		}
		fileValues = values
	}

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("JOBFEED_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("JOBFEED_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("JOBFEED_REQUEST_TIMEOUT", 30*time.Second),

		// Logging
		LogLevel:  getenv("JOBFEED_LOG_LEVEL", "info"),
		PrettyLog: mustBool("JOBFEED_PRETTY_LOG", true),

		// Jobs API
		APIEndpoint: getenv("JOBFEED_API_ENDPOINT", jobsapi.DefaultEndpoint),
		HTTPTimeout: mustDuration("JOBFEED_HTTP_TIMEOUT", 0),

		// Storage
		Storage: strings.ToLower(getenv("JOBFEED_STORAGE", StorageBadger)),
		DataDir: getenv("JOBFEED_DATA_DIR", "./data"),

		// Redis settings
		RedisAddr:             getenv("JOBFEED_REDIS_ADDR", "localhost:6379"),
		RedisUser:             getenv("JOBFEED_REDIS_USERNAME", ""),
		RedisPasswordRequired: mustBool("JOBFEED_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("JOBFEED_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("JOBFEED_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:    splitAndTrim(getenv("JOBFEED_ALLOWED_HOSTS", "")),
		AllowedCIDRS:    splitAndTrim(getenv("JOBFEED_ALLOWED_CIDRS", "")),
		TrustProxy:      mustBool("JOBFEED_TRUST_PROXY", false),
		RateLimitBurst:  getenvInt("JOBFEED_RATE_LIMIT_BURST", 10),
		RateLimitPerMin: getenvInt("JOBFEED_RATE_LIMIT_PER_MIN", 30),
	}

	switch cfg.Storage {
	case StorageBadger, StorageRedis, StorageMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: JOBFEED_STORAGE must be badger, redis or memory, got %q", cfg.Storage))
	}

	if cfg.Storage == StorageRedis && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: JOBFEED_REDIS_PASSWORD is required when JOBFEED_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// loadFile reads a flat YAML mapping of variable names to scalars or lists.
// Lists are joined with commas, like their environment form.
func loadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
		case []any:
			parts := make([]string, 0, len(val))
			for _, p := range val {
				parts = append(parts, fmt.Sprint(p))
			}
			values[k] = strings.Join(parts, ",")
		case map[string]any:
			return nil, fmt.Errorf("config file %s: %s must be a scalar or a list", path, k)
		default:
			values[k] = fmt.Sprint(val)
		}
	}
	return values, nil
}

// helpers
func lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fileValues[key]
}

func getenv(key, def string) string {
	if v := lookup(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := lookup(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := lookup(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := lookup(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
