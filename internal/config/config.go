package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

type Config struct {
	ListenPort      string        `validate:"required"` // ex: ":8080"
	ShutdownTimeout time.Duration `validate:"gt=0"`     // ex: 5s
	RequestTimeout  time.Duration `validate:"gt=0"`     // per-request deadline

	LogLevel  string `validate:"oneof=debug info warn error"`
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	PageTitle string // heading shown on the shelf page

	Storage    string `validate:"oneof=memory redis sqlite"`
	SQLitePath string `validate:"required_if=Storage sqlite"`

	Seed      bool   // seed sample books into an empty library
	SeedFile  string // optional YAML seed file, empty = built-in sample shelf
	CoversDir string // optional directory served under /covers/

	// Redis (only when Storage=redis)
	RedisAddr           string `validate:"required_if=Storage redis"`
	RedisUser           string
	RedisPassword       string
	RedisDB             int           `validate:"gte=0"`
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
	RedisWarnThreshold  int           // warn after this many attempts

	// Mutating routes are rate limited per client IP.
	RateBurst     int `validate:"gte=1"`
	RateRefillMin int `validate:"gte=1"`

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict health endpoints to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

// LoadDotEnv loads variables from path (".env" when empty) without
// overriding the ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from the environment.
// It panics on invalid configuration: there is nothing useful to run.
func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("BOOKSHELF_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("BOOKSHELF_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("BOOKSHELF_REQUEST_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("BOOKSHELF_LOG_LEVEL", "info"),
		PrettyLog: mustBool("BOOKSHELF_PRETTY_LOG", true),

		PageTitle: getenv("BOOKSHELF_PAGE_TITLE", "Library"),

		// Storage
		Storage:    strings.ToLower(getenv("BOOKSHELF_STORAGE", StorageMemory)),
		SQLitePath: getenv("BOOKSHELF_SQLITE_PATH", "bookshelf.db"),

		// Sample data
		Seed:      mustBool("BOOKSHELF_SEED", true),
		SeedFile:  getenv("BOOKSHELF_SEED_FILE", ""),
		CoversDir: getenv("BOOKSHELF_COVERS_DIR", ""),

		// Rate limit
		RateBurst:     getenvInt("BOOKSHELF_RATE_BURST", 20),
		RateRefillMin: getenvInt("BOOKSHELF_RATE_REFILL_PER_MIN", 60),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("BOOKSHELF_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("BOOKSHELF_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("BOOKSHELF_TRUST_PROXY", false),
	}

	if cfg.Storage == StorageRedis {
		cfg.RedisAddr = requireEnv("BOOKSHELF_REDIS_ADDR")
		cfg.RedisUser = getenv("BOOKSHELF_REDIS_USERNAME", "")
		cfg.RedisPassword = getenv("BOOKSHELF_REDIS_PASSWORD", "")
		cfg.RedisDB = getenvInt("BOOKSHELF_REDIS_DB", 0)
		cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
		cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
		cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
		cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
		cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
		cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)
		cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
		cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
		cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", 3)
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: invalid configuration: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
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
