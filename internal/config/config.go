package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ClientConfig is what every front-end of the console needs: where the
// monitoring API lives and how often to poll it.
type ClientConfig struct {
	APIBase    string        // ex: "http://localhost:5000/api/v1"
	APITimeout time.Duration // per-request timeout (ex: 10s)
	UserAgent  string        // sent on every API request

	Operator string // name sent as acknowledged_by

	RefreshInterval time.Duration // channels / alerts / inputs (default: 30s)
	HealthInterval  time.Duration // /health (default: 60s)
	MetricsInterval time.Duration // metrics panel while watched (default: 10s)
	MetricsWindow   int           // minutes of bitrate history to request (default: 60)
	NotificationTTL time.Duration // toast lifetime (default: 3s)
	Debug           bool          // fetch the debug dumps on each refresh

	Profile     string // "basic" | "standard" | "inspector"
	ProfileFile string // optional YAML file overriding the built-in profiles

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)
}

// Config is the console daemon configuration.
type Config struct {
	ClientConfig

	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per HTTP request handled by the daemon

	// Redis (optional, empty address disables the warm-start cache)
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
	SnapshotTTL           time.Duration // lifetime of the persisted snapshot (default: 24h)
	ThumbnailGCInterval   time.Duration // how often cached thumbnails are swept (default: 10m)
	ThumbnailGCThreshold  time.Duration // how long an input is missing before its thumbnail goes (default: 1h)

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	RateLimitBurst  int // mutating requests allowed in a burst per client IP
	RateLimitPerMin int // refill rate per client IP
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// LoadClient reads the client configuration from the environment, after
// loading an optional .env file.
func LoadClient() *ClientConfig {
	loadDotEnv()
	cfg := loadClient()
	validateClient(cfg)
	return cfg
}

// Load reads the daemon configuration from the environment, after loading
// an optional .env file.
func Load() *Config {
	loadDotEnv()

	cfg := &Config{
		ClientConfig: *loadClient(),

		// Server settings
		ListenPort:      getenv("TALLY_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("TALLY_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("TALLY_REQUEST_TIMEOUT", 15*time.Second),

		// Redis settings
		RedisAddr:             getenv("TALLY_REDIS_ADDR", ""),
		RedisUser:             getenv("TALLY_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("TALLY_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("TALLY_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("TALLY_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),
		SnapshotTTL:           mustDuration("TALLY_SNAPSHOT_TTL", 24*time.Hour),
		ThumbnailGCInterval:   mustDuration("TALLY_THUMBNAIL_GC_INTERVAL", 10*time.Minute),
		ThumbnailGCThreshold:  mustDuration("TALLY_THUMBNAIL_GC_THRESHOLD", time.Hour),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("TALLY_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("TALLY_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("TALLY_TRUST_PROXY", false),

		RateLimitBurst:  getenvInt("TALLY_RATE_LIMIT_BURST", 20),
		RateLimitPerMin: getenvInt("TALLY_RATE_LIMIT_PER_MIN", 60),
	}

	validateClient(&cfg.ClientConfig)

	// Validate Redis password configuration
	if cfg.RedisEnabled() && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: TALLY_REDIS_PASSWORD is required when TALLY_REDIS_PASSWORD_REQUIRED=true")
	}
	if cfg.ThumbnailGCInterval <= 0 {
		panic(fmt.Sprintf("❌ FATAL: TALLY_THUMBNAIL_GC_INTERVAL must be > 0, got %v", cfg.ThumbnailGCInterval))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cfgCopy := *c
	if c.RedisPassword != "" {
		cfgCopy.RedisPassword = "***REDACTED***"
	}
	if c.RedisUser != "" {
		cfgCopy.RedisUser = "***REDACTED***"
	}
	return cfgCopy
}

func loadClient() *ClientConfig {
	return &ClientConfig{
		APIBase:    strings.TrimRight(getenv("TALLY_API_BASE", "http://localhost:5000/api/v1"), "/"),
		APITimeout: mustDuration("TALLY_API_TIMEOUT", 10*time.Second),
		UserAgent:  getenv("TALLY_USER_AGENT", "tally"),

		Operator: getenv("TALLY_OPERATOR", "operator"),

		RefreshInterval: mustDuration("TALLY_REFRESH_INTERVAL", 30*time.Second),
		HealthInterval:  mustDuration("TALLY_HEALTH_INTERVAL", 60*time.Second),
		MetricsInterval: mustDuration("TALLY_METRICS_INTERVAL", 10*time.Second),
		MetricsWindow:   getenvInt("TALLY_METRICS_WINDOW", 60),
		NotificationTTL: mustDuration("TALLY_NOTIFICATION_TTL", 3*time.Second),
		Debug:           mustBool("TALLY_DEBUG", false),

		Profile:     getenv("TALLY_PROFILE", "standard"),
		ProfileFile: getenv("TALLY_PROFILE_FILE", ""),

		LogLevel:  getenv("TALLY_LOG_LEVEL", "info"),
		PrettyLog: mustBool("TALLY_PRETTY_LOG", true),
	}
}

func validateClient(cfg *ClientConfig) {
	u, err := url.Parse(cfg.APIBase)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		panic(fmt.Sprintf("❌ FATAL: TALLY_API_BASE must be an http(s) URL, got %q", cfg.APIBase))
	}
	for name, d := range map[string]time.Duration{
		"TALLY_API_TIMEOUT":      cfg.APITimeout,
		"TALLY_REFRESH_INTERVAL": cfg.RefreshInterval,
		"TALLY_HEALTH_INTERVAL":  cfg.HealthInterval,
		"TALLY_METRICS_INTERVAL": cfg.MetricsInterval,
	} {
		if d <= 0 {
			panic(fmt.Sprintf("❌ FATAL: %s must be > 0, got %v", name, d))
		}
	}
	if cfg.MetricsWindow < 1 {
		panic(fmt.Sprintf("❌ FATAL: TALLY_METRICS_WINDOW must be >= 1, got %d", cfg.MetricsWindow))
	}
}

// loadDotEnv preloads TALLY_ENV_FILE (default .env). Variables already set
// in the environment win. A missing file is not an error.
func loadDotEnv() {
	path := getenv("TALLY_ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Sprintf("❌ FATAL: cannot read env file %s: %v", path, err))
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
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
