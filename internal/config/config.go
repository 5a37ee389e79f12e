package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds application configuration from environment. All services in
// the pipeline share this shape; each binary reads the subset it needs.
type Config struct {
	ServiceName string
	HTTPPort    string

	DatabaseURL string
	DBPoolSize  int

	RedisURL      string
	RedisPoolSize int

	KafkaBrokers    []string
	KafkaPartitions int

	// Consumer acknowledgement policy: retry a failed handler this many
	// times, then dead-letter the message and advance the offset.
	ConsumerMaxAttempts  int
	ConsumerRetryBackoff time.Duration

	// Processed-event tracking. When enabled, a (topic, eventId) key is
	// reserved in Redis before a projection applies, for DedupTTL.
	DedupEnabled bool
	DedupTTL     time.Duration

	// Cross-service enrichment.
	UserServiceURL    string
	PostServiceURL    string
	CommentServiceURL string
	EnrichTimeout     time.Duration
	BreakerThreshold  int
	BreakerCooldown   time.Duration

	PresenceTTL time.Duration

	JWTSecret string
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Get returns the application config (loads once from env).
func Get() *Config {
	cfgOnce.Do(func() {
		cfg = &Config{
			ServiceName: getEnv("SERVICE_NAME", "socialgrid"),
			HTTPPort:    getEnv("HTTP_PORT", "8080"),

			DatabaseURL: os.Getenv("DATABASE_URL"),
			DBPoolSize:  getIntEnv("DB_POOL_SIZE", 50),

			RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
			RedisPoolSize: getIntEnv("REDIS_POOL_SIZE", 100),

			KafkaBrokers:    getSliceEnv("KAFKA_BROKERS", "localhost:9092"),
			KafkaPartitions: getIntEnv("KAFKA_PARTITIONS", 8),

			ConsumerMaxAttempts:  getIntEnv("CONSUMER_MAX_ATTEMPTS", 3),
			ConsumerRetryBackoff: getDurationEnv("CONSUMER_RETRY_BACKOFF_MS", 200*time.Millisecond),

			DedupEnabled: getBoolEnv("EVENT_DEDUP_ENABLED", true),
			DedupTTL:     getDurationSecEnv("EVENT_DEDUP_TTL_SEC", 24*time.Hour),

			UserServiceURL:    getEnv("USER_SERVICE_URL", "http://localhost:3001"),
			PostServiceURL:    getEnv("POST_SERVICE_URL", "http://localhost:3002"),
			CommentServiceURL: getEnv("COMMENT_SERVICE_URL", "http://localhost:3003"),
			EnrichTimeout:     getDurationEnv("ENRICH_TIMEOUT_MS", 3*time.Second),
			BreakerThreshold:  getIntEnv("BREAKER_THRESHOLD", 5),
			BreakerCooldown:   getDurationSecEnv("BREAKER_COOLDOWN_SEC", 30*time.Second),

			PresenceTTL: getDurationSecEnv("PRESENCE_TTL_SEC", 5*time.Minute),

			JWTSecret: os.Getenv("JWT_SECRET"),
		}
	})
	return cfg
}

// LoadEnvFile reads a .env file and sets env vars (only if not already set).
func LoadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if strings.HasPrefix(val, `"`) && strings.HasSuffix(val, `"`) {
			val = strings.Trim(val, `"`)
		} else if strings.HasPrefix(val, "'") && strings.HasSuffix(val, "'") {
			val = strings.Trim(val, "'")
		}
		if key != "" && os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return defaultVal
}

func getDurationSecEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return defaultVal
}

func getSliceEnv(key, defaultVal string) []string {
	if v := os.Getenv(key); v != "" {
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return []string{defaultVal}
}
