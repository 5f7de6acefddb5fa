package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv        string
	LogLevel      string
	HTTPAddr      string
	Store         string // mysql|memory
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	CacheTTL      time.Duration
	APITokens     []string
	CORSOrigins   []string
	WriteRPS      float64
	WriteBurst    int
	KafkaBrokers  []string
	KafkaTopic    string
	RerateWorkers int
}

// Load reads the configuration from the environment. When CONFIG_FILE names a
// YAML file its keys (lower-cased variable names) supply values the
// environment has not set.
func Load() (Config, error) {
	src := source{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &src.file); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	c := Config{
		AppEnv:        src.str("APP_ENV", "prod"),
		LogLevel:      src.str("LOG_LEVEL", "info"),
		HTTPAddr:      src.str("HTTP_ADDR", ":8080"),
		Store:         strings.ToLower(src.str("STORE", "mysql")),
		MySQLDSN:      src.str("MYSQL_DSN", "root:root@tcp(localhost:3306)/restaurants?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     src.str("REDIS_ADDR", ""),
		RedisPass:     src.str("REDIS_PASSWORD", ""),
		RedisDB:       src.atoi("REDIS_DB", 0),
		CacheTTL:      time.Duration(src.atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		APITokens:     src.list("API_TOKENS"),
		CORSOrigins:   src.list("CORS_ORIGINS"),
		WriteRPS:      src.float("WRITE_RPS", 5),
		WriteBurst:    src.atoi("WRITE_BURST", 10),
		KafkaBrokers:  src.list("KAFKA_BROKERS"),
		KafkaTopic:    src.str("KAFKA_TOPIC", "review_added"),
		RerateWorkers: src.atoi("RERATE_WORKERS", 8),
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	if len(c.APITokens) == 0 {
		log.Warn().Msg("API_TOKENS is empty; write endpoints will reject every request")
	}
	return c, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case "mysql", "memory":
	default:
		return fmt.Errorf("STORE must be mysql or memory, got %q", c.Store)
	}
	if c.Store == "mysql" && c.MySQLDSN == "" {
		return fmt.Errorf("MYSQL_DSN is required when STORE=mysql")
	}
	if c.WriteRPS <= 0 || c.WriteBurst <= 0 {
		return fmt.Errorf("WRITE_RPS and WRITE_BURST must be positive")
	}
	if c.RerateWorkers <= 0 {
		return fmt.Errorf("RERATE_WORKERS must be positive")
	}
	return nil
}

type source struct{ file map[string]string }

func (s source) lookup(k string) (string, bool) {
	if v := os.Getenv(k); v != "" {
		return v, true
	}
	v, ok := s.file[strings.ToLower(k)]
	return v, ok && v != ""
}

func (s source) str(k, def string) string {
	if v, ok := s.lookup(k); ok {
		return v
	}
	return def
}

func (s source) atoi(k string, def int) int {
	if v, ok := s.lookup(k); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func (s source) float(k string, def float64) float64 {
	if v, ok := s.lookup(k); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func (s source) list(k string) []string {
	v, ok := s.lookup(k)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
