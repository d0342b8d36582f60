// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers understood by the server.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds all runtime configuration values.  It is built once in main
// and passed by value to the components that need it; nothing in the
// module reads the environment after startup.
type Config struct {
	Env             string        // application environment (dev, test, prod)
	Port            string        // HTTP port to listen on
	LogLevel        string        // zerolog level name
	StorageDriver   string        // mysql or memory
	DB              DBConfig      // MySQL connection settings
	JWTSecret       string        // secret used to verify access tokens
	ShutdownTimeout time.Duration // bound on graceful shutdown
	Redis           RedisConfig
	Cache           CacheConfig
	RateLimit       RateLimitConfig
	Scheduler       SchedulerConfig
	Queue           QueueConfig
}

// DBConfig groups the MySQL connection parameters.
type DBConfig struct {
	User string
	Pass string // empty allowed
	Host string
	Port string
	Name string
}

// Load reads an optional .env file and then the process environment.
// Missing required variables are reported together in one error.
func Load() (Config, error) {
	_ = godotenv.Load() // .env is optional; real environment wins

	var missing []string
	must := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		Env:             envStr("APP_ENV", "dev"),
		Port:            envStr("APP_PORT", "8080"),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		StorageDriver:   strings.ToLower(envStr("STORAGE_DRIVER", DriverMySQL)),
		JWTSecret:       must("JWT_SECRET"),
		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
		Redis:           LoadRedisConfig(),
		Cache:           LoadCacheConfig(),
		RateLimit:       LoadRateLimitConfig(),
		Queue:           LoadQueueConfig(),
	}

	sched, err := LoadSchedulerConfig()
	if err != nil {
		return Config{}, err
	}
	cfg.Scheduler = sched

	switch cfg.StorageDriver {
	case DriverMySQL:
		cfg.DB = DBConfig{
			User: must("DB_USER"),
			Pass: os.Getenv("DB_PASS"),
			Host: must("DB_HOST"),
			Port: envStr("DB_PORT", "3306"),
			Name: must("DB_NAME"),
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }

// DSN builds the go-sql-driver/mysql data source name.
// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
func (d DBConfig) DSN() string {
	auth := d.User
	if d.Pass != "" {
		auth = fmt.Sprintf("%s:%s", d.User, d.Pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, d.Host, d.Port, d.Name)
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
