// Package config reads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const defaultJWTSecret = "default-secret-key-change-in-production"

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	Port        string
	LogLevel    string

	MongoURI string
	MongoDB  string

	JWTSecret string
	JWTExpiry time.Duration

	// Scheduler
	SchedulerCron       string
	SchedulerTimezone   string
	SchedulerWorkers    int
	SchedulerRunTimeout time.Duration

	// Run lock; local in-process lock when RedisAddr is empty
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RunLockTTL    time.Duration

	// Email notifications are disabled when SMTPHost is empty
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Work order events are not published when MQTTBroker is empty
	MQTTBroker      string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string
}

// Load reads an optional .env file, then the environment, applies defaults
// and validates the result.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("BMS_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "vivid_bms"),

		JWTSecret: getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpiry: getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		SchedulerCron:       getEnv("SCHEDULER_CRON", "0 6 * * *"),
		SchedulerTimezone:   getEnv("SCHEDULER_TIMEZONE", "UTC"),
		SchedulerWorkers:    getEnvInt("SCHEDULER_WORKERS", 4),
		SchedulerRunTimeout: getEnvDuration("SCHEDULER_RUN_TIMEOUT", 5*time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RunLockTTL:    getEnvDuration("RUN_LOCK_TTL", 0),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "maintenance@vivid.local"),

		MQTTBroker:      getEnv("MQTT_BROKER", ""),
		MQTTClientID:    getEnv("MQTT_CLIENT_ID", "vivid-bms-scheduler"),
		MQTTUsername:    getEnv("MQTT_USERNAME", ""),
		MQTTPassword:    getEnv("MQTT_PASSWORD", ""),
		MQTTTopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "vivid/bms"),
	}
	if cfg.RunLockTTL == 0 {
		cfg.RunLockTTL = cfg.SchedulerRunTimeout + time.Minute
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.MongoURI) == "" {
		errs = append(errs, errors.New("MONGO_URI must be provided"))
	}
	if strings.TrimSpace(c.MongoDB) == "" {
		errs = append(errs, errors.New("MONGO_DB must be provided"))
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %q is not a valid port", c.Port))
	}
	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY must be positive"))
	}
	if _, err := cron.ParseStandard(c.SchedulerCron); err != nil {
		errs = append(errs, fmt.Errorf("SCHEDULER_CRON %q: %w", c.SchedulerCron, err))
	}
	if _, err := time.LoadLocation(c.SchedulerTimezone); err != nil {
		errs = append(errs, fmt.Errorf("SCHEDULER_TIMEZONE %q: %w", c.SchedulerTimezone, err))
	}
	if c.SchedulerWorkers <= 0 {
		errs = append(errs, errors.New("SCHEDULER_WORKERS must be positive"))
	}
	if c.SchedulerRunTimeout <= 0 {
		errs = append(errs, errors.New("SCHEDULER_RUN_TIMEOUT must be positive"))
	}
	if c.RunLockTTL < c.SchedulerRunTimeout {
		errs = append(errs, errors.New("RUN_LOCK_TTL must not be shorter than SCHEDULER_RUN_TIMEOUT"))
	}
	if c.SMTPHost != "" && (c.SMTPPort <= 0 || c.SMTPPort > 65535) {
		errs = append(errs, fmt.Errorf("SMTP_PORT %d is not a valid port", c.SMTPPort))
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		errs = append(errs, errors.New("JWT_SECRET must be set to a non-default value in production"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether BMS_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Location resolves SchedulerTimezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.SchedulerTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
