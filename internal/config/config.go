// Package config loads and validates the notifier's configuration from
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
	"github.com/monicajeon28/cruiseguide-sub009/internal/trigger"
)

// Notification log backends.
const (
	LogStorePostgres = "postgres"
	LogStoreRedis    = "redis"
	LogStoreSQLite   = "sqlite"
)

// Dispatcher backends.
const (
	DispatcherLog     = "log"
	DispatcherWebhook = "webhook"
	DispatcherRedis   = "redis"
)

// maxLookback bounds every warning window. A longer window would reach past
// the stop horizon the triggers read.
const maxLookback = 24 * time.Hour

// Config holds all configuration values of the notifier.
type Config struct {
	// OpsPort is the TCP port of the operational HTTP surface. Defaults to "8080".
	OpsPort string

	// DatabaseURL is the Postgres connection string of the trip data. Required.
	DatabaseURL string

	// LogLevel is one of debug, info, warn, error. Defaults to "info".
	LogLevel string

	// CORSOrigins lists the origins allowed to call the ops surface.
	// Empty by default; CORS_ORIGINS is a comma-separated list.
	CORSOrigins []string

	PollInterval time.Duration
	CallTimeout  time.Duration

	EmbarkationRunway      time.Duration
	DisembarkationLookback time.Duration
	BoardingLookback       time.Duration

	DefaultEmbarkationTime domain.TimeOfDay
	DefaultArrivalTime     domain.TimeOfDay
	DefaultDepartureTime   domain.TimeOfDay

	// BoardingRequireDeparture skips port visits without a departure time.
	// When false they are assumed to leave at DefaultDepartureTime.
	BoardingRequireDeparture bool

	DefaultTimezone *time.Location

	LogStore   string
	RedisURL   string
	SQLitePath string

	Dispatcher           string
	WebhookURL           string
	WebhookRatePerSecond float64
	RedisStream          string
}

// Load reads configuration from environment variables. Every problem found
// is reported in a single error wrapping domain.ErrValidation.
func Load() (Config, error) {
	p := &parser{}

	cfg := Config{
		OpsPort:     getEnv("OPS_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		CORSOrigins: splitCSV(os.Getenv("CORS_ORIGINS")),

		PollInterval: p.duration("POLL_INTERVAL", 10*time.Minute),
		CallTimeout:  p.duration("CALL_TIMEOUT", 15*time.Second),

		EmbarkationRunway:      p.duration("EMBARKATION_RUNWAY", 3*time.Hour),
		DisembarkationLookback: p.duration("DISEMBARKATION_LOOKBACK", time.Hour),
		BoardingLookback:       p.duration("BOARDING_LOOKBACK", time.Hour),

		DefaultEmbarkationTime: p.timeOfDay("DEFAULT_EMBARKATION_TIME", "14:00"),
		DefaultArrivalTime:     p.timeOfDay("DEFAULT_ARRIVAL_TIME", "08:00"),
		DefaultDepartureTime:   p.timeOfDay("DEFAULT_DEPARTURE_TIME", "18:00"),

		BoardingRequireDeparture: p.boolean("BOARDING_REQUIRE_DEPARTURE", true),
		DefaultTimezone:          p.location("DEFAULT_TIMEZONE", "UTC"),

		LogStore:   strings.ToLower(getEnv("LOG_STORE", LogStorePostgres)),
		RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SQLitePath: getEnv("SQLITE_PATH", "notifier.db"),

		Dispatcher:           strings.ToLower(getEnv("DISPATCHER", DispatcherLog)),
		WebhookURL:           os.Getenv("WEBHOOK_URL"),
		WebhookRatePerSecond: p.float("WEBHOOK_RATE_PER_SECOND", 20),
		RedisStream:          getEnv("REDIS_STREAM", "notifications:outbound"),
	}

	if cfg.DatabaseURL == "" {
		p.fail("DATABASE_URL is required")
	}
	for name, d := range map[string]time.Duration{
		"EMBARKATION_RUNWAY":      cfg.EmbarkationRunway,
		"DISEMBARKATION_LOOKBACK": cfg.DisembarkationLookback,
		"BOARDING_LOOKBACK":       cfg.BoardingLookback,
	} {
		if d <= 0 || d > maxLookback {
			p.fail(fmt.Sprintf("%s must be in (0, 24h], got %s", name, d))
		}
	}
	if cfg.PollInterval < time.Second {
		p.fail(fmt.Sprintf("POLL_INTERVAL must be at least 1s, got %s", cfg.PollInterval))
	}
	if cfg.CallTimeout < 0 {
		p.fail(fmt.Sprintf("CALL_TIMEOUT must not be negative, got %s", cfg.CallTimeout))
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		p.fail(fmt.Sprintf("LOG_LEVEL %q is not one of debug, info, warn, error", cfg.LogLevel))
	}
	switch cfg.LogStore {
	case LogStorePostgres, LogStoreRedis, LogStoreSQLite:
	default:
		p.fail(fmt.Sprintf("LOG_STORE %q is not one of postgres, redis, sqlite", cfg.LogStore))
	}
	switch cfg.Dispatcher {
	case DispatcherLog, DispatcherRedis:
	case DispatcherWebhook:
		if cfg.WebhookURL == "" {
			p.fail("WEBHOOK_URL is required when DISPATCHER=webhook")
		}
	default:
		p.fail(fmt.Sprintf("DISPATCHER %q is not one of log, webhook, redis", cfg.Dispatcher))
	}

	if len(p.problems) > 0 {
		return Config{}, fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(p.problems, "; "))
	}
	return cfg, nil
}

// TriggerPolicy returns the business-policy knobs for the trigger registry.
func (c Config) TriggerPolicy() trigger.Policy {
	return trigger.Policy{
		EmbarkationRunway:        c.EmbarkationRunway,
		DisembarkationLookback:   c.DisembarkationLookback,
		BoardingLookback:         c.BoardingLookback,
		DefaultEmbarkationTime:   c.DefaultEmbarkationTime,
		DefaultArrivalTime:       c.DefaultArrivalTime,
		DefaultDepartureTime:     c.DefaultDepartureTime,
		BoardingRequireDeparture: c.BoardingRequireDeparture,
		DefaultZone:              c.DefaultTimezone,
	}
}

// parser collects problems so Load can report all of them at once.
type parser struct {
	problems []string
}

func (p *parser) fail(msg string) {
	p.problems = append(p.problems, msg)
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(fmt.Sprintf("%s: %q is not a duration", key, v))
		return fallback
	}
	return d
}

func (p *parser) timeOfDay(key, fallback string) domain.TimeOfDay {
	v := getEnv(key, fallback)
	t, err := domain.ParseTimeOfDay(v)
	if err != nil {
		p.fail(fmt.Sprintf("%s: %q is not HH:MM", key, v))
		return domain.MustTimeOfDay(fallback)
	}
	return t
}

func (p *parser) boolean(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(fmt.Sprintf("%s: %q is not a boolean", key, v))
		return fallback
	}
	return b
}

func (p *parser) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(fmt.Sprintf("%s: %q is not a number", key, v))
		return fallback
	}
	return f
}

func (p *parser) location(key, fallback string) *time.Location {
	v := getEnv(key, fallback)
	loc, err := time.LoadLocation(v)
	if err != nil {
		p.fail(fmt.Sprintf("%s: unknown time zone %q", key, v))
		return time.UTC
	}
	return loc
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
