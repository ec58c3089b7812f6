package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read by Load when present.
const DefaultEnvFile = ".env"

// Config captures environment driven configuration values for the planning service.
type Config struct {
	HTTPPort           int
	SQLitePath         string
	LogLevel           string
	LogFormat          string
	Location           *time.Location
	CORSOrigins        []string
	ConsolidateOnStart bool
	ScheduleCacheTTL   time.Duration
	ScheduleCacheSize  int
	MaxRangeDays       int
	RateLimit          int
	MinOpeningStaff    int
	MinClosingStaff    int
}

// Load reads DefaultEnvFile when it exists and parses the process environment.
func Load() (Config, error) {
	if _, err := LoadEnv(DefaultEnvFile); err != nil {
		return Config{}, err
	}
	return Parse()
}

// LoadEnv loads the given dotenv files into the process environment, skipping
// missing ones. Variables already set are not overridden.
func LoadEnv(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return 0, fmt.Errorf("load env files: %w", err)
	}
	return len(existing), nil
}

// Parse builds a Config from the process environment.
//
// Optional fields fall back to defaults; every malformed value is collected
// and reported in a single error.
func Parse() (Config, error) {
	cfg := Config{
		HTTPPort:           3001,
		SQLitePath:         "data/planning.db",
		LogLevel:           "info",
		LogFormat:          "json",
		CORSOrigins:        []string{"*"},
		ConsolidateOnStart: true,
		ScheduleCacheTTL:   30 * time.Second,
		ScheduleCacheSize:  64,
		MaxRangeDays:       62,
		RateLimit:          120,
		MinOpeningStaff:    1,
		MinClosingStaff:    2,
	}

	invalid := make([]string, 0, 2)

	intVar := func(key string, target *int, allowZero bool) {
		value := lookup(key)
		if value == "" {
			return
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || (n == 0 && !allowZero) {
			invalid = append(invalid, key)
			return
		}
		*target = n
	}

	intVar("PLANNING_HTTP_PORT", &cfg.HTTPPort, false)
	intVar("PLANNING_SCHEDULE_CACHE_SIZE", &cfg.ScheduleCacheSize, false)
	intVar("PLANNING_MAX_RANGE_DAYS", &cfg.MaxRangeDays, false)
	intVar("PLANNING_RATE_LIMIT", &cfg.RateLimit, true)
	intVar("PLANNING_MIN_OPENING_STAFF", &cfg.MinOpeningStaff, true)
	intVar("PLANNING_MIN_CLOSING_STAFF", &cfg.MinClosingStaff, true)

	if path := lookup("PLANNING_SQLITE_PATH"); path != "" {
		cfg.SQLitePath = path
	}

	if level := lookup("PLANNING_LOG_LEVEL"); level != "" {
		switch strings.ToLower(level) {
		case "debug", "info", "warn", "warning", "error":
			cfg.LogLevel = strings.ToLower(level)
		default:
			invalid = append(invalid, "PLANNING_LOG_LEVEL")
		}
	}

	if format := lookup("PLANNING_LOG_FORMAT"); format != "" {
		switch strings.ToLower(format) {
		case "json", "text":
			cfg.LogFormat = strings.ToLower(format)
		default:
			invalid = append(invalid, "PLANNING_LOG_FORMAT")
		}
	}

	zone := lookup("PLANNING_TIMEZONE")
	if zone == "" {
		zone = "Europe/Paris"
	}
	if loc, err := time.LoadLocation(zone); err != nil {
		invalid = append(invalid, "PLANNING_TIMEZONE")
	} else {
		cfg.Location = loc
	}

	if origins := lookup("PLANNING_CORS_ORIGINS"); origins != "" {
		list := make([]string, 0)
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				list = append(list, origin)
			}
		}
		if len(list) == 0 {
			invalid = append(invalid, "PLANNING_CORS_ORIGINS")
		} else {
			cfg.CORSOrigins = list
		}
	}

	if value := lookup("PLANNING_CONSOLIDATE_ON_START"); value != "" {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			invalid = append(invalid, "PLANNING_CONSOLIDATE_ON_START")
		} else {
			cfg.ConsolidateOnStart = enabled
		}
	}

	if value := lookup("PLANNING_SCHEDULE_CACHE_TTL"); value != "" {
		ttl, err := time.ParseDuration(value)
		if err != nil || ttl < 0 {
			invalid = append(invalid, "PLANNING_SCHEDULE_CACHE_TTL")
		} else {
			cfg.ScheduleCacheTTL = ttl
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
