package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/i474232898/commute-weather/internal/commute"
	"github.com/i474232898/commute-weather/internal/weather/feed"
	"github.com/i474232898/commute-weather/internal/weather/kma"
)

type AppConfig struct {
	AppEnv   string
	LogLevel slog.Level

	KMA        kma.Config
	KMATimeout time.Duration

	// WeatherAPI is the generic JSON feed scored by the baseline command.
	WeatherAPI feed.Config

	// Location is the zone of the station; windows and timestamps use its wall clock.
	Location      *time.Location
	LookbackHours int
	EveningMode   commute.EveningMode

	// In-memory store retention.
	StoreMaxHistory int           // max number of predictions per period (0 = unlimited)
	StoreMaxAge     time.Duration // max age of predictions (0 = unlimited)

	SchedulerEnabled bool

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string

	KafkaBrokers []string
	KafkaTopic   string

	Port            string
	ShutdownTimeout time.Duration
}

// LoadDotEnv loads a .env file if present. It reports whether one was loaded.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	helpFlag, err := getenvInt("KMA_HELP_FLAG", 0)
	if err != nil {
		return nil, err
	}
	cfg.KMA = kma.Config{
		BaseURL:   getenvDefault("KMA_BASE_URL", kma.DefaultBaseURL),
		AuthKey:   strings.TrimSpace(os.Getenv("KMA_AUTH_KEY")),
		StationID: getenvDefault("KMA_STATION_ID", "108"),
		HelpFlag:  helpFlag,
	}
	if cfg.KMATimeout, err = getenvDuration("KMA_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.WeatherAPI = feed.Config{
		BaseURL:  getenvDefault("WEATHER_API_BASE_URL", "https://api.example.com/weather"),
		APIKey:   strings.TrimSpace(os.Getenv("WEATHER_API_KEY")),
		Location: strings.TrimSpace(os.Getenv("COMMUTE_LOCATION")),
	}

	tz := getenvDefault("TIMEZONE", "Asia/Seoul")
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	if cfg.LookbackHours, err = getenvInt("LOOKBACK_HOURS", 3); err != nil {
		return nil, err
	}
	if cfg.LookbackHours <= 0 {
		return nil, fmt.Errorf("invalid LOOKBACK_HOURS %d: must be positive", cfg.LookbackHours)
	}

	cfg.EveningMode = commute.EveningMode(getenvDefault("EVENING_WINDOW", string(commute.EveningLookback)))
	switch cfg.EveningMode {
	case commute.EveningLookback, commute.EveningAfternoon:
	default:
		return nil, fmt.Errorf("invalid EVENING_WINDOW %q (allowed: lookback, afternoon)", cfg.EveningMode)
	}

	// Store retention.
	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 96); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "72h"); err != nil {
		return nil, err
	}

	cfg.SchedulerEnabled, err = strconv.ParseBool(getenvDefault("SCHEDULER_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_ENABLED: %w", err)
	}

	cfg.MQTTBroker = strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	cfg.MQTTTopic = getenvDefault("MQTT_TOPIC", "commute-weather")
	cfg.MQTTClientID = getenvDefault("MQTT_CLIENT_ID", "commute-weather")

	cfg.KafkaBrokers = splitList(os.Getenv("KAFKA_BROKERS"))
	cfg.KafkaTopic = getenvDefault("KAFKA_TOPIC", "commute-predictions")

	cfg.Port = getenvDefault("PORT", "8080")
	if cfg.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
