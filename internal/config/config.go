package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env          string
	Addr         string
	PublicURL    *url.URL
	DBDSN        string
	CookieSecret string
	SessionTTL   time.Duration
	LogLevel     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SnapshotTTL   time.Duration
	RailsTTL      time.Duration

	MoviesAPIURL string
	PeopleAPIURL string

	RecommendationYear int
	RailLimit          int
	PersonLookupCap    int

	ImportToken string
}

func Load() (Config, error) {
	// A .env file is a dev convenience; real environments set vars directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return LoadFromEnv(os.Getenv)
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:           getenv("APP_ENV"),
		Addr:          getenv("APP_ADDR"),
		DBDSN:         getenv("APP_DB_DSN"),
		LogLevel:      getenv("APP_LOG_LEVEL"),
		CookieSecret:  getenv("APP_COOKIE_SECRET"),
		RedisAddr:     getenv("APP_REDIS_ADDR"),
		RedisPassword: getenv("APP_REDIS_PASSWORD"),
		MoviesAPIURL:  getenv("APP_MOVIES_API_URL"),
		PeopleAPIURL:  getenv("APP_PEOPLE_API_URL"),
		ImportToken:   getenv("APP_IMPORT_TOKEN"),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	if cfg.MoviesAPIURL == "" {
		cfg.MoviesAPIURL = "http://localhost:5001"
	}
	if cfg.PeopleAPIURL == "" {
		cfg.PeopleAPIURL = "http://localhost:5002"
	}

	publicURLRaw := getenv("APP_PUBLIC_URL")
	if publicURLRaw != "" {
		parsed, err := url.Parse(publicURLRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_PUBLIC_URL: %w", err)
		}
		if !parsed.IsAbs() || parsed.Host == "" {
			return Config{}, errors.New("APP_PUBLIC_URL: must be an absolute URL")
		}
		switch parsed.Scheme {
		case "http", "https":
		default:
			return Config{}, errors.New("APP_PUBLIC_URL: scheme must be http or https")
		}
		cfg.PublicURL = parsed
	}

	var err error
	cfg.SessionTTL, err = durationEnv(getenv, "APP_SESSION_TTL", 30*24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.SnapshotTTL, err = durationEnv(getenv, "APP_SNAPSHOT_TTL", time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.RailsTTL, err = durationEnv(getenv, "APP_RAILS_TTL", time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg.RedisDB, err = intEnv(getenv, "APP_REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	cfg.RecommendationYear, err = intEnv(getenv, "APP_RECOMMENDATION_YEAR", time.Now().UTC().Year())
	if err != nil {
		return Config{}, err
	}
	cfg.RailLimit, err = intEnv(getenv, "APP_RAIL_LIMIT", 18)
	if err != nil {
		return Config{}, err
	}
	cfg.PersonLookupCap, err = intEnv(getenv, "APP_PERSON_LOOKUP_CAP", 12)
	if err != nil {
		return Config{}, err
	}

	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	if cfg.IsProd() {
		if cfg.PublicURL == nil {
			return Config{}, errors.New("APP_PUBLIC_URL: required in prod")
		}
		if cfg.DBDSN == "" {
			return Config{}, errors.New("APP_DB_DSN: required in prod")
		}
		if len(cfg.CookieSecret) < 32 {
			return Config{}, errors.New("APP_COOKIE_SECRET: must be at least 32 bytes in prod")
		}
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func (c Config) CookieSecure() bool {
	if c.PublicURL != nil {
		return c.PublicURL.Scheme == "https"
	}
	return c.IsProd()
}

func durationEnv(getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be > 0", key)
	}
	return d, nil
}

func intEnv(getenv func(string) string, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
