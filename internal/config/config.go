package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Table cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// DefaultBoundaryPath is where the state boundary shapefile is unpacked by default.
const DefaultBoundaryPath = "India_boundry/India-State-and-Country-Shapefile-Updated-Jan-2020-master/India_State_Boundary.shp"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Input datasets.
	RainfallPath      string
	RainfallVar       string
	TimeVar           string
	LatVar            string
	LonVar            string
	BoundaryPath      string
	BoundaryNameField string

	// Aggregation.
	WeekAnchor     domain.WeekAnchor
	ClipToBoundary bool

	// Weekly table cache.
	CacheBackend  string
	CacheSize     int
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Render rate limiting; a zero RenderRateLimit disables it.
	RenderRateLimit float64
	RenderBurst     int

	// Weekly snapshot export.
	KafkaBrokers     []string
	KafkaExportTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	anchor, err := domain.ParseWeekAnchor(sharedcfg.EnvOrDefault("WEEK_ANCHOR", string(domain.WeekAnchorJan1)))
	if err != nil {
		return nil, fmt.Errorf("invalid WEEK_ANCHOR: %w", err)
	}

	clip, err := parseBool("CLIP_TO_BOUNDARY", false)
	if err != nil {
		return nil, err
	}

	cacheTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("CACHE_TTL", "1h"))
	if err != nil || cacheTTL < 0 {
		return nil, errors.New("invalid CACHE_TTL")
	}

	cacheSize, err := parseInt("CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	redisDB, err := parseInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	burst, err := parseInt("RENDER_BURST", 10)
	if err != nil {
		return nil, err
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("RENDER_RATE_LIMIT", "5"), 64)
	if err != nil || rateLimit < 0 {
		return nil, errors.New("invalid RENDER_RATE_LIMIT")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		RainfallPath:      sharedcfg.EnvOrDefault("RAINFALL_PATH", "1901-2022.nc"),
		RainfallVar:       sharedcfg.EnvOrDefault("RAINFALL_VAR", "RAINFALL"),
		TimeVar:           sharedcfg.EnvOrDefault("TIME_VAR", "TIME"),
		LatVar:            sharedcfg.EnvOrDefault("LAT_VAR", "LATITUDE"),
		LonVar:            sharedcfg.EnvOrDefault("LON_VAR", "LONGITUDE"),
		BoundaryPath:      sharedcfg.EnvOrDefault("BOUNDARY_PATH", DefaultBoundaryPath),
		BoundaryNameField: sharedcfg.EnvOrDefault("BOUNDARY_NAME_FIELD", "State_Name"),

		WeekAnchor:     anchor,
		ClipToBoundary: clip,

		CacheBackend:  sharedcfg.EnvOrDefault("CACHE_BACKEND", CacheMemory),
		CacheSize:     cacheSize,
		CacheTTL:      cacheTTL,
		RedisAddr:     sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		RenderRateLimit: rateLimit,
		RenderBurst:     burst,

		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaExportTopic: sharedcfg.EnvOrDefault("KAFKA_EXPORT_TOPIC", "weekly-rainfall"),
	}

	switch cfg.CacheBackend {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q", cfg.CacheBackend)
	}
	if cfg.CacheBackend == CacheMemory && cfg.CacheSize <= 0 {
		return nil, errors.New("CACHE_SIZE must be positive")
	}
	if cfg.CacheBackend == CacheRedis && cfg.RedisAddr == "" {
		return nil, errors.New("CACHE_BACKEND is redis but REDIS_ADDR is not set")
	}
	if cfg.RenderRateLimit > 0 && cfg.RenderBurst <= 0 {
		return nil, errors.New("RENDER_BURST must be positive when RENDER_RATE_LIMIT is set")
	}
	if cfg.RainfallPath == "" {
		return nil, errors.New("RAINFALL_PATH is required")
	}
	if cfg.BoundaryPath == "" {
		return nil, errors.New("BOUNDARY_PATH is required")
	}

	return cfg, nil
}

// ExportConfig validates the settings needed to publish weekly snapshots.
func (c *Config) ExportConfig() error {
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.KafkaExportTopic == "" {
		return errors.New("KAFKA_EXPORT_TOPIC is required")
	}
	return nil
}

func parseInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}

func parseBool(name string, def bool) (bool, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s", name)
	}
	return b, nil
}
