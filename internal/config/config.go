package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/hazard-score/internal/layers"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string `validate:"required"`
	LogLevel        string `validate:"oneof=debug info warn error"`
	LogFormat       string `validate:"oneof=json text"`
	ShutdownTimeout time.Duration

	// Hazard layer files, relative to LayerDir unless absolute.
	LayerDir   string `validate:"required"`
	FloodLayer string `validate:"required"`
	FireLayer  string `validate:"required"`
	QuakeLayer string `validate:"required"`
	StormLayer string `validate:"required"`

	// ModelPath points at a trained classifier; a missing file means rules only.
	ModelPath string

	// Assessment publishing.
	KafkaEnabled         bool
	KafkaBrokers         []string `validate:"required_if=KafkaEnabled true,dive,hostname_port"`
	KafkaAssessmentTopic string   `validate:"required_if=KafkaEnabled true"`

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeoutStr := sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s")
	mapboxTimeout, err2 := time.ParseDuration(mapboxTimeoutStr)
	if err2 != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	mapboxCacheSize := parseMapboxCacheSize()

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		LayerDir:   sharedcfg.EnvOrDefault("LAYER_DIR", "data/processed"),
		FloodLayer: sharedcfg.EnvOrDefault("FLOOD_LAYER", "flood.geojson"),
		FireLayer:  sharedcfg.EnvOrDefault("FIRE_LAYER", "fire.geojson"),
		QuakeLayer: sharedcfg.EnvOrDefault("QUAKE_LAYER", "quake.geojson"),
		StormLayer: sharedcfg.EnvOrDefault("STORM_LAYER", "storm.geojson"),
		ModelPath:  sharedcfg.EnvOrDefault("MODEL_PATH", "models/model.json.zst"),

		KafkaEnabled:         kafkaEnabled,
		KafkaBrokers:         sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAssessmentTopic: sharedcfg.EnvOrDefault("KAFKA_ASSESSMENT_TOPIC", "hazard-assessments"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: mapboxCacheSize,
	}

	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LayerPaths resolves the four layer files against LayerDir.
func (c *Config) LayerPaths() layers.Paths {
	return layers.PathsIn(c.LayerDir, c.FloodLayer, c.FireLayer, c.QuakeLayer, c.StormLayer)
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
