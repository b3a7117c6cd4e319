package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080" validate:"required"`
	APIPrefix       string        `envconfig:"API_PREFIX" default:"/api" validate:"required,startswith=/"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`

	// Model artifacts.
	ModelPath           string  `envconfig:"MODEL_PATH" default:"artifacts/aqi_model.json" validate:"required"`
	FeatureListPath     string  `envconfig:"FEATURE_LIST_PATH" default:"artifacts/feature_list.json" validate:"required"`
	PredictionThreshold float64 `envconfig:"PREDICTION_THRESHOLD" default:"0.40" validate:"gt=0,lt=1"`
	CacheSize           int     `envconfig:"CACHE_SIZE" default:"1000" validate:"gt=0"`

	// Upstream providers.
	AirNowAPIKey    string        `envconfig:"AIRNOW_API_KEY"`
	AirNowBaseURL   string        `envconfig:"AIRNOW_BASE_URL" default:"https://www.airnowapi.org" validate:"url"`
	NWSUserAgent    string        `envconfig:"NWS_USER_AGENT" default:"AirWatch (contact@example.com)" validate:"required"`
	NWSBaseURL      string        `envconfig:"NWS_BASE_URL" default:"https://api.weather.gov" validate:"url"`
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s" validate:"gt=0"`
	DefaultZIP      string        `envconfig:"DEFAULT_ZIP" default:"08901" validate:"len=5,numeric"`

	// Mapbox geocoding for ZIP codes outside the built-in table.
	MapboxToken     string        `envconfig:"MAPBOX_TOKEN"`
	MapboxEnabled   bool          `envconfig:"MAPBOX_ENABLED"`
	MapboxBaseURL   string        `envconfig:"MAPBOX_BASE_URL" default:"https://api.mapbox.com" validate:"url"`
	MapboxTimeout   time.Duration `envconfig:"MAPBOX_TIMEOUT" default:"5s" validate:"gt=0"`
	MapboxCacheSize int           `envconfig:"MAPBOX_CACHE_SIZE" default:"1000" validate:"gt=0"`

	// Prediction publishing.
	KafkaBrokers     []string      `envconfig:"KAFKA_BROKERS"`
	KafkaTopic       string        `envconfig:"KAFKA_TOPIC" default:"aqi-predictions"`
	PublishEnabled   bool          `envconfig:"PUBLISH_ENABLED"`
	PublishInterval  time.Duration `envconfig:"PUBLISH_INTERVAL" default:"24h" validate:"gt=0"`
	PublishLocations []string      `envconfig:"PUBLISH_LOCATIONS" default:"08901" validate:"dive,len=5,numeric"`
}

// Load reads configuration from the environment (and an optional .env file),
// applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if _, set := os.LookupEnv("PUBLISH_ENABLED"); !set {
		cfg.PublishEnabled = len(cfg.KafkaBrokers) > 0
	}

	if _, set := os.LookupEnv("MAPBOX_ENABLED"); !set {
		cfg.MapboxEnabled = cfg.MapboxToken != ""
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.PublishEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("PUBLISH_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.PublishEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when publishing")
	}
	if cfg.PublishEnabled && len(cfg.PublishLocations) == 0 {
		return nil, errors.New("PUBLISH_LOCATIONS is required when publishing")
	}

	return &cfg, nil
}

// validate runs the struct tags and reports the first failure by its
// environment variable name.
func validate(cfg *Config) error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("envconfig")
	})

	err := v.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid %s %q: must satisfy %s", fe.Field(), fmt.Sprint(fe.Value()), ruleOf(fe))
	}
	return fmt.Errorf("validate config: %w", err)
}

func ruleOf(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
