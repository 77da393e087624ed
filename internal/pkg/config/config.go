package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
	Geocoder  GeocoderConfig  `mapstructure:"geocoder"`
	Location  LocationConfig  `mapstructure:"location"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GeocoderConfig selects the address lookup backend.
type GeocoderConfig struct {
	Provider       string  `mapstructure:"provider"` // "google" or "none"
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Region         string  `mapstructure:"region"`
	RateLimit      int     `mapstructure:"rate_limit"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RetryAttempts  int     `mapstructure:"retry_attempts"`
	CacheTTLHours  float64 `mapstructure:"cache_ttl_hours"`
}

func (g GeocoderConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// LocationConfig selects how the service asks "where am I" on behalf of a kiosk.
type LocationConfig struct {
	Device         string `mapstructure:"device"` // "none", "gps" or "google"
	GPSPort        string `mapstructure:"gps_port"`
	GPSBaud        int    `mapstructure:"gps_baud"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (l LocationConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

type DiscoveryConfig struct {
	DefaultRadiusKm   float64   `mapstructure:"default_radius_km"`
	MaxRadiusKm       float64   `mapstructure:"max_radius_km"`
	ExpansionStepsKm  []float64 `mapstructure:"expansion_steps_km"`
	CatalogTTLSeconds int       `mapstructure:"catalog_ttl_seconds"`
	GeohashThreshold  int       `mapstructure:"geohash_threshold"`
	ProductBatchSize  int       `mapstructure:"product_batch_size"`
	DefaultLimit      int       `mapstructure:"default_limit"`
	MaxLimit          int       `mapstructure:"max_limit"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: LOCALMART_DATABASE_HOST → database.host
	v.SetEnvPrefix("LOCALMART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "localmart")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "storefront")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("geocoder.provider", "google")
	v.SetDefault("geocoder.api_key", "")
	v.SetDefault("geocoder.base_url", "")
	v.SetDefault("geocoder.region", "")
	v.SetDefault("geocoder.rate_limit", 50)
	v.SetDefault("geocoder.timeout_seconds", 10)
	v.SetDefault("geocoder.retry_attempts", 3)
	v.SetDefault("geocoder.cache_ttl_hours", 24)

	v.SetDefault("location.device", "none")
	v.SetDefault("location.gps_port", "/dev/ttyUSB0")
	v.SetDefault("location.gps_baud", 4800)
	v.SetDefault("location.timeout_seconds", 12)

	v.SetDefault("discovery.default_radius_km", 5.0)
	v.SetDefault("discovery.max_radius_km", 50.0)
	v.SetDefault("discovery.expansion_steps_km", []float64{1, 2, 5, 10, 25, 50})
	v.SetDefault("discovery.catalog_ttl_seconds", 30)
	v.SetDefault("discovery.geohash_threshold", 500)
	v.SetDefault("discovery.product_batch_size", 10)
	v.SetDefault("discovery.default_limit", 20)
	v.SetDefault("discovery.max_limit", 100)

	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "store-geocoding")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	switch c.Geocoder.Provider {
	case "google":
		if c.Geocoder.APIKey == "" {
			errs = append(errs, "geocoder.api_key is required when geocoder.provider is google")
		}
	case "none":
	default:
		errs = append(errs, fmt.Sprintf("geocoder.provider must be google or none, got %q", c.Geocoder.Provider))
	}
	if c.Geocoder.RetryAttempts < 1 {
		errs = append(errs, "geocoder.retry_attempts must be at least 1")
	}
	if c.Geocoder.TimeoutSeconds <= 0 {
		errs = append(errs, "geocoder.timeout_seconds must be positive")
	}

	switch c.Location.Device {
	case "none", "google":
	case "gps":
		if c.Location.GPSPort == "" {
			errs = append(errs, "location.gps_port is required when location.device is gps")
		}
		if c.Location.GPSBaud <= 0 {
			errs = append(errs, "location.gps_baud must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("location.device must be none, gps or google, got %q", c.Location.Device))
	}
	if c.Location.TimeoutSeconds < 1 || c.Location.TimeoutSeconds > 60 {
		errs = append(errs, fmt.Sprintf("location.timeout_seconds must be 1-60, got %d", c.Location.TimeoutSeconds))
	}

	d := c.Discovery
	if !positive(d.MaxRadiusKm) {
		errs = append(errs, "discovery.max_radius_km must be positive")
	}
	if !positive(d.DefaultRadiusKm) || d.DefaultRadiusKm > d.MaxRadiusKm {
		errs = append(errs, "discovery.default_radius_km must be positive and not exceed max_radius_km")
	}
	for _, s := range d.ExpansionStepsKm {
		if !positive(s) {
			errs = append(errs, fmt.Sprintf("discovery.expansion_steps_km contains invalid step %v", s))
			break
		}
	}
	if d.CatalogTTLSeconds <= 0 {
		errs = append(errs, "discovery.catalog_ttl_seconds must be positive")
	}
	if d.GeohashThreshold < 0 {
		errs = append(errs, "discovery.geohash_threshold must not be negative")
	}
	if d.ProductBatchSize <= 0 {
		errs = append(errs, "discovery.product_batch_size must be positive")
	}
	if d.DefaultLimit <= 0 || d.MaxLimit < d.DefaultLimit {
		errs = append(errs, "discovery.default_limit must be positive and not exceed max_limit")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
