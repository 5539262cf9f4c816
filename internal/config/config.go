package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the maps service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port of the HTTP API.
// - Geocoder: Which geocoding provider to use and how to reach it.
// - Router: Which routing backend to use and how to reach it.
// - Cache: Lifetime of cached geocode results.
// - Database: Configuration settings for the PostgreSQL database (optional).
// - Discovery: Settings for the discovery client used by the probe tool.
type Config struct {
	Env       string          `mapstructure:"env"`       // Env is the current environment: local, development, production.
	Port      int             `mapstructure:"port"`      // Port is the HTTP API port.
	Geocoder  GeocoderConfig  `mapstructure:"geocoder"`  // Geocoder selects the geocoding provider.
	Router    RouterConfig    `mapstructure:"router"`    // Router selects the routing backend.
	Cache     CacheConfig     `mapstructure:"cache"`     // Cache controls the place cache lifetime.
	Database  PostgresConfig  `mapstructure:"postgres"`  // Database holds the postgres database configuration.
	Discovery DiscoveryConfig `mapstructure:"discovery"` // Discovery configures the client side of the maps API.
}

// GeocoderConfig describes the geocoding provider.
type GeocoderConfig struct {
	Provider  string `mapstructure:"provider"`   // google, nominatim or visicom
	APIKey    string `mapstructure:"api_key"`    // Required for google and visicom
	BaseURL   string `mapstructure:"base_url"`   // Overrides the public Nominatim endpoint
	UserAgent string `mapstructure:"user_agent"` // Sent to Nominatim per its usage policy
	RateLimit int    `mapstructure:"rate_limit"` // Requests per second, 0 uses the provider default
}

// RouterConfig describes the routing backend.
type RouterConfig struct {
	Provider string `mapstructure:"provider"` // osrm or google
	BaseURL  string `mapstructure:"base_url"` // Overrides the public OSRM endpoint
	APIKey   string `mapstructure:"api_key"`  // Required for google
}

// CacheConfig controls the lifetime of cached geocode results.
type CacheConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
// An empty Host disables the place cache.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`     // Host is the database server address.
	Port     string `mapstructure:"port"`     // Port is the database server port.
	User     string `mapstructure:"user"`     // User is the database user.
	Password string `mapstructure:"password"` // Password is the database user's password.
	Name     string `mapstructure:"db_name"`  // Name is the name of the database.
}

// DiscoveryConfig points the discovery client at a maps API.
type DiscoveryConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"` // Zero means no client-side timeout.
}

// MustLoad loads the configuration from an optional .env file, an optional
// config.yaml and COMPASS_-prefixed environment variables, in increasing
// priority, and returns a Config struct. It panics on malformed values.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if path, ok := os.LookupEnv("COMPASS_CONFIG_FILE"); ok {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &viper.ConfigFileNotFoundError{}) {
		panic("failed to read configuration file")
	}

	// COMPASS_CACHE_TTL -> cache.ttl
	v.SetEnvPrefix("COMPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	port, err := strconv.Atoi(v.GetString("port"))
	if err != nil {
		panic("failed to parse port for maps server from configuration")
	}

	rateLimit, err := strconv.Atoi(v.GetString("geocoder.rate_limit"))
	if err != nil {
		panic("failed to parse geocoder rate limit from configuration, must be an integer types")
	}

	ttl, err := time.ParseDuration(v.GetString("cache.ttl"))
	if err != nil {
		panic("failed to parse cache ttl from configuration")
	}

	pruneInterval, err := time.ParseDuration(v.GetString("cache.prune_interval"))
	if err != nil {
		panic("failed to parse cache prune interval from configuration")
	}

	discoveryTimeout, err := time.ParseDuration(v.GetString("discovery.timeout"))
	if err != nil {
		panic("failed to parse discovery timeout from configuration")
	}

	return &Config{
		Env:  v.GetString("env"),
		Port: port,
		Geocoder: GeocoderConfig{
			Provider:  v.GetString("geocoder.provider"),
			APIKey:    v.GetString("geocoder.api_key"),
			BaseURL:   v.GetString("geocoder.base_url"),
			UserAgent: v.GetString("geocoder.user_agent"),
			RateLimit: rateLimit,
		},
		Router: RouterConfig{
			Provider: v.GetString("router.provider"),
			BaseURL:  v.GetString("router.base_url"),
			APIKey:   v.GetString("router.api_key"),
		},
		Cache: CacheConfig{
			TTL:           ttl,
			PruneInterval: pruneInterval,
		},
		Database: PostgresConfig{
			Host:     v.GetString("postgres.host"),
			Port:     v.GetString("postgres.port"),
			User:     v.GetString("postgres.user"),
			Password: v.GetString("postgres.password"),
			Name:     v.GetString("postgres.db_name"),
		},
		Discovery: DiscoveryConfig{
			BaseURL: v.GetString("discovery.base_url"),
			Timeout: discoveryTimeout,
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "production")
	v.SetDefault("port", "8080")
	v.SetDefault("geocoder.provider", "nominatim")
	v.SetDefault("geocoder.api_key", "")
	v.SetDefault("geocoder.base_url", "")
	v.SetDefault("geocoder.user_agent", "")
	v.SetDefault("geocoder.rate_limit", "0")
	v.SetDefault("router.provider", "osrm")
	v.SetDefault("router.base_url", "")
	v.SetDefault("router.api_key", "")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.prune_interval", "1h")
	v.SetDefault("postgres.host", "")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db_name", "")
	v.SetDefault("discovery.base_url", "http://localhost:8080")
	v.SetDefault("discovery.timeout", "0s")
}

