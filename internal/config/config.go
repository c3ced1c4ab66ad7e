package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the compass service.
//
// Fields:
// - Env: The current environment (e.g. local, development, production).
// - Port: The port for the caller-facing search API.
// - MonitorPort: The port for the monitoring (healthz/metrics) server.
// - ProviderType: The geocoding provider to use (google, nominatim).
// - APIKey: The API key for the provider (required for Google).
// - ProviderRateLimit: Requests-per-second cap for the Google provider client.
// - GeocodeInterval: Minimum interval between geocode requests to the provider.
// - LookupTimeout: Deadline for a single background geocode lookup.
// - PageSize: Default number of items per result page.
// - DefaultLatitude/DefaultLongitude: Fallback search center when geolocation is unavailable.
// - DefaultRadiusKm: Default search radius.
// - Database: Configuration settings for the PostgreSQL database.
type Config struct {
	Env               string
	Port              int
	MonitorPort       int
	ProviderType      string
	APIKey            string
	ProviderRateLimit int
	GeocodeInterval   time.Duration
	LookupTimeout     time.Duration
	PageSize          int
	DefaultLatitude   float64
	DefaultLongitude  float64
	DefaultRadiusKm   float64
	Database          PostgresConfig
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// MustLoad loads the configuration from the environment (a .env file is
// honoured when present) and panics on malformed values.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("COMPASS_ENV", "production")
	v.SetDefault("COMPASS_PORT", 8080)
	v.SetDefault("COMPASS_MONITOR_PORT", 9090)
	v.SetDefault("COMPASS_PROVIDER_TYPE", "nominatim")
	v.SetDefault("COMPASS_PROVIDER_RATE_LIMIT", 50)
	v.SetDefault("COMPASS_GEOCODE_INTERVAL", "1s")
	v.SetDefault("COMPASS_LOOKUP_TIMEOUT", "10s")
	v.SetDefault("COMPASS_PAGE_SIZE", 20)
	// Fixed fallback search center: Johannesburg.
	v.SetDefault("COMPASS_DEFAULT_LAT", -26.2041)
	v.SetDefault("COMPASS_DEFAULT_LON", 28.0473)
	v.SetDefault("COMPASS_DEFAULT_RADIUS_KM", 50.0)
	v.SetDefault("DB_PORT", "5432")

	interval, err := time.ParseDuration(v.GetString("COMPASS_GEOCODE_INTERVAL"))
	if err != nil {
		panic("failed to parse geocode interval from configuration")
	}

	lookupTimeout, err := time.ParseDuration(v.GetString("COMPASS_LOOKUP_TIMEOUT"))
	if err != nil {
		panic("failed to parse lookup timeout from configuration")
	}

	return &Config{
		Env:               v.GetString("COMPASS_ENV"),
		Port:              v.GetInt("COMPASS_PORT"),
		MonitorPort:       v.GetInt("COMPASS_MONITOR_PORT"),
		ProviderType:      v.GetString("COMPASS_PROVIDER_TYPE"),
		APIKey:            v.GetString("COMPASS_PROVIDER_KEY"),
		ProviderRateLimit: v.GetInt("COMPASS_PROVIDER_RATE_LIMIT"),
		GeocodeInterval:   interval,
		LookupTimeout:     lookupTimeout,
		PageSize:          v.GetInt("COMPASS_PAGE_SIZE"),
		DefaultLatitude:   v.GetFloat64("COMPASS_DEFAULT_LAT"),
		DefaultLongitude:  v.GetFloat64("COMPASS_DEFAULT_LON"),
		DefaultRadiusKm:   v.GetFloat64("COMPASS_DEFAULT_RADIUS_KM"),
		Database: PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USERNAME"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
		},
	}
}
