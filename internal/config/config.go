// README: Config loader with env defaults for HTTP, DB, Redis, Maps, and dispatch settings.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// DispatchConfig collects every tuning constant of the driver pool in one
// place. All durations are plain seconds so they read naturally from env.
type DispatchConfig struct {
	// FineResolution is the H3 resolution of the fine index (~25 m cells),
	// reserved for tight-radius and same-cell lookups.
	FineResolution int `mapstructure:"fine_resolution"`
	// CoarseResolution is the H3 resolution of the coarse index (~350 m
	// cells) used by all query traversal.
	CoarseResolution int `mapstructure:"coarse_resolution"`
	// StalenessSeconds bounds how old a driver's last ping may be before
	// queries stop returning it.
	StalenessSeconds int `mapstructure:"staleness_seconds"`
	// EvictionCutoffSeconds is the silence threshold past which the janitor
	// drops a driver from the index entirely.
	EvictionCutoffSeconds int `mapstructure:"eviction_cutoff_seconds"`
	// EvictionPeriodSeconds is how often the janitor sweeps.
	EvictionPeriodSeconds int `mapstructure:"eviction_period_seconds"`
	// RatingTieThreshold is the rating gap above which the higher-rated
	// driver outranks regardless of distance.
	RatingTieThreshold float64 `mapstructure:"rating_tie_threshold"`
	// SpeedFloorKmh is the minimum speed assumed when estimating pickup
	// time, so a momentarily stationary driver is not rewarded.
	SpeedFloorKmh float64 `mapstructure:"speed_floor_kmh"`
	// TrafficCoefficient scales pickup estimates by local driver density.
	TrafficCoefficient float64 `mapstructure:"traffic_coefficient"`
	// DefaultRadiusKm and DefaultMaxResults apply when a query omits them.
	DefaultRadiusKm   float64 `mapstructure:"default_radius_km"`
	DefaultMaxResults int     `mapstructure:"default_max_results"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

type MapsConfig struct {
	// APIKey enables the Google Maps routing adapter; empty keeps the
	// planar fallback estimator.
	APIKey string `mapstructure:"api_key"`
	// FallbackSpeedKmh is the assumed travel speed behind planar duration
	// estimates when no routing provider answers.
	FallbackSpeedKmh float64 `mapstructure:"fallback_speed_kmh"`
}

type Config struct {
	Env      string         `mapstructure:"env"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	DB       DBConfig       `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Maps     MapsConfig     `mapstructure:"maps"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
}

// Load reads configuration from GET2YA_* environment variables, falling back
// to the defaults below for anything unset.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GET2YA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("http.addr", ":8080")
	// Empty DSN and Redis addr keep the API fully in memory. Set
	// GET2YA_DB_DSN and GET2YA_REDIS_ADDR to wire Postgres and the GEO
	// mirror.
	v.SetDefault("db.dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.fallback_speed_kmh", 30.0)

	v.SetDefault("dispatch.fine_resolution", 11)
	v.SetDefault("dispatch.coarse_resolution", 9)
	v.SetDefault("dispatch.staleness_seconds", 120)
	v.SetDefault("dispatch.eviction_cutoff_seconds", 300)
	v.SetDefault("dispatch.eviction_period_seconds", 60)
	v.SetDefault("dispatch.rating_tie_threshold", 0.3)
	v.SetDefault("dispatch.speed_floor_kmh", 20.0)
	v.SetDefault("dispatch.traffic_coefficient", 0.05)
	v.SetDefault("dispatch.default_radius_km", 3.0)
	v.SetDefault("dispatch.default_max_results", 5)
}
