package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/minhvh/vieclam/internal/geo"
)

type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
	Geofence      GeofenceConfig `yaml:"geofence"`
	// PolicyPath points at a scoring-policy JSON document; empty means the
	// embedded default table.
	PolicyPath       string        `yaml:"policy_path"`
	ReminderInterval time.Duration `yaml:"reminder_interval"`
	WorkerCount      int           `yaml:"worker_count"`
}

type GeofenceConfig struct {
	// RadiusMeters is the acceptance radius around a work site.
	RadiusMeters float64 `yaml:"radius_meters"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("VIECLAM_ADDR", ":8080"),
		JWTSecret:     getEnv("VIECLAM_JWT_SECRET", "supersecretkey"),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("VIECLAM_DATABASE_PATH", "vieclam.db"),
		TokenDuration: 24 * time.Hour,
		Geofence: GeofenceConfig{
			RadiusMeters: geo.DefaultRadiusMeters,
		},
		PolicyPath:       getEnv("VIECLAM_POLICY_PATH", ""),
		ReminderInterval: time.Minute,
		WorkerCount:      2,
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate rejects configurations that must never reach production: the
// default JWT secret outside development, and nonsensical tuning values.
func (c *Config) Validate() error {
	env := getEnv("VIECLAM_ENV", "development")
	if env != "development" && c.JWTSecret == "supersecretkey" {
		return fmt.Errorf("refusing to run with the default jwt_secret in %s", env)
	}
	if c.Geofence.RadiusMeters <= 0 {
		return fmt.Errorf("geofence radius_meters must be positive, got %v", c.Geofence.RadiusMeters)
	}
	if c.TokenDuration <= 0 {
		return fmt.Errorf("token_duration must be positive")
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("worker_count must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
