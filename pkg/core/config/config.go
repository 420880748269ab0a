// Package config loads service settings from config/engine.yaml and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// DefaultPath is where the service looks for its YAML file.
const DefaultPath = "config/engine.yaml"

// Config is the full service configuration.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`

	Cache struct {
		Dir string `yaml:"dir"`
	} `yaml:"cache"`

	Engine EngineConfig `yaml:"engine"`
}

// EngineConfig holds the valuation defaults applied to requests that leave them out.
type EngineConfig struct {
	DiscountRate     float64 `yaml:"discount_rate"`
	AmortizationRate float64 `yaml:"amortization_rate"`
	DriverTopN       int     `yaml:"driver_top_n"`
	IncludeMonthly   bool    `yaml:"include_monthly"`
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	c.Server.Port = "8080"
	c.Cache.Dir = ".cache/lease/analyses"
	c.Engine = EngineConfig{
		DiscountRate:     0.08,
		AmortizationRate: 0.08,
		DriverTopN:       3,
		IncludeMonthly:   true,
	}
	return c
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		fmt.Printf("[CONFIG] %s not found, using defaults\n", path)
	case err != nil:
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.Getenv)
	cfg.fillZeroes()
	return cfg, nil
}

// ApplyEnv overrides fields from DATABASE_URL, PORT, LEASE_CACHE_DIR and
// LEASE_DISCOUNT_RATE when they are set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := getenv("LEASE_CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
	if v := getenv("LEASE_DISCOUNT_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			c.Engine.DiscountRate = rate
		} else {
			fmt.Printf("[CONFIG] ignoring LEASE_DISCOUNT_RATE=%q: %v\n", v, err)
		}
	}
}

func (c *Config) fillZeroes() {
	d := Default()
	if c.Server.Port == "" {
		c.Server.Port = d.Server.Port
	}
	if c.Engine.DriverTopN <= 0 {
		c.Engine.DriverTopN = d.Engine.DriverTopN
	}
	if c.Engine.DiscountRate <= -1 {
		c.Engine.DiscountRate = d.Engine.DiscountRate
	}
	if c.Engine.AmortizationRate < 0 {
		c.Engine.AmortizationRate = d.Engine.AmortizationRate
	}
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Server.Port
}
