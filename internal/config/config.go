package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds all user-facing configuration for travel-scout.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Backend  BackendConfig  `toml:"backend"`
	Geocode  GeocodeConfig  `toml:"geocode"`
	Fetch    FetchConfig    `toml:"fetch"`
	Generate GenerateConfig `toml:"generate"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type BackendConfig struct {
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	TopK        int     `toml:"top_k"`
}

type GeocodeConfig struct {
	BaseURL   string  `toml:"base_url"`
	RateLimit float64 `toml:"rate_limit"`
}

type FetchConfig struct {
	Attempts     int `toml:"attempts"`
	DelaySeconds int `toml:"delay_seconds"`
}

type GenerateConfig struct {
	Attempts int `toml:"attempts"`
}

// Defaults returns a Config populated with built-in default values.
func Defaults() *Config {
	return &Config{
		Server:   ServerConfig{Host: "localhost", Port: 8080},
		Backend:  BackendConfig{Model: "gemini-2.0-flash", Temperature: 1.0, TopK: 3},
		Geocode:  GeocodeConfig{BaseURL: "https://nominatim.openstreetmap.org", RateLimit: 1.0},
		Fetch:    FetchConfig{Attempts: 5, DelaySeconds: 1},
		Generate: GenerateConfig{Attempts: 3},
	}
}

// Load reads a TOML config file. If the file does not exist, built-in
// defaults are returned without error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
