package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// Any field tagged with an env key may be overridden by the environment,
// which is how deployed instances inject secrets without a config file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains provider-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Fitbit  FitbitConfig  `toml:"fitbit"`
	YouTube YouTubeConfig `toml:"youtube"`
	Weather WeatherConfig `toml:"weather"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id" env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string `toml:"client_secret" env:"SPOTIFY_CLIENT_SECRET"`
	RedirectURI  string `toml:"redirect_uri" env:"SPOTIFY_REDIRECT_URI"`
}

// FitbitConfig contains Fitbit API credentials.
type FitbitConfig struct {
	ClientID     string `toml:"client_id" env:"FITBIT_CLIENT_ID"`
	ClientSecret string `toml:"client_secret" env:"FITBIT_CLIENT_SECRET"`
	RedirectURI  string `toml:"redirect_uri" env:"FITBIT_REDIRECT_URI"`
}

// YouTubeConfig contains YouTube Data API credentials.
type YouTubeConfig struct {
	APIKey string `toml:"api_key" env:"YOUTUBE_API_KEY"`
}

// WeatherConfig contains OpenWeatherMap credentials.
type WeatherConfig struct {
	APIKey string `toml:"api_key" env:"OPENWEATHER_API_KEY"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"DATABASE_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host" env:"HOST"`
	Port int    `toml:"port" env:"PORT"`
	// ClientOrigin is the origin of the browser client allowed by CORS
	// and the target of post-login redirects.
	ClientOrigin string `toml:"client_origin" env:"CLIENT_ORIGIN"`
}

// LoadConfig reads and parses a TOML configuration file from the specified
// path, then applies environment variable overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := applyEnvOverrides(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the
// embedded example config, with environment variable overrides applied.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	if err := applyEnvOverrides(&config); err != nil {
		panic(fmt.Sprintf("failed to apply environment overrides: %v", err))
	}
	return &config
}

func applyEnvOverrides(config *Config) error {
	for _, target := range []any{
		&config.Credentials.Spotify,
		&config.Credentials.Fitbit,
		&config.Credentials.YouTube,
		&config.Credentials.Weather,
		&config.Database,
		&config.Server,
	} {
		if err := env.Parse(target); err != nil {
			return fmt.Errorf("failed to parse environment overrides: %w", err)
		}
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidArgument)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
