package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "moodtunes.db" {
			t.Errorf("expected database path moodtunes.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3001 {
			t.Errorf("expected server port 3001, got %d", config.Server.Port)
		}

		if config.Server.ClientOrigin != "http://localhost:3000" {
			t.Errorf("expected client origin http://localhost:3000, got %s", config.Server.ClientOrigin)
		}

		if config.Credentials.Spotify.RedirectURI != "http://localhost:3001/callback" {
			t.Errorf("expected spotify redirect URI, got %s", config.Credentials.Spotify.RedirectURI)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("Parses TOML Values", func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.toml")

			content := `
[credentials.spotify]
client_id = "my_client"
client_secret = "my_secret"

[credentials.youtube]
api_key = "yt_key"

[database]
path = "custom.db"

[server]
host = "127.0.0.1"
port = 9000
client_origin = "https://app.example.com"
`
			if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			config, err := LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}

			if config.Credentials.Spotify.ClientID != "my_client" {
				t.Errorf("expected spotify client_id my_client, got %s", config.Credentials.Spotify.ClientID)
			}
			if config.Credentials.YouTube.APIKey != "yt_key" {
				t.Errorf("expected youtube api_key yt_key, got %s", config.Credentials.YouTube.APIKey)
			}
			if config.Server.Port != 9000 {
				t.Errorf("expected port 9000, got %d", config.Server.Port)
			}
		})

		t.Run("Environment Overrides", func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.toml")

			if err := os.WriteFile(configPath, []byte("[server]\nport = 9000\n"), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			t.Setenv("PORT", "9100")
			t.Setenv("SPOTIFY_CLIENT_ID", "env_client")

			config, err := LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}

			if config.Server.Port != 9100 {
				t.Errorf("expected env override port 9100, got %d", config.Server.Port)
			}
			if config.Credentials.Spotify.ClientID != "env_client" {
				t.Errorf("expected env client id, got %s", config.Credentials.Spotify.ClientID)
			}
		})

		t.Run("Missing File", func(t *testing.T) {
			if _, err := LoadConfig("/nonexistent/config.toml"); err == nil {
				t.Error("expected error for missing file")
			}
		})
	})
}
