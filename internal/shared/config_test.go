package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./musicagent.db" {
			t.Errorf("expected database path ./musicagent.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.LLM.Provider != ProviderOllama {
			t.Errorf("expected llm provider ollama, got %s", config.LLM.Provider)
		}

		if config.Agent.MaxCandidates != 5 {
			t.Errorf("expected max candidates 5, got %d", config.Agent.MaxCandidates)
		}

		if config.Credentials.Spotify.Configured() {
			t.Error("placeholder spotify credentials should not count as configured")
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); !errors.Is(err, ErrAlreadyExists) {
			t.Errorf("creating config file again should fail with ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[llm]
provider = "gemini"
model = "gemini-2.5-flash"
api_key = "key"
timeout = "5s"

[server]
host = "0.0.0.0"
port = 8080

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if config.Agent.PreviewSize != 5 {
			t.Errorf("missing keys should keep defaults, got preview size %d", config.Agent.PreviewSize)
		}

		d, err := config.LLM.TimeoutDuration()
		if err != nil || d != 5*time.Second {
			t.Errorf("expected 5s timeout, got %v (%v)", d, err)
		}

		if !config.Credentials.Spotify.Configured() {
			t.Error("expected spotify credentials to be configured")
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("API key from environment", func(t *testing.T) {
		t.Setenv(APIKeyEnv, "from-env")
		configPath := filepath.Join(t.TempDir(), "config.toml")
		body := "[llm]\nprovider = \"gemini\"\n"
		if err := os.WriteFile(configPath, []byte(body), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if config.LLM.APIKey != "from-env" {
			t.Errorf("expected api key from env, got %q", config.LLM.APIKey)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tt := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "gpt" }},
			{name: "ollama without host", mutate: func(c *Config) { c.LLM.Host = "" }},
			{name: "bad timeout", mutate: func(c *Config) { c.LLM.Timeout = "soon" }},
			{name: "negative rate", mutate: func(c *Config) { c.LLM.RequestsPerSecond = -1 }},
			{name: "zero candidates", mutate: func(c *Config) { c.Agent.MaxCandidates = 0 }},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				config := DefaultConfig()
				tc.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})
}
