package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jkalas/repcrm/internal/groq"
)

type Config struct {
	Server  ServerConfig
	Groq    GroqConfig
	Storage StorageConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type GroqConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4500,
		},
		Groq: GroqConfig{
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   groq.DefaultModel,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "repcrm-data"
		}
	}
	return filepath.Join(dir, "repcrm")
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/repcrm/config.json, then applies REPCRM_* environment
// variable overrides. The Groq API key is a secret: it is never stored in
// the file backend and must come from REPCRM_GROQ_API_KEY.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Groq.APIKey == "" {
		return Config{}, fmt.Errorf("missing required config: Groq API key. Set it via environment variable REPCRM_GROQ_API_KEY")
	}

	return cfg, nil
}
