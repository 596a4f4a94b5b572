package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AI struct {
		Provider    string  `yaml:"provider"`
		Model       string  `yaml:"model"`
		APIKey      string  `yaml:"api_key"`
		BaseURL     string  `yaml:"base_url"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"ai"`
	Server struct {
		Addr   string `yaml:"addr"`
		DBPath string `yaml:"db_path"`
	} `yaml:"server"`
	Defaults struct {
		Palette string `yaml:"palette"`
	} `yaml:"defaults"`
}

// Load reads the YAML config file, layering .env and environment variable
// overrides on top. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	var cfg Config

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if apiKey := os.Getenv("SKETCHFLOW_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if provider := os.Getenv("SKETCHFLOW_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if model := os.Getenv("SKETCHFLOW_MODEL"); model != "" {
		cfg.AI.Model = model
	}
	if addr := os.Getenv("SKETCHFLOW_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8420"
	}
	if c.Server.DBPath == "" {
		c.Server.DBPath = "sketchflow.db"
	}
	if c.Defaults.Palette == "" {
		c.Defaults.Palette = "vibrant"
	}
}
