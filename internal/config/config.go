package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Output  Output  `yaml:"output"`
	Movers  Movers  `yaml:"movers"`
	News    News    `yaml:"news"`
	Gemini  Gemini  `yaml:"gemini"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Movers struct {
	TopN int `yaml:"top_n"`
}

type News struct {
	MaxArticlesKR int    `yaml:"max_articles_kr"`
	MaxArticlesUS int    `yaml:"max_articles_us"`
	LookbackDays  int    `yaml:"lookback_days"`
	MaxPages      int    `yaml:"max_pages"`
	UserAgent     string `yaml:"user_agent"`
}

type Gemini struct {
	APIKeyEnv          string `yaml:"api_key_env"`
	SelectModel        string `yaml:"select_model"`
	BatchModel         string `yaml:"batch_model"`
	BatchFallbackModel string `yaml:"batch_fallback_model"`
	BootstrapModel     string `yaml:"bootstrap_model"`
	SelectTimeoutSecs  int    `yaml:"select_timeout_secs"`
	BatchTimeoutSecs   int    `yaml:"batch_timeout_secs"`
	BatchDelaySecs     int    `yaml:"batch_delay_secs"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for stocksignal.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "stocksignal")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/stocksignal/config.yaml > ./config.yaml.
// When none exists the embedded defaults are used (empty path).
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads and parses a config YAML file. An empty path loads the
// embedded defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return parse(DefaultConfigYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Output: Output{DataDir: "data"},
		Movers: Movers{TopN: 10},
		News: News{
			MaxArticlesKR: 20,
			MaxArticlesUS: 5,
			LookbackDays:  3,
			MaxPages:      15,
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		},
		Gemini: Gemini{
			APIKeyEnv:          "GEMINI_API_KEY",
			SelectModel:        "gemini-2.5-flash-lite",
			BatchModel:         "gemini-2.5-pro",
			BatchFallbackModel: "gemini-2.5-flash",
			BootstrapModel:     "gemini-2.0-flash",
			SelectTimeoutSecs:  10,
			BatchTimeoutSecs:   45,
			BatchDelaySecs:     3,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}
}

// APIKey reads the Gemini API key from the configured environment
// variable. Empty means the LLM-assisted paths are disabled.
func (g Gemini) APIKey() string {
	return os.Getenv(g.APIKeyEnv)
}

// GetDataDir returns the effective data directory.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return "data"
}

// MetadataPath returns the stock metadata JSON path under the data dir.
func (c *Config) MetadataPath() string {
	return filepath.Join(c.GetDataDir(), "stock_metadata.json")
}

// CachePath returns the local cache database path under the data dir.
func (c *Config) CachePath() string {
	return filepath.Join(c.GetDataDir(), "stocksignal.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
