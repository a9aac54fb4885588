package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GeminiConfig holds connection details for the Google Generative Language API.
type GeminiConfig struct {
	BaseURL        string `yaml:"base_url"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
	TimeoutSecs    int    `yaml:"timeout_secs"`
}

// OpenAIConfig holds connection details for an OpenAI-compatible backend.
type OpenAIConfig struct {
	BaseURL        string `yaml:"base_url"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
}

// ProviderConfig selects and configures the model provider.
type ProviderConfig struct {
	Type   string        `yaml:"type"`
	Gemini *GeminiConfig `yaml:"gemini,omitempty"`
	OpenAI *OpenAIConfig `yaml:"openai,omitempty"`
}

// StoreConfig configures where the per-topic record stores live.
type StoreConfig struct {
	Dir string `yaml:"dir"`
}

// RetrievalConfig configures context retrieval.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// WebConfig configures the HTTP chat server.
type WebConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Provider    ProviderConfig  `yaml:"provider"`
	Store       StoreConfig     `yaml:"store"`
	Retrieval   RetrievalConfig `yaml:"retrieval"`
	Web         WebConfig       `yaml:"web"`
	Development bool            `yaml:"development"`
}

// APIKeyEnvVars lists the environment variables checked, in order, when no
// explicit API key is passed on the command line.
var APIKeyEnvVars = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/macgpt/config.yaml.
// If neither exists, it writes defaults to ~/.config/macgpt/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "macgpt", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Provider: ProviderConfig{Type: "gemini"},
		Store:    StoreConfig{Dir: filepath.Join("data", "stores")},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Provider.Type == "" {
		cfg.Provider.Type = "gemini"
	}
	if cfg.Provider.Type == "gemini" {
		if cfg.Provider.Gemini == nil {
			cfg.Provider.Gemini = &GeminiConfig{}
		}
		g := cfg.Provider.Gemini
		if g.BaseURL == "" {
			g.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
		}
		if g.EmbeddingModel == "" {
			g.EmbeddingModel = "models/text-embedding-004"
		}
		if g.ChatModel == "" {
			g.ChatModel = "gemini-1.5-flash-latest"
		}
		if g.TimeoutSecs == 0 {
			g.TimeoutSecs = 30
		}
	}
	if cfg.Provider.Type == "openai" {
		if cfg.Provider.OpenAI == nil {
			cfg.Provider.OpenAI = &OpenAIConfig{}
		}
		o := cfg.Provider.OpenAI
		if o.EmbeddingModel == "" {
			o.EmbeddingModel = "text-embedding-3-small"
		}
		if o.ChatModel == "" {
			o.ChatModel = "gpt-4o-mini"
		}
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = filepath.Join("data", "stores")
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 7
	}
	if cfg.Web.Addr == "" {
		cfg.Web.Addr = ":8080"
	}
}
