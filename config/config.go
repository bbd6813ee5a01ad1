package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Config models config.json. Every field is optional; credentials come from
// the environment (see .env handling in main).
type Config struct {
	LLM              *LLMConfig      `json:"llm,omitempty"`
	ArticlesDir      string          `json:"articles_dir,omitempty"`
	ServerAddr       string          `json:"server_addr,omitempty"`
	Prompt           string          `json:"prompt,omitempty"`
	GenerationModels []ModelOverride `json:"generation_models,omitempty"`
}

// LLMConfig configures the stage model used for title and outline wording.
type LLMConfig struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}

// ModelOverride replaces one entry of the draft-generation fallback list.
type ModelOverride struct {
	Name            string `json:"name"`
	TimeoutSeconds  int    `json:"timeout_seconds,omitempty"`
	MaxOutputTokens int    `json:"max_output_tokens,omitempty"`
	Grounding       bool   `json:"grounding,omitempty"`
}

// Timeout returns the per-attempt timeout for the override.
func (m ModelOverride) Timeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// Validate checks the fields that have no usable zero value.
func (m ModelOverride) Validate() error {
	if m.Name == "" {
		return errors.New("generation_models entries require a name")
	}
	return nil
}

// Load reads JSON config from disk. A missing file is not an error: the
// defaults plus environment variables are enough to run.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, m := range cfg.GenerationModels {
		if err := m.Validate(); err != nil {
			return Config{}, err
		}
	}
	if cfg.ArticlesDir == "" {
		cfg.ArticlesDir = "articles"
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	return cfg, nil
}

// DefaultPrompt is the request handed to the pipeline when none is configured.
const DefaultPrompt = "Write one short technical article for beginners."

// Default returns the configuration used when no config file is present.
func Default() Config {
	return Config{
		ArticlesDir: "articles",
		Prompt:      DefaultPrompt,
	}
}
