package config

import "time"

// Config holds folio configuration.
// Stored at: ~/.folio/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Generation   GenerationCfg             `mapstructure:"generation" yaml:"generation"`
	Defra        DefraConfig               `mapstructure:"defra" yaml:"defra"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type      string `mapstructure:"type" yaml:"type"`             // "openrouter", "openai"
	Model     string `mapstructure:"model" yaml:"model"`           // Model name
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`       // API key (supports ${ENV_VAR} syntax)
	RateLimit int    `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per minute
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default provider and model selections.
type DefaultsCfg struct {
	LLMProvider  string  `mapstructure:"llm_provider" yaml:"llm_provider"`   // Default LLM provider
	OutlineModel string  `mapstructure:"outline_model" yaml:"outline_model"` // Model override for outline generation
	ChapterModel string  `mapstructure:"chapter_model" yaml:"chapter_model"` // Model override for chapter generation
	Temperature  float64 `mapstructure:"temperature" yaml:"temperature"`
}

// GenerationCfg tunes the book generation pipeline.
type GenerationCfg struct {
	// MaxAttempts bounds retries for a single transient-failing call.
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
	// OutlineTimeoutSeconds is the per-call timeout for outline generation.
	OutlineTimeoutSeconds int `mapstructure:"outline_timeout_seconds" yaml:"outline_timeout_seconds"`
	// ChapterTimeoutSeconds is the per-call timeout for chapter generation.
	ChapterTimeoutSeconds int `mapstructure:"chapter_timeout_seconds" yaml:"chapter_timeout_seconds"`
	// JobTimeoutMinutes bounds a whole generation job end to end.
	JobTimeoutMinutes int `mapstructure:"job_timeout_minutes" yaml:"job_timeout_minutes"`
	// MaxConcurrentJobs bounds how many jobs run at once.
	MaxConcurrentJobs int `mapstructure:"max_concurrent_jobs" yaml:"max_concurrent_jobs"`
}

// OutlineTimeout returns the per-call outline timeout as a duration.
func (g GenerationCfg) OutlineTimeout() time.Duration {
	if g.OutlineTimeoutSeconds <= 0 {
		return 180 * time.Second
	}
	return time.Duration(g.OutlineTimeoutSeconds) * time.Second
}

// ChapterTimeout returns the per-call chapter timeout as a duration.
func (g GenerationCfg) ChapterTimeout() time.Duration {
	if g.ChapterTimeoutSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(g.ChapterTimeoutSeconds) * time.Second
}

// JobTimeout returns the whole-job timeout as a duration.
func (g GenerationCfg) JobTimeout() time.Duration {
	if g.JobTimeoutMinutes <= 0 {
		return 120 * time.Minute
	}
	return time.Duration(g.JobTimeoutMinutes) * time.Minute
}

// DefraConfig holds DefraDB container configuration.
type DefraConfig struct {
	// ContainerName is the Docker container name (default: folio-defra)
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	// Image is the Docker image to use (default: sourcenetwork/defradb:latest)
	Image string `mapstructure:"image" yaml:"image"`
	// Port is the host port to bind (default: 9181)
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openrouter": {
				Type:      "openrouter",
				Model:     "anthropic/claude-sonnet-4",
				APIKey:    "${OPENROUTER_API_KEY}",
				RateLimit: 150,
				Enabled:   true,
			},
			"openai": {
				Type:      "openai",
				Model:     "gpt-4o",
				APIKey:    "${OPENAI_API_KEY}",
				RateLimit: 300,
				Enabled:   false,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider: "openrouter",
			Temperature: 0.7,
		},
		Generation: GenerationCfg{
			MaxAttempts:           3,
			OutlineTimeoutSeconds: 180,
			ChapterTimeoutSeconds: 300,
			JobTimeoutMinutes:     120,
			MaxConcurrentJobs:     2,
		},
		Defra: DefraConfig{
			ContainerName: "folio-defra",
			Image:         "sourcenetwork/defradb:latest",
			Port:          "9181",
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// OutlineModel returns the configured outline model, falling back to the
// default provider's model when unset.
func (c *Config) OutlineModel() string {
	if c.Defaults.OutlineModel != "" {
		return c.Defaults.OutlineModel
	}
	if p, ok := c.LLMProviders[c.Defaults.LLMProvider]; ok {
		return p.Model
	}
	return ""
}

// ChapterModel returns the configured chapter model, falling back to the
// default provider's model when unset.
func (c *Config) ChapterModel() string {
	if c.Defaults.ChapterModel != "" {
		return c.Defaults.ChapterModel
	}
	if p, ok := c.LLMProviders[c.Defaults.LLMProvider]; ok {
		return p.Model
	}
	return ""
}
