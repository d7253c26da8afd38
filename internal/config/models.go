package config

// PatternsConfig represents the pattern registry configuration
type PatternsConfig struct {
	Path string
}

// ScanConfig represents the batch scanning configuration
type ScanConfig struct {
	BatchSize int
	Workers   int
}

// CacheConfig represents the cache store configuration
type CacheConfig struct {
	Type             string
	Path             string
	SQLitePath       string
	MaxMessages      int
	MaxSizeMB        int
	CleanupThreshold float64
	Retention        string
}

// AnalyzerConfig represents the remote analyzer selection
type AnalyzerConfig struct {
	Provider string
}

// GrokConfig represents the configuration for the x.ai Grok API
type GrokConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GetPatterns returns the pattern registry configuration
func (c *Config) GetPatterns() PatternsConfig {
	return PatternsConfig{
		Path: c.GetString("patterns.path"),
	}
}

// GetScan returns the batch scanning configuration
func (c *Config) GetScan() ScanConfig {
	return ScanConfig{
		BatchSize: c.GetInt("scan.batch_size"),
		Workers:   c.GetInt("scan.workers"),
	}
}

// GetCache returns the cache store configuration
func (c *Config) GetCache() CacheConfig {
	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Path:             c.GetString("cache.path"),
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MaxMessages:      c.GetInt("cache.max_messages"),
		MaxSizeMB:        c.GetInt("cache.max_size_mb"),
		CleanupThreshold: c.GetFloat64("cache.cleanup_threshold"),
		Retention:        c.GetString("cache.retention"),
	}
}

// GetAnalyzer returns the remote analyzer selection
func (c *Config) GetAnalyzer() AnalyzerConfig {
	return AnalyzerConfig{
		Provider: c.GetString("analyzer.provider"),
	}
}

// GetGrok returns the Grok configuration
func (c *Config) GetGrok() GrokConfig {
	return GrokConfig{
		APIKey:      c.GetString("grok.api_key"),
		BaseURL:     c.GetString("grok.base_url"),
		ModelName:   c.GetString("grok.model_name"),
		MaxTokens:   c.GetInt("grok.max_tokens"),
		Temperature: float32(c.GetFloat64("grok.temperature")),
		MaxBodySize: c.GetInt("grok.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}
