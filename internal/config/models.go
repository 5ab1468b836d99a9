package config

import (
	"time"
)

// LLMConfig represents the configuration for the analysis provider
type LLMConfig struct {
	Provider string
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// AnalysisConfig bounds the analysis request regardless of provider
type AnalysisConfig struct {
	MaxBodySize int
	Timeout     time.Duration
	MaxRetries  int
}

// Neo4jConfig represents the connection settings for the Neo4j graph store
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// GraphConfig represents the configuration for the communication graph store
type GraphConfig struct {
	Type         string
	QueryTimeout time.Duration
	WriteTimeout time.Duration
	MaxRetries   int
	Neo4j        Neo4jConfig
	SQLitePath   string
	MySQLDSN     string
}

// PipelineConfig holds per-message processing limits
type PipelineConfig struct {
	Deadline time.Duration
}

// GetLLM returns the analysis provider configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
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
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
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
	}
}

// GetAnalysis returns the analysis bounds configuration
func (c *Config) GetAnalysis() (AnalysisConfig, error) {
	timeout, err := c.GetDuration("analysis.timeout")
	if err != nil {
		return AnalysisConfig{}, err
	}
	return AnalysisConfig{
		MaxBodySize: c.GetInt("analysis.max_body_size"),
		Timeout:     timeout,
		MaxRetries:  c.GetInt("analysis.max_retries"),
	}, nil
}

// GetGraph returns the graph store configuration
func (c *Config) GetGraph() (GraphConfig, error) {
	queryTimeout, err := c.GetDuration("graph.query_timeout")
	if err != nil {
		return GraphConfig{}, err
	}
	writeTimeout, err := c.GetDuration("graph.write_timeout")
	if err != nil {
		return GraphConfig{}, err
	}
	return GraphConfig{
		Type:         c.GetString("graph.type"),
		QueryTimeout: queryTimeout,
		WriteTimeout: writeTimeout,
		MaxRetries:   c.GetInt("graph.max_retries"),
		Neo4j: Neo4jConfig{
			URI:      c.GetString("graph.neo4j.uri"),
			Username: c.GetString("graph.neo4j.username"),
			Password: c.GetString("graph.neo4j.password"),
			Database: c.GetString("graph.neo4j.database"),
		},
		SQLitePath: c.GetString("graph.sqlite_path"),
		MySQLDSN:   c.GetString("graph.mysql_dsn"),
	}, nil
}

// GetPipeline returns the per-message pipeline configuration
func (c *Config) GetPipeline() (PipelineConfig, error) {
	deadline, err := c.GetDuration("pipeline.deadline")
	if err != nil {
		return PipelineConfig{}, err
	}
	return PipelineConfig{Deadline: deadline}, nil
}
