package di

import (
	"context"
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-phish-filter/internal/config"
	"github.com/mikey/llm-phish-filter/internal/core"
	"github.com/mikey/llm-phish-filter/internal/factory"
	"github.com/mikey/llm-phish-filter/internal/logging"
	"github.com/mikey/llm-phish-filter/internal/ports"
	"github.com/mikey/llm-phish-filter/internal/utils"
)

// CLIFlags contains all command line flags for the one-shot analyzer
type CLIFlags struct {
	// LLM provider flags
	Provider    string
	MaxTokens   int
	Temperature float64
	TopP        float64
	MaxBodySize int

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Graph store flags
	GraphType  string
	Neo4jURI   string
	Neo4jUser  string
	Neo4jPass  string
	SQLitePath string

	// Input flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// LLM provider flags
	flag.StringVar(&flags.Provider, "provider", "gemini", "LLM provider (gemini, openai, bedrock)")
	flag.IntVar(&flags.MaxTokens, "max-tokens", 1000, "Maximum tokens for LLM response")
	flag.Float64Var(&flags.Temperature, "temperature", 0.1, "Temperature for LLM generation")
	flag.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for LLM generation")
	flag.IntVar(&flags.MaxBodySize, "max-body-size", 4000, "Maximum email body size to send to the LLM")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-1.5-flash-latest", "Gemini model name")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4", "OpenAI model name")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Graph store flags
	flag.StringVar(&flags.GraphType, "graph", "memory", "Graph store type (neo4j, sqlite, mysql, memory)")
	flag.StringVar(&flags.Neo4jURI, "neo4j-uri", "bolt://localhost:7687", "Neo4j URI")
	flag.StringVar(&flags.Neo4jUser, "neo4j-user", "", "Neo4j username")
	flag.StringVar(&flags.Neo4jPass, "neo4j-pass", "", "Neo4j password")
	flag.StringVar(&flags.SQLitePath, "sqlite-path", "communication_graph.db", "SQLite graph path")

	// Input flags
	flag.StringVar(&flags.InputFile, "file", "", "Input email file (use stdin if not specified)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container
// for the one-shot analyzer
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewAnalyzerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewGraphFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register contextual analyzer
	if err := container.Provide(func(f *factory.AnalyzerFactory) (core.ContextAnalyzer, error) {
		return f.CreateAnalyzer()
	}); err != nil {
		return nil, err
	}

	// Register graph repository
	if err := container.Provide(func(f *factory.GraphFactory) (core.GraphRepository, error) {
		return f.CreateGraphRepository(context.Background())
	}); err != nil {
		return nil, err
	}

	// Register risk scoring service
	if err := container.Provide(func(
		analyzer core.ContextAnalyzer,
		graphRepo core.GraphRepository,
		logger *zap.Logger,
		cfg *config.Config,
	) (*core.RiskScoringService, error) {
		pipelineCfg, err := cfg.GetPipeline()
		if err != nil {
			return nil, err
		}
		graphCfg, err := cfg.GetGraph()
		if err != nil {
			return nil, err
		}
		return core.NewRiskScoringService(
			analyzer,
			graphRepo,
			logger,
			pipelineCfg.Deadline,
			graphCfg.QueryTimeout,
			graphCfg.WriteTimeout,
		), nil
	}); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// CLI specific settings
	v.Set("server.filter_type", "cli")
	v.Set("cli.verbose", flags.Verbose)

	// LLM provider
	v.Set("llm.provider", flags.Provider)
	v.Set("analysis.max_body_size", flags.MaxBodySize)

	switch flags.Provider {
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
	}

	// Graph store
	v.Set("graph.type", flags.GraphType)
	v.Set("graph.neo4j.uri", flags.Neo4jURI)
	v.Set("graph.neo4j.username", flags.Neo4jUser)
	v.Set("graph.neo4j.password", flags.Neo4jPass)
	v.Set("graph.sqlite_path", flags.SQLitePath)

	return config.NewFromViper(v)
}
