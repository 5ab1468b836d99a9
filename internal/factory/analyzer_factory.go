package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/llm-phish-filter/internal/adapters/bedrock"
	"github.com/mikey/llm-phish-filter/internal/adapters/gemini"
	"github.com/mikey/llm-phish-filter/internal/adapters/openai"
	"github.com/mikey/llm-phish-filter/internal/config"
	"github.com/mikey/llm-phish-filter/internal/core"
	"github.com/mikey/llm-phish-filter/internal/utils"
)

// AnalyzerFactory creates contextual analyzers
type AnalyzerFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *AnalyzerFactory {
	return &AnalyzerFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateAnalyzer creates a contextual analyzer for the configured provider
func (f *AnalyzerFactory) CreateAnalyzer() (core.ContextAnalyzer, error) {
	analysisCfg, err := f.cfg.GetAnalysis()
	if err != nil {
		return nil, fmt.Errorf("invalid analysis configuration: %w", err)
	}

	switch f.cfg.GetLLM().Provider {
	case "gemini":
		return gemini.NewAnalyzer(f.cfg.GetGemini(), analysisCfg, f.logger, f.textProcessor)
	case "openai":
		return openai.NewAnalyzer(f.cfg.GetOpenAI(), analysisCfg, f.logger, f.textProcessor), nil
	case "bedrock":
		return bedrock.NewAnalyzer(f.cfg.GetBedrock(), analysisCfg, f.logger, f.textProcessor)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", f.cfg.GetLLM().Provider)
	}
}
