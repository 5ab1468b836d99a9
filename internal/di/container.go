package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-phish-filter/internal/config"
	"github.com/mikey/llm-phish-filter/internal/core"
	"github.com/mikey/llm-phish-filter/internal/factory"
	"github.com/mikey/llm-phish-filter/internal/logging"
	"github.com/mikey/llm-phish-filter/internal/ports"
	"github.com/mikey/llm-phish-filter/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
// for the daemon
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
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

	// Register graph repository. Construction verifies connectivity, so an
	// unreachable store fails the whole run here, before any message is
	// processed.
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
