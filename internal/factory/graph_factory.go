package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/llm-phish-filter/internal/adapters/graph"
	"github.com/mikey/llm-phish-filter/internal/config"
	"github.com/mikey/llm-phish-filter/internal/core"
)

// GraphFactory creates communication graph stores based on configuration
type GraphFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewGraphFactory creates a new graph store factory
func NewGraphFactory(cfg *config.Config, logger *zap.Logger) *GraphFactory {
	return &GraphFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateGraphRepository creates the configured graph store. Construction
// verifies connectivity; an unreachable store is returned as an error and
// must abort startup.
func (f *GraphFactory) CreateGraphRepository(ctx context.Context) (core.GraphRepository, error) {
	graphCfg, err := f.cfg.GetGraph()
	if err != nil {
		return nil, fmt.Errorf("invalid graph configuration: %w", err)
	}

	switch graphCfg.Type {
	case "neo4j":
		return graph.NewNeo4jStore(ctx, graphCfg.Neo4j, graphCfg.MaxRetries, f.logger)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(graphCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return graph.NewSQLiteStore(graphCfg.SQLitePath, f.logger)
	case "mysql":
		return graph.NewMySQLStore(graphCfg.MySQLDSN, graphCfg.MaxRetries, f.logger)
	case "memory":
		return graph.NewMemoryStore(f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported graph store type: %s", graphCfg.Type)
	}
}
