package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/llm-phish-filter/internal/adapters/filter"
	"github.com/mikey/llm-phish-filter/internal/config"
	"github.com/mikey/llm-phish-filter/internal/core"
	"github.com/mikey/llm-phish-filter/internal/ports"
)

// FilterFactory creates email filter surfaces based on configuration
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.RiskScoringService
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *core.RiskScoringService) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateEmailFilter creates an email filter based on the configuration
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	filterType := f.cfg.GetString("server.filter_type")

	switch filterType {
	case "postfix":
		return filter.NewPostfixFilter(
			f.service,
			f.logger,
			f.cfg.GetString("server.listen_address"),
			f.cfg.GetBool("server.block_high_risk"),
			f.cfg.GetString("server.headers.level"),
			f.cfg.GetString("server.headers.score"),
			f.cfg.GetString("server.headers.reasons"),
			f.cfg.GetString("server.postfix.address"),
			f.cfg.GetInt("server.postfix.port"),
			f.cfg.GetBool("server.postfix.enabled"),
			f.cfg.GetString("server.subject_prefix"),
			f.cfg.GetBool("server.modify_subject"),
		), nil
	case "cli":
		return filter.NewCliFilter(
			f.service,
			f.logger,
			f.cfg.GetBool("cli.verbose"),
		)
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}
