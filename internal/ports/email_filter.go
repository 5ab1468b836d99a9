package ports

import (
	"context"

	"github.com/mikey/llm-phish-filter/internal/core"
)

// EmailFilter defines the interface for an inbound mail surface that feeds
// messages into the risk pipeline
type EmailFilter interface {
	// ProcessEmail scores a normalized email and returns its verdict
	ProcessEmail(ctx context.Context, email *core.Email) (*core.RiskVerdict, error)

	// Start starts the filter surface
	Start() error

	// Stop stops the filter surface
	Stop() error
}
