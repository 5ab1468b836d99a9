package filter

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-phish-filter/internal/core"
)

// CliFilter scores a single email and prints the verdict with its reason
// trail
type CliFilter struct {
	service *core.RiskScoringService
	logger  *zap.Logger
	verbose bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *core.RiskScoringService, logger *zap.Logger, verbose bool) (*CliFilter, error) {
	return &CliFilter{
		service: service,
		logger:  logger,
		verbose: verbose,
	}, nil
}

// ProcessEmail scores an email and displays the results
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.RiskVerdict, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.Sender))

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.Sender)
	fmt.Printf("To: %s\n", email.Recipient)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))

	if f.verbose {
		preview := email.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	fmt.Printf("\n=== Analysis ===\n")
	fmt.Printf("Scoring email...\n")
	startTime := time.Now()
	verdict, err := f.service.ProcessEmail(ctx, email)
	if err != nil {
		f.logger.Error("Failed to score email", zap.Error(err))
		fmt.Printf("Error: %v\n", err)
		return nil, err
	}
	duration := time.Since(startTime)

	fmt.Printf("\n=== Verdict ===\n")
	fmt.Printf("Risk level: %s\n", verdict.Level)
	fmt.Printf("Risk score: %d\n", verdict.Score)
	fmt.Printf("Reasons:\n")
	for _, reason := range verdict.Reasons {
		fmt.Printf("  - %s\n", reason)
	}
	fmt.Printf("Model used: %s\n", verdict.ModelUsed)
	fmt.Printf("Processing time: %v\n", duration)

	return verdict, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
