package core

import (
	"context"
)

// ContextAnalyzer defines the interface for semantic analysis of email
// content. Implementations wrap an external model provider; failures are
// *AnalysisError values so the pipeline can degrade instead of aborting.
type ContextAnalyzer interface {
	// Assess analyzes an email in the light of the sender→recipient
	// communication context and returns a validated assessment
	Assess(ctx context.Context, email *Email, commCtx CommunicationContext) (*ContextualAssessment, error)

	// ModelName identifies the underlying model for verdict metadata
	ModelName() string
}

// GraphRepository defines the interface for the communication graph store
type GraphRepository interface {
	// ResolveContext reports whether sender has ever sent to recipient and
	// how many such edges are recorded
	ResolveContext(ctx context.Context, sender, recipient string) (CommunicationContext, error)

	// RecordCommunication upserts both address nodes and creates one
	// SENT_EMAIL edge. Implementations deduplicate on MessageID.
	RecordCommunication(ctx context.Context, rec CommunicationRecord) error

	// Close releases the underlying connection or pool
	Close(ctx context.Context) error
}
