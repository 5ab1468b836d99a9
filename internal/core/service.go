package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RiskScoringService coordinates the per-message pipeline: evaluate
// authentication and resolve communication context (independent, run
// concurrently), analyze content with the resolved context, fuse the verdict,
// then record the new communication edge.
type RiskScoringService struct {
	analyzer        ContextAnalyzer
	graph           GraphRepository
	logger          *zap.Logger
	messageDeadline time.Duration
	queryTimeout    time.Duration
	writeTimeout    time.Duration
}

// NewRiskScoringService creates a new risk scoring service. The graph
// repository must already be connected; constructing the service without a
// reachable store is the caller's fatal startup condition.
func NewRiskScoringService(
	analyzer ContextAnalyzer,
	graph GraphRepository,
	logger *zap.Logger,
	messageDeadline time.Duration,
	queryTimeout time.Duration,
	writeTimeout time.Duration,
) *RiskScoringService {
	return &RiskScoringService{
		analyzer:        analyzer,
		graph:           graph,
		logger:          logger,
		messageDeadline: messageDeadline,
		queryTimeout:    queryTimeout,
		writeTimeout:    writeTimeout,
	}
}

type contextResolution struct {
	commCtx CommunicationContext
	err     error
}

// ProcessEmail runs the full pipeline for one message and returns its
// verdict. Dependency failures degrade the score conservatively; the only
// errors returned are invalid input records and context cancellation before
// a verdict could be computed.
func (s *RiskScoringService) ProcessEmail(ctx context.Context, email *Email) (*RiskVerdict, error) {
	if email.Sender == "" {
		return nil, ErrNoSender
	}
	if email.Recipient == "" {
		return nil, ErrNoRecipient
	}

	if s.messageDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.messageDeadline)
		defer cancel()
	}

	// Context resolution is a network call; run it alongside the pure
	// authentication evaluation. Two messages from the same sender processed
	// concurrently can both read "no history" before either write lands, so
	// first contact may be counted twice. Known limitation.
	resolved := make(chan contextResolution, 1)
	go func() {
		qctx := ctx
		if s.queryTimeout > 0 {
			var cancel context.CancelFunc
			qctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
			defer cancel()
		}
		commCtx, err := s.graph.ResolveContext(qctx, email.Sender, email.Recipient)
		resolved <- contextResolution{commCtx: commCtx, err: err}
	}()

	auth := EvaluateAuth(email.Headers)

	res := <-resolved
	commCtx := res.commCtx
	if res.err != nil {
		s.logger.Warn("Context resolution failed, treating sender as unknown",
			zap.String("sender", email.Sender),
			zap.String("recipient", email.Recipient),
			zap.Error(res.err))
		commCtx = CommunicationContext{Unavailable: true}
	}

	assessment, analysisErr := s.assess(ctx, email, commCtx)

	verdict := ScoreRisk(auth, commCtx, assessment, analysisErr)
	verdict.ProcessingID = uuid.NewString()
	verdict.AnalyzedAt = time.Now()
	verdict.ModelUsed = s.analyzer.ModelName()

	s.logger.Info("Email scored",
		zap.String("processing_id", verdict.ProcessingID),
		zap.String("message_id", email.MessageID),
		zap.String("sender", email.Sender),
		zap.Int("score", verdict.Score),
		zap.String("level", string(verdict.Level)),
		zap.Strings("reasons", verdict.Reasons))

	s.recordCommunication(ctx, email, verdict.Level)

	return &verdict, nil
}

// assess calls the analyzer and normalizes every failure into a typed
// *AnalysisError so scoring can name the failure kind
func (s *RiskScoringService) assess(ctx context.Context, email *Email, commCtx CommunicationContext) (*ContextualAssessment, *AnalysisError) {
	assessment, err := s.analyzer.Assess(ctx, email, commCtx)
	if err == nil {
		return assessment, nil
	}

	ae, ok := AsAnalysisError(err)
	if !ok {
		ae = NewAnalysisError(AnalysisServiceFailure, err)
	}
	s.logger.Warn("Contextual analysis failed",
		zap.String("message_id", email.MessageID),
		zap.String("kind", string(ae.Kind)),
		zap.Error(ae))
	return nil, ae
}

// recordCommunication persists the scored edge. Write failures are logged
// and swallowed; a message whose deadline has already expired is not written
// at all.
func (s *RiskScoringService) recordCommunication(ctx context.Context, email *Email, level RiskLevel) {
	if ctx.Err() != nil {
		s.logger.Warn("Skipping graph write, message deadline expired",
			zap.String("message_id", email.MessageID))
		return
	}

	wctx := ctx
	if s.writeTimeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
	}

	rec := CommunicationRecord{
		Sender:    email.Sender,
		Recipient: email.Recipient,
		MessageID: email.MessageID,
		SentAt:    email.SentAt,
		RiskLevel: level,
	}
	if err := s.graph.RecordCommunication(wctx, rec); err != nil {
		werr := &GraphWriteError{Err: err}
		s.logger.Error("Failed to record communication edge",
			zap.String("message_id", email.MessageID),
			zap.String("sender", email.Sender),
			zap.String("recipient", email.Recipient),
			zap.Error(werr))
	}
}
