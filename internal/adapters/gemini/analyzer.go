package gemini

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/llm-phish-filter/internal/adapters/analysis"
	"github.com/mikey/llm-phish-filter/internal/config"
	"github.com/mikey/llm-phish-filter/internal/core"
	"github.com/mikey/llm-phish-filter/internal/utils"
)

// Analyzer is a ContextAnalyzer backed by Google Gemini
type Analyzer struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	maxRetries    int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewAnalyzer creates a new Gemini-backed analyzer
func NewAnalyzer(
	cfg config.GeminiConfig,
	analysisCfg config.AnalysisConfig,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*Analyzer, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.ModelName)
	model.SetTemperature(cfg.Temperature)
	model.SetTopP(cfg.TopP)
	model.SetMaxOutputTokens(int32(cfg.MaxTokens))

	return &Analyzer{
		client:        client,
		model:         model,
		modelName:     cfg.ModelName,
		maxBodySize:   analysisCfg.MaxBodySize,
		maxRetries:    analysisCfg.MaxRetries,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// ModelName identifies the underlying model
func (a *Analyzer) ModelName() string {
	return a.modelName
}

// Close closes the Gemini client
func (a *Analyzer) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// Assess analyzes an email with the communication context folded into the
// prompt. Transport errors are retried with bounded exponential backoff;
// safety blocks and unparseable responses are not.
func (a *Analyzer) Assess(ctx context.Context, email *core.Email, commCtx core.CommunicationContext) (*core.ContextualAssessment, error) {
	excerpt := a.textProcessor.Excerpt(email.Body, a.maxBodySize)
	prompt := analysis.BuildPrompt(email, commCtx, excerpt)

	call := func() (string, error) {
		resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", core.NewAnalysisError(core.AnalysisServiceFailure, err)
		}

		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", backoff.Permanent(core.NewAnalysisError(core.AnalysisSafetyBlocked,
				fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)))
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
				return "", backoff.Permanent(core.NewAnalysisError(core.AnalysisSafetyBlocked,
					fmt.Errorf("candidate suppressed by safety filter")))
			}
			return "", core.NewAnalysisError(core.AnalysisServiceFailure, fmt.Errorf("empty response from Gemini"))
		}

		return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(a.maxRetries)), ctx)
	responseText, err := backoff.RetryWithData(call, policy)
	if err != nil {
		if _, ok := core.AsAnalysisError(err); ok {
			return nil, err
		}
		return nil, core.NewAnalysisError(core.AnalysisServiceFailure, err)
	}

	a.logger.Debug("Gemini response received",
		zap.String("message_id", email.MessageID),
		zap.Int("response_size", len(responseText)))

	return analysis.DecodeAssessment(responseText)
}
