package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/llm-phish-filter/internal/adapters/analysis"
	"github.com/mikey/llm-phish-filter/internal/config"
	"github.com/mikey/llm-phish-filter/internal/core"
	"github.com/mikey/llm-phish-filter/internal/utils"
)

// Analyzer is a ContextAnalyzer backed by the OpenAI chat completion API
type Analyzer struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	maxRetries    int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewAnalyzer creates a new OpenAI-backed analyzer
func NewAnalyzer(
	cfg config.OpenAIConfig,
	analysisCfg config.AnalysisConfig,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Analyzer {
	return &Analyzer{
		client:        openai.NewClient(cfg.APIKey),
		modelName:     cfg.ModelName,
		maxTokens:     cfg.MaxTokens,
		temperature:   cfg.Temperature,
		topP:          cfg.TopP,
		maxBodySize:   analysisCfg.MaxBodySize,
		maxRetries:    analysisCfg.MaxRetries,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// ModelName identifies the underlying model
func (a *Analyzer) ModelName() string {
	return a.modelName
}

// Assess analyzes an email with the communication context folded into the
// prompt
func (a *Analyzer) Assess(ctx context.Context, email *core.Email, commCtx core.CommunicationContext) (*core.ContextualAssessment, error) {
	excerpt := a.textProcessor.Excerpt(email.Body, a.maxBodySize)
	prompt := analysis.BuildPrompt(email, commCtx, excerpt)

	call := func() (string, error) {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       a.modelName,
			MaxTokens:   a.maxTokens,
			Temperature: a.temperature,
			TopP:        a.topP,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		})
		if err != nil {
			if isContentPolicyError(err) {
				return "", backoff.Permanent(core.NewAnalysisError(core.AnalysisSafetyBlocked, err))
			}
			return "", core.NewAnalysisError(core.AnalysisServiceFailure, err)
		}
		if len(resp.Choices) == 0 {
			return "", core.NewAnalysisError(core.AnalysisServiceFailure, fmt.Errorf("empty response from OpenAI"))
		}
		if resp.Choices[0].FinishReason == openai.FinishReasonContentFilter {
			return "", backoff.Permanent(core.NewAnalysisError(core.AnalysisSafetyBlocked,
				fmt.Errorf("completion stopped by content filter")))
		}
		return resp.Choices[0].Message.Content, nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(a.maxRetries)), ctx)
	responseText, err := backoff.RetryWithData(call, policy)
	if err != nil {
		if _, ok := core.AsAnalysisError(err); ok {
			return nil, err
		}
		return nil, core.NewAnalysisError(core.AnalysisServiceFailure, err)
	}

	a.logger.Debug("OpenAI response received",
		zap.String("message_id", email.MessageID),
		zap.Int("response_size", len(responseText)))

	return analysis.DecodeAssessment(responseText)
}

// isContentPolicyError reports whether the API rejected the request under
// its usage policy rather than failing on transport
func isContentPolicyError(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	code, ok := apiErr.Code.(string)
	return ok && strings.Contains(code, "content_policy")
}
