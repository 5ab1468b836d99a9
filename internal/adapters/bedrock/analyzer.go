package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/mikey/llm-phish-filter/internal/adapters/analysis"
	"github.com/mikey/llm-phish-filter/internal/config"
	"github.com/mikey/llm-phish-filter/internal/core"
	"github.com/mikey/llm-phish-filter/internal/utils"
)

// Analyzer is a ContextAnalyzer backed by Amazon Bedrock
type Analyzer struct {
	client        *bedrockruntime.Client
	modelID       string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	maxRetries    int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewAnalyzer creates a new Bedrock-backed analyzer using the default AWS
// credential chain
func NewAnalyzer(
	cfg config.BedrockConfig,
	analysisCfg config.AnalysisConfig,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*Analyzer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Analyzer{
		client:        bedrockruntime.NewFromConfig(awsCfg),
		modelID:       cfg.ModelID,
		maxTokens:     cfg.MaxTokens,
		temperature:   cfg.Temperature,
		topP:          cfg.TopP,
		maxBodySize:   analysisCfg.MaxBodySize,
		maxRetries:    analysisCfg.MaxRetries,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// ModelName identifies the underlying model
func (a *Analyzer) ModelName() string {
	return a.modelID
}

func (a *Analyzer) isAnthropicModel() bool {
	return strings.Contains(a.modelID, "anthropic")
}

func (a *Analyzer) isTitanModel() bool {
	return strings.Contains(a.modelID, "titan")
}

// Assess analyzes an email with the communication context folded into the
// prompt
func (a *Analyzer) Assess(ctx context.Context, email *core.Email, commCtx core.CommunicationContext) (*core.ContextualAssessment, error) {
	excerpt := a.textProcessor.Excerpt(email.Body, a.maxBodySize)
	prompt := analysis.BuildPrompt(email, commCtx, excerpt)

	payload, err := a.buildPayload(prompt)
	if err != nil {
		return nil, core.NewAnalysisError(core.AnalysisServiceFailure, fmt.Errorf("failed to build request payload: %w", err))
	}

	call := func() (string, error) {
		output, err := a.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(a.modelID),
			ContentType: aws.String("application/json"),
			Body:        payload,
		})
		if err != nil {
			if strings.Contains(err.Error(), "content filter") || strings.Contains(err.Error(), "blocked by") {
				return "", backoff.Permanent(core.NewAnalysisError(core.AnalysisSafetyBlocked, err))
			}
			return "", core.NewAnalysisError(core.AnalysisServiceFailure, err)
		}
		return a.extractText(output.Body)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(a.maxRetries)), ctx)
	responseText, err := backoff.RetryWithData(call, policy)
	if err != nil {
		if _, ok := core.AsAnalysisError(err); ok {
			return nil, err
		}
		return nil, core.NewAnalysisError(core.AnalysisServiceFailure, err)
	}

	a.logger.Debug("Bedrock response received",
		zap.String("message_id", email.MessageID),
		zap.Int("response_size", len(responseText)))

	return analysis.DecodeAssessment(responseText)
}

// buildPayload shapes the invocation body for the model family
func (a *Analyzer) buildPayload(prompt string) ([]byte, error) {
	switch {
	case a.isAnthropicModel():
		return json.Marshal(map[string]interface{}{
			"prompt":               fmt.Sprintf("\n\nHuman: %s\n\nAssistant:", prompt),
			"max_tokens_to_sample": a.maxTokens,
			"temperature":          a.temperature,
			"top_p":                a.topP,
		})
	case a.isTitanModel():
		return json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": a.maxTokens,
				"temperature":   a.temperature,
				"topP":          a.topP,
			},
		})
	default:
		return json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  a.maxTokens,
			"temperature": a.temperature,
			"top_p":       a.topP,
		})
	}
}

// extractText pulls the generated text out of the family-specific response
// shape
func (a *Analyzer) extractText(body []byte) (string, error) {
	switch {
	case a.isAnthropicModel():
		var resp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", core.NewAnalysisError(core.AnalysisServiceFailure, fmt.Errorf("failed to decode Bedrock response: %w", err))
		}
		return resp.Completion, nil
	case a.isTitanModel():
		var resp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", core.NewAnalysisError(core.AnalysisServiceFailure, fmt.Errorf("failed to decode Bedrock response: %w", err))
		}
		if len(resp.Results) == 0 {
			return "", core.NewAnalysisError(core.AnalysisServiceFailure, fmt.Errorf("empty response from Bedrock"))
		}
		return resp.Results[0].OutputText, nil
	default:
		var resp struct {
			Completion string `json:"completion"`
			Text       string `json:"text"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", core.NewAnalysisError(core.AnalysisServiceFailure, fmt.Errorf("failed to decode Bedrock response: %w", err))
		}
		if resp.Completion != "" {
			return resp.Completion, nil
		}
		return resp.Text, nil
	}
}
