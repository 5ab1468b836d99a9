package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mikey/llm-phish-filter/internal/core"
)

// wireAssessment mirrors the response contract. Pointer fields distinguish
// a missing key from a zero value; every key is required.
type wireAssessment struct {
	Intent                  *string `json:"intent"`
	UrgencyScore            *int    `json:"urgency_score"`
	ManipulationScore       *int    `json:"manipulation_score"`
	ImpersonationLikelihood *string `json:"impersonation_likelihood"`
	RiskLevel               *string `json:"risk_level"`
	Explanation             *string `json:"explanation"`
}

var intents = map[string]core.Intent{
	"payment request":        core.IntentPaymentRequest,
	"credential request":     core.IntentCredentialRequest,
	"urgent action required": core.IntentUrgentAction,
	"information request":    core.IntentInformationRequest,
	"gift card request":      core.IntentGiftCardRequest,
	"job offer scam":         core.IntentJobOfferScam,
	"impersonation attempt":  core.IntentImpersonation,
	"marketing":              core.IntentMarketing,
	"personal communication": core.IntentPersonal,
	"spam":                   core.IntentSpam,
	"other":                  core.IntentOther,
}

var riskLevels = map[string]core.RiskLevel{
	"low":    core.RiskLow,
	"medium": core.RiskMedium,
	"high":   core.RiskHigh,
}

// DecodeAssessment validates a raw model response against the closed
// assessment schema. Models wrap JSON in markdown fences or prose often
// enough that the object is first cut out of the surrounding text; the
// object itself is then decoded strictly. Any missing key, unknown enum
// value or out-of-range score is a parse failure, never a partial result.
func DecodeAssessment(raw string) (*core.ContextualAssessment, error) {
	jsonText, err := extractJSONObject(raw)
	if err != nil {
		return nil, core.NewAnalysisError(core.AnalysisParseFailure, err)
	}

	var wire wireAssessment
	if err := json.Unmarshal([]byte(jsonText), &wire); err != nil {
		return nil, core.NewAnalysisError(core.AnalysisParseFailure, fmt.Errorf("invalid JSON: %w", err))
	}

	assessment, err := wire.validate()
	if err != nil {
		return nil, core.NewAnalysisError(core.AnalysisParseFailure, err)
	}
	return assessment, nil
}

func (w *wireAssessment) validate() (*core.ContextualAssessment, error) {
	if w.Intent == nil || w.UrgencyScore == nil || w.ManipulationScore == nil ||
		w.ImpersonationLikelihood == nil || w.RiskLevel == nil || w.Explanation == nil {
		return nil, fmt.Errorf("response is missing required keys")
	}

	intent, ok := intents[strings.ToLower(strings.TrimSpace(*w.Intent))]
	if !ok {
		return nil, fmt.Errorf("unknown intent %q", *w.Intent)
	}

	impersonation, ok := riskLevels[strings.ToLower(strings.TrimSpace(*w.ImpersonationLikelihood))]
	if !ok {
		return nil, fmt.Errorf("unknown impersonation likelihood %q", *w.ImpersonationLikelihood)
	}

	riskLevel, ok := riskLevels[strings.ToLower(strings.TrimSpace(*w.RiskLevel))]
	if !ok {
		return nil, fmt.Errorf("unknown risk level %q", *w.RiskLevel)
	}

	if *w.UrgencyScore < 1 || *w.UrgencyScore > 5 {
		return nil, fmt.Errorf("urgency score %d out of range", *w.UrgencyScore)
	}
	if *w.ManipulationScore < 1 || *w.ManipulationScore > 5 {
		return nil, fmt.Errorf("manipulation score %d out of range", *w.ManipulationScore)
	}

	return &core.ContextualAssessment{
		Intent:                  intent,
		UrgencyScore:            *w.UrgencyScore,
		ManipulationScore:       *w.ManipulationScore,
		ImpersonationLikelihood: impersonation,
		RiskLevel:               riskLevel,
		Explanation:             strings.TrimSpace(*w.Explanation),
	}, nil
}

// extractJSONObject cuts the first top-level JSON object out of the model's
// response text, tolerating ```json fences and surrounding prose
func extractJSONObject(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("response contains no JSON object")
	}
	return text[start : end+1], nil
}
