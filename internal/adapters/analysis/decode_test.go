package analysis

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/llm-phish-filter/internal/core"
)

const validResponse = `{
  "intent": "Payment Request",
  "urgency_score": 4,
  "manipulation_score": 5,
  "impersonation_likelihood": "High",
  "risk_level": "High",
  "explanation": "Urgent payment demand from a sender with no prior history."
}`

func TestDecodeAssessmentValid(t *testing.T) {
	assessment, err := DecodeAssessment(validResponse)

	require.NoError(t, err)
	assert.Equal(t, core.IntentPaymentRequest, assessment.Intent)
	assert.Equal(t, 4, assessment.UrgencyScore)
	assert.Equal(t, 5, assessment.ManipulationScore)
	assert.Equal(t, core.RiskHigh, assessment.ImpersonationLikelihood)
	assert.Equal(t, core.RiskHigh, assessment.RiskLevel)
	assert.NotEmpty(t, assessment.Explanation)
}

func TestDecodeAssessmentFencedJSON(t *testing.T) {
	raw := "```json\n" + validResponse + "\n```"

	assessment, err := DecodeAssessment(raw)

	require.NoError(t, err)
	assert.Equal(t, core.RiskHigh, assessment.RiskLevel)
}

func TestDecodeAssessmentSurroundingProse(t *testing.T) {
	raw := "Here is my analysis:\n" + validResponse + "\nLet me know if you need more."

	assessment, err := DecodeAssessment(raw)

	require.NoError(t, err)
	assert.Equal(t, core.IntentPaymentRequest, assessment.Intent)
}

func TestDecodeAssessmentCaseInsensitiveEnums(t *testing.T) {
	raw := `{
  "intent": "payment request",
  "urgency_score": 3,
  "manipulation_score": 2,
  "impersonation_likelihood": "low",
  "risk_level": "MEDIUM",
  "explanation": "x"
}`

	assessment, err := DecodeAssessment(raw)

	require.NoError(t, err)
	assert.Equal(t, core.IntentPaymentRequest, assessment.Intent)
	assert.Equal(t, core.RiskLow, assessment.ImpersonationLikelihood)
	assert.Equal(t, core.RiskMedium, assessment.RiskLevel)
}

func TestDecodeAssessmentMissingKey(t *testing.T) {
	raw := `{
  "intent": "Spam",
  "urgency_score": 1,
  "manipulation_score": 1,
  "impersonation_likelihood": "Low",
  "explanation": "no risk_level key"
}`

	_, err := DecodeAssessment(raw)

	requireParseFailure(t, err)
}

func TestDecodeAssessmentUnknownIntent(t *testing.T) {
	raw := `{
  "intent": "Friendly Banter",
  "urgency_score": 1,
  "manipulation_score": 1,
  "impersonation_likelihood": "Low",
  "risk_level": "Low",
  "explanation": "x"
}`

	_, err := DecodeAssessment(raw)

	requireParseFailure(t, err)
}

func TestDecodeAssessmentUnknownRiskLevel(t *testing.T) {
	raw := `{
  "intent": "Spam",
  "urgency_score": 1,
  "manipulation_score": 1,
  "impersonation_likelihood": "Low",
  "risk_level": "Severe",
  "explanation": "x"
}`

	_, err := DecodeAssessment(raw)

	requireParseFailure(t, err)
}

func TestDecodeAssessmentScoreOutOfRange(t *testing.T) {
	for _, score := range []int{0, 6, -1} {
		raw := `{
  "intent": "Spam",
  "urgency_score": ` + strconv.Itoa(score) + `,
  "manipulation_score": 1,
  "impersonation_likelihood": "Low",
  "risk_level": "Low",
  "explanation": "x"
}`

		_, err := DecodeAssessment(raw)

		requireParseFailure(t, err)
	}
}

func TestDecodeAssessmentNotJSON(t *testing.T) {
	_, err := DecodeAssessment("I cannot analyze this email.")

	requireParseFailure(t, err)
}

func TestDecodeAssessmentMalformedJSON(t *testing.T) {
	_, err := DecodeAssessment(`{"intent": "Spam", "urgency_score": }`)

	requireParseFailure(t, err)
}

func requireParseFailure(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	ae, ok := core.AsAnalysisError(err)
	require.True(t, ok, "expected a typed analysis error, got %v", err)
	assert.Equal(t, core.AnalysisParseFailure, ae.Kind)
}

func TestBuildPromptIncludesContext(t *testing.T) {
	email := &core.Email{
		Sender:  "boss@corp.example",
		Subject: "Quick favor",
	}
	commCtx := core.CommunicationContext{HistoryExists: true, PriorCount: 7}

	prompt := BuildPrompt(email, commCtx, "Can you buy some gift cards?")

	assert.Contains(t, prompt, "Sender has sent emails to recipient before: true")
	assert.Contains(t, prompt, "Number of previous emails sent by sender to recipient: 7")
	assert.Contains(t, prompt, "Quick favor")
	assert.Contains(t, prompt, "boss@corp.example")
	assert.Contains(t, prompt, "Can you buy some gift cards?")
}
