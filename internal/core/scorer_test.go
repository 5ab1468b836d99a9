package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func allPass() AuthResult {
	return AuthResult{SPF: AuthPass, DKIM: AuthPass, DMARC: AuthPass}
}

func allFail() AuthResult {
	return AuthResult{SPF: AuthFail, DKIM: AuthFail, DMARC: AuthFail}
}

func knownSender() CommunicationContext {
	return CommunicationContext{HistoryExists: true, PriorCount: 12}
}

func firstContact() CommunicationContext {
	return CommunicationContext{HistoryExists: false}
}

func TestScoreRiskFailedAuthHighModelFirstContact(t *testing.T) {
	assessment := &ContextualAssessment{
		Intent:      IntentPaymentRequest,
		RiskLevel:   RiskHigh,
		Explanation: "urgent wire transfer demand",
	}

	verdict := ScoreRisk(allFail(), firstContact(), assessment, nil)

	assert.Equal(t, 65, verdict.Score)
	assert.Equal(t, RiskHigh, verdict.Level)
	assert.Equal(t, []string{
		"SPF fail/neutral",
		"DKIM fail/neutral",
		"DMARC fail/neutral",
		"first-time sender to recipient",
		"model assessed high risk: urgent wire transfer demand",
		"risky intent from first-time sender",
	}, verdict.Reasons)
}

func TestScoreRiskCleanKnownSender(t *testing.T) {
	assessment := &ContextualAssessment{
		Intent:    IntentPersonal,
		RiskLevel: RiskLow,
	}

	verdict := ScoreRisk(allPass(), knownSender(), assessment, nil)

	assert.Equal(t, 0, verdict.Score)
	assert.Equal(t, RiskLow, verdict.Level)
	assert.Empty(t, verdict.Reasons)
}

func TestScoreRiskAnalysisServiceFailure(t *testing.T) {
	analysisErr := NewAnalysisError(AnalysisServiceFailure, assert.AnError)

	verdict := ScoreRisk(allPass(), knownSender(), nil, analysisErr)

	assert.Equal(t, 5, verdict.Score)
	assert.Equal(t, RiskLow, verdict.Level)
	assert.Equal(t, []string{"analysis failed: service unavailable"}, verdict.Reasons)
}

func TestScoreRiskMediumModelEscalatesWithFirstContact(t *testing.T) {
	// A model-labeled Medium compounds with auth and history signals so the
	// fused verdict can land higher than the model's own label.
	assessment := &ContextualAssessment{
		Intent:      IntentInformationRequest,
		RiskLevel:   RiskMedium,
		Explanation: "unusual request for internal documents",
	}
	auth := AuthResult{SPF: AuthPass, DKIM: AuthPass, DMARC: AuthFail}

	verdict := ScoreRisk(auth, firstContact(), assessment, nil)

	assert.Equal(t, 30, verdict.Score)
	assert.Equal(t, RiskHigh, verdict.Level)
}

func TestScoreRiskUnavailableStore(t *testing.T) {
	assessment := &ContextualAssessment{
		Intent:    IntentPersonal,
		RiskLevel: RiskLow,
	}
	commCtx := CommunicationContext{Unavailable: true}

	verdict := ScoreRisk(allPass(), commCtx, assessment, nil)

	assert.Equal(t, 5, verdict.Score)
	assert.Equal(t, RiskLow, verdict.Level)
	assert.Equal(t, []string{"communication history unavailable; treating as first contact"}, verdict.Reasons)
}

func TestScoreRiskRiskyIntentNeedsFirstContact(t *testing.T) {
	assessment := &ContextualAssessment{
		Intent:      IntentPaymentRequest,
		RiskLevel:   RiskMedium,
		Explanation: "invoice follow-up",
	}

	verdict := ScoreRisk(allPass(), knownSender(), assessment, nil)

	// No first-contact escalation for a sender with history.
	assert.Equal(t, 15, verdict.Score)
	assert.Equal(t, RiskMedium, verdict.Level)
	assert.NotContains(t, verdict.Reasons, "risky intent from first-time sender")
}

func TestScoreRiskNonRiskyIntentFirstContact(t *testing.T) {
	assessment := &ContextualAssessment{
		Intent:    IntentMarketing,
		RiskLevel: RiskLow,
	}

	verdict := ScoreRisk(allPass(), firstContact(), assessment, nil)

	assert.Equal(t, 5, verdict.Score)
	assert.Equal(t, []string{"first-time sender to recipient"}, verdict.Reasons)
}

func TestScoreRiskDeterministicReasonOrder(t *testing.T) {
	assessment := &ContextualAssessment{
		Intent:      IntentUrgentAction,
		RiskLevel:   RiskHigh,
		Explanation: "account lockout threat",
	}

	first := ScoreRisk(allFail(), firstContact(), assessment, nil)
	second := ScoreRisk(allFail(), firstContact(), assessment, nil)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Reasons, second.Reasons)
}

func TestLevelForScoreThresholds(t *testing.T) {
	tests := []struct {
		score int
		level RiskLevel
	}{
		{0, RiskLow},
		{14, RiskLow},
		{15, RiskMedium},
		{29, RiskMedium},
		{30, RiskHigh},
		{65, RiskHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelForScore(tt.score), "score %d", tt.score)
	}
}

func TestFormatReasons(t *testing.T) {
	assert.Equal(t, "", FormatReasons(nil))
	assert.Equal(t, "a; b", FormatReasons([]string{"a", "b"}))
}
