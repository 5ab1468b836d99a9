package core

import (
	"fmt"
	"strings"
)

// Score weights. The additive model is intentionally simple: authentication
// and history failures compound with the model's own assessment so that a
// model-labeled Medium email can still fuse to High.
const (
	weightSPF            = 5
	weightDKIM           = 5
	weightDMARC          = 10
	weightFirstContact   = 5
	weightAnalysisFailed = 5
	weightModelMedium    = 15
	weightModelHigh      = 30
	weightRiskyIntent    = 10
)

// Fused level thresholds
const (
	mediumThreshold = 15
	highThreshold   = 30
)

// riskyIntents are intents that escalate further when coming from a sender
// with no recorded history toward the recipient
var riskyIntents = map[Intent]bool{
	IntentPaymentRequest:    true,
	IntentCredentialRequest: true,
	IntentUrgentAction:      true,
}

// ScoreRisk fuses authentication results, communication context and the
// contextual assessment into a single verdict. assessment is nil when the
// analysis failed; analysisErr then carries the failure kind.
//
// The evaluation order is fixed and the reason list mirrors it exactly, so
// identical inputs always reproduce identical reason sequences.
func ScoreRisk(auth AuthResult, commCtx CommunicationContext, assessment *ContextualAssessment, analysisErr *AnalysisError) RiskVerdict {
	score := 0
	var reasons []string

	if auth.SPF != AuthPass {
		score += weightSPF
		reasons = append(reasons, "SPF fail/neutral")
	}
	if auth.DKIM != AuthPass {
		score += weightDKIM
		reasons = append(reasons, "DKIM fail/neutral")
	}
	if auth.DMARC != AuthPass {
		score += weightDMARC
		reasons = append(reasons, "DMARC fail/neutral")
	}

	// An unreachable store downgrades to "no history"; the reason records
	// the downgrade so the verdict is honest about its inputs.
	firstContact := !commCtx.HistoryExists
	if firstContact {
		score += weightFirstContact
		if commCtx.Unavailable {
			reasons = append(reasons, "communication history unavailable; treating as first contact")
		} else {
			reasons = append(reasons, "first-time sender to recipient")
		}
	}

	if analysisErr != nil {
		score += weightAnalysisFailed
		reasons = append(reasons, analysisErr.Reason())
	} else if assessment != nil {
		switch assessment.RiskLevel {
		case RiskMedium:
			score += weightModelMedium
			reasons = append(reasons, fmt.Sprintf("model assessed medium risk: %s", assessment.Explanation))
		case RiskHigh:
			score += weightModelHigh
			reasons = append(reasons, fmt.Sprintf("model assessed high risk: %s", assessment.Explanation))
		}

		if firstContact && riskyIntents[assessment.Intent] {
			score += weightRiskyIntent
			reasons = append(reasons, "risky intent from first-time sender")
		}
	}

	return RiskVerdict{
		Score:   score,
		Level:   LevelForScore(score),
		Reasons: reasons,
	}
}

// LevelForScore maps a fused score onto the categorical level. Monotonic
// step function: Low below 15, Medium below 30, High from 30 up.
func LevelForScore(score int) RiskLevel {
	switch {
	case score >= highThreshold:
		return RiskHigh
	case score >= mediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// FormatReasons renders the ordered reason trail as a single header-safe
// line for the mail surfaces
func FormatReasons(reasons []string) string {
	return strings.Join(reasons, "; ")
}
