// Package analysis holds the provider-independent pieces of the contextual
// analyzer: the prompt sent to the model and the strict decoder for its
// response. Provider adapters (gemini, openai, bedrock) only move bytes.
package analysis

import (
	"fmt"

	"github.com/mikey/llm-phish-filter/internal/core"
)

const promptFormat = `Analyze the following email content for potential social engineering risks like phishing, BEC, or scams. Consider the provided communication history context. Provide output ONLY in valid JSON format with the specified keys.

Communication Context:
- Sender has sent emails to recipient before: %t
- Number of previous emails sent by sender to recipient: %d

Email Details:
Email Subject: %s
Sender: %s
Email Body:
---
%s
---

Analysis Tasks (respond in JSON):
{
  "intent": "Classify primary intent. Choose one: [Payment Request, Credential Request, Urgent Action Required, Information Request, Gift Card Request, Job Offer Scam, Impersonation Attempt, Marketing, Personal Communication, Spam, Other].",
  "urgency_score": "Rate perceived urgency as an integer (1=Low, 5=High).",
  "manipulation_score": "Rate likelihood of manipulative language as an integer (1=Low, 5=High).",
  "impersonation_likelihood": "Rate likelihood this is an impersonation attempt (Low, Medium, High), considering sender address and communication history context.",
  "risk_level": "Overall textual risk level (Low, Medium, High), considering communication context and content.",
  "explanation": "BRIEF (1-2 sentences) explanation for the risk level, mentioning key indicators and context if relevant."
}

Respond only with the JSON object and nothing else.`

// BuildPrompt renders the analysis request for one email. bodyExcerpt must
// already be capped and sanitized by the caller so every provider sends the
// same bounded payload.
func BuildPrompt(email *core.Email, commCtx core.CommunicationContext, bodyExcerpt string) string {
	return fmt.Sprintf(promptFormat,
		commCtx.HistoryExists,
		commCtx.PriorCount,
		email.Subject,
		email.Sender,
		bodyExcerpt,
	)
}
