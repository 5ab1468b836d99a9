package core

import (
	"time"
)

// Email represents a normalized email message handed over by the mail
// fetch/parse layer. Sender and Recipient are lower-cased bare addresses;
// header keys are lower-cased.
type Email struct {
	MessageID string
	Sender    string
	Recipient string
	Subject   string
	Body      string
	Headers   map[string]string
	SentAt    time.Time
}

// AuthVerdict is the outcome of a single email authentication mechanism
type AuthVerdict string

const (
	AuthPass    AuthVerdict = "pass"
	AuthFail    AuthVerdict = "fail"
	AuthNeutral AuthVerdict = "neutral"
)

// AuthResult holds the SPF/DKIM/DMARC verdicts derived from the
// authentication-results header
type AuthResult struct {
	SPF   AuthVerdict
	DKIM  AuthVerdict
	DMARC AuthVerdict
}

// CommunicationContext describes the recorded sender→recipient relationship
// at query time. Unavailable is set when the graph store could not be
// queried; callers treat that as "no history" and record the downgrade.
type CommunicationContext struct {
	HistoryExists bool
	PriorCount    int
	Unavailable   bool
}

// Intent classifies the primary purpose of an email as judged by the model
type Intent string

const (
	IntentPaymentRequest     Intent = "Payment Request"
	IntentCredentialRequest  Intent = "Credential Request"
	IntentUrgentAction       Intent = "Urgent Action Required"
	IntentInformationRequest Intent = "Information Request"
	IntentGiftCardRequest    Intent = "Gift Card Request"
	IntentJobOfferScam       Intent = "Job Offer Scam"
	IntentImpersonation      Intent = "Impersonation Attempt"
	IntentMarketing          Intent = "Marketing"
	IntentPersonal           Intent = "Personal Communication"
	IntentSpam               Intent = "Spam"
	IntentOther              Intent = "Other"
)

// RiskLevel is a categorical risk label, used both for the model's own
// assessment and for the fused verdict
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// ContextualAssessment is the validated result of the semantic analysis of
// one email. UrgencyScore and ManipulationScore are 1-5.
type ContextualAssessment struct {
	Intent                  Intent
	UrgencyScore            int
	ManipulationScore       int
	ImpersonationLikelihood RiskLevel
	RiskLevel               RiskLevel
	Explanation             string
}

// RiskVerdict is the fused outcome for one processed email. Reasons are in
// evaluation order and are byte-for-byte reproducible for identical inputs.
type RiskVerdict struct {
	Score        int
	Level        RiskLevel
	Reasons      []string
	ProcessingID string
	AnalyzedAt   time.Time
	ModelUsed    string
}

// CommunicationRecord is one sender→recipient edge to be persisted in the
// communication graph. MessageID is the natural deduplication key.
type CommunicationRecord struct {
	Sender    string
	Recipient string
	MessageID string
	SentAt    time.Time
	RiskLevel RiskLevel
}
