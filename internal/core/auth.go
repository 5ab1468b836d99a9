package core

import (
	"strings"
)

// EvaluateAuth derives SPF/DKIM/DMARC verdicts from the
// authentication-results header of a normalized email. It is a pure, total
// function: a missing or malformed header yields all-neutral, never an error.
// Absence of evidence is neutral, not pass.
func EvaluateAuth(headers map[string]string) AuthResult {
	authResults := strings.ToLower(headers["authentication-results"])

	return AuthResult{
		SPF:   mechanismVerdict(authResults, "spf"),
		DKIM:  mechanismVerdict(authResults, "dkim"),
		DMARC: mechanismVerdict(authResults, "dmarc"),
	}
}

func mechanismVerdict(authResults, mechanism string) AuthVerdict {
	switch {
	case strings.Contains(authResults, mechanism+"=pass"):
		return AuthPass
	case strings.Contains(authResults, mechanism+"=fail"):
		return AuthFail
	default:
		return AuthNeutral
	}
}
