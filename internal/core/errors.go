package core

import (
	"errors"
	"fmt"
)

// AnalysisFailureKind names the ways a semantic analysis call can fail
type AnalysisFailureKind string

const (
	// AnalysisParseFailure means the model responded but the response was
	// not a valid assessment (malformed JSON, missing keys, out-of-enum
	// values)
	AnalysisParseFailure AnalysisFailureKind = "parse_failure"

	// AnalysisServiceFailure means the analysis service could not be
	// reached or returned a transport-level error
	AnalysisServiceFailure AnalysisFailureKind = "service_failure"

	// AnalysisSafetyBlocked means the upstream provider refused the
	// request under its own safety policy
	AnalysisSafetyBlocked AnalysisFailureKind = "safety_blocked"
)

// AnalysisError is a typed, non-fatal failure of the contextual analyzer.
// The pipeline converts it into a scoring input instead of aborting.
type AnalysisError struct {
	Kind AnalysisFailureKind
	Err  error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("analysis %s", e.Kind)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Reason returns the human-readable reason string recorded in the verdict
// when this failure degrades the score
func (e *AnalysisError) Reason() string {
	switch e.Kind {
	case AnalysisParseFailure:
		return "analysis failed: unparseable model response"
	case AnalysisServiceFailure:
		return "analysis failed: service unavailable"
	case AnalysisSafetyBlocked:
		return "analysis failed: blocked by provider safety policy"
	}
	return "analysis failed"
}

// NewAnalysisError wraps err as a typed analysis failure
func NewAnalysisError(kind AnalysisFailureKind, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, Err: err}
}

// AsAnalysisError unwraps err into an *AnalysisError if it is one
func AsAnalysisError(err error) (*AnalysisError, bool) {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// GraphWriteError marks a failed communication-graph write. Non-fatal: the
// verdict stands, the edge is lost until the message is seen again.
type GraphWriteError struct {
	Err error
}

func (e *GraphWriteError) Error() string {
	return fmt.Sprintf("graph write failed: %v", e.Err)
}

func (e *GraphWriteError) Unwrap() error {
	return e.Err
}

// ErrNoSender is returned for records whose sender address could not be
// resolved; such records are skipped before the pipeline runs.
var ErrNoSender = errors.New("email has no resolvable sender address")

// ErrNoRecipient is the recipient-side counterpart of ErrNoSender
var ErrNoRecipient = errors.New("email has no resolvable recipient address")
