package tools

import (
	"encoding/json"
	"fmt"
)

// FailureKind classifies a non-fatal tool failure. Failures are handed back
// to the engine so it can adapt; they never end the loop.
type FailureKind string

const (
	KindValidation        FailureKind = "validation"
	KindReferenceNotFound FailureKind = "reference_not_found"
	KindTypeMismatch      FailureKind = "type_mismatch"
	KindUnknownTool       FailureKind = "unknown_tool"
	KindUnavailable       FailureKind = "unavailable"
	KindAnalysis          FailureKind = "analysis_failed"
)

// Failure is the error half of a Result.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"error"`
}

func (f *Failure) Error() string { return string(f.Kind) + ": " + f.Message }

func failf(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Result is exactly one of a success payload or a Failure.
type Result struct {
	Tool    Name
	payload any
	failure *Failure
}

// Success builds a successful result.
func Success(tool Name, payload any) Result {
	return Result{Tool: tool, payload: payload}
}

// Fail builds a failed result.
func Fail(tool Name, f *Failure) Result {
	return Result{Tool: tool, failure: f}
}

// OK reports whether the result is a success.
func (r Result) OK() bool { return r.failure == nil }

// Payload returns the success payload, or nil on failure.
func (r Result) Payload() any { return r.payload }

// Failure returns the failure, or nil on success.
func (r Result) Failure() *Failure { return r.failure }

// Outcome is "ok" or the failure kind; used for logs and metrics.
func (r Result) Outcome() string {
	if r.failure != nil {
		return string(r.failure.Kind)
	}
	return "ok"
}

// JSON renders the result as the tool message content shown to the engine.
func (r Result) JSON() string {
	var v any = r.payload
	if r.failure != nil {
		v = r.failure
	}
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(failf(KindValidation, "unencodable result: %v", err))
	}
	return string(data)
}
