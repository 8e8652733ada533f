package models

import "strings"

// ContentKind is the classification domain a payload belongs to.
type ContentKind string

const (
	KindImage ContentKind = "image"
	KindText  ContentKind = "text"
	KindVideo ContentKind = "video"
)

// Outcome is the final moderation decision for one request.
type Outcome string

const (
	OutcomeAllow  Outcome = "ALLOW"
	OutcomeReject Outcome = "REJECT"
)

// Violation records one policy breach contributing to a rejection.
type Violation struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
}

// Verdict is the result of evaluating one request. A REJECT verdict always
// carries at least one violation; an ALLOW verdict carries none but may still
// carry scores for the audit trail. Verdicts are produced fresh per request
// and never reused.
type Verdict struct {
	Outcome    Outcome            `json:"outcome"`
	Violations []Violation        `json:"violations,omitempty"`
	Scores     map[string]float64 `json:"scores,omitempty"`
}

// Allow returns an ALLOW verdict with no violations.
func Allow() Verdict {
	return Verdict{Outcome: OutcomeAllow}
}

// Reject returns a REJECT verdict carrying the given violations.
func Reject(violations ...Violation) Verdict {
	return Verdict{Outcome: OutcomeReject, Violations: violations}
}

// Rejected reports whether the verdict blocks the request.
func (v Verdict) Rejected() bool {
	return v.Outcome == OutcomeReject
}

// Message joins the ordered violation reasons into one human-readable string.
func (v Verdict) Message() string {
	if len(v.Violations) == 0 {
		return ""
	}
	reasons := make([]string, 0, len(v.Violations))
	for _, violation := range v.Violations {
		reasons = append(reasons, violation.Reason)
	}
	return strings.Join(reasons, "; ")
}
