package model

import "time"

// Verdict is the user-facing outcome of a fact-check
type Verdict string

const (
	VerdictAuthentic    Verdict = "authentic"     // Every claim corroborated
	VerdictNotAuthentic Verdict = "not_authentic" // Sources searched, nothing corroborated
	VerdictMixed        Verdict = "mixed"         // Some claims corroborated, some not
	VerdictUnclear      Verdict = "unclear"       // Nothing could anchor a search
	VerdictErrored      Verdict = "errored"       // Pipeline failed; see ErrorContext
)

// ErrorContext is the structured, sanitized diagnostic record attached to an
// errored response. Created exactly once at the point of first catch; the only
// channel through which failure detail reaches the caller.
type ErrorContext struct {
	Stage     string            `json:"stage"`
	Operation string            `json:"operation"`
	Kind      string            `json:"kind"`
	Message   string            `json:"message"`
	Inputs    map[string]string `json:"inputs,omitempty"` // Sanitized snapshot, never raw bytes or secrets
	Frames    []string          `json:"frames,omitempty"` // Condensed causal trace
	Timestamp time.Time         `json:"timestamp"`
}

// Response is the terminal result of one fact-check request. The pipeline
// always returns one, whether it succeeded, failed, or was cancelled.
type Response struct {
	RequestID  string  `json:"request_id"` // Trace identifier, propagated verbatim
	ClaimID    string  `json:"claim_id"`
	Verdict    Verdict `json:"verdict"`
	Confidence float64 `json:"confidence"`

	Claims     []*Claim       `json:"claims,omitempty"`
	Evidence   []EvidenceItem `json:"evidence,omitempty"`
	References []Reference    `json:"references,omitempty"`

	Explanation   string   `json:"explanation,omitempty"`
	SearchQueries []string `json:"search_queries_used,omitempty"`

	Cached           bool               `json:"cached"`
	ProcessingTimeMS float64            `json:"processing_time_ms"`
	StageTimings     map[string]float64 `json:"stage_timings_ms,omitempty"`

	ErrorContext *ErrorContext `json:"error_context,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}
