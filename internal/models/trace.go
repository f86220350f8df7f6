package models

import "time"

// Activation outcomes recorded in traces and statistics.
const (
	OutcomeIntercepted      = "intercepted"
	OutcomeEndpointMismatch = "endpoint-mismatch"
	OutcomeSpecNotFound     = "spec-not-found"
	OutcomeSynthFailed      = "synthesis-failed"
)

// Trace represents one captured activation attempt and its outcome
type Trace struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method"`
	URL       string    `json:"url"`
	Outcome   string    `json:"outcome"`
	Endpoint  string    `json:"endpoint,omitempty"` // matched endpoint host

	// Match details, present when an operation matched
	SpecKey  string `json:"specKey,omitempty"`
	Template string `json:"template,omitempty"`
	Score    int    `json:"score,omitempty"`

	// Installed intercept, present when outcome is "intercepted"
	StatusCode int    `json:"statusCode,omitempty"`
	Body       string `json:"body,omitempty"`
	Error      string `json:"error,omitempty"`
}

// TraceFilter represents filters for querying traces
type TraceFilter struct {
	Endpoint  string    `json:"endpoint,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Method    string    `json:"method,omitempty"`
	SpecKey   string    `json:"specKey,omitempty"`
	StartTime time.Time `json:"startTime,omitempty"`
	EndTime   time.Time `json:"endTime,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	Offset    int       `json:"offset,omitempty"`
}
