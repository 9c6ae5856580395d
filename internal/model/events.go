package model

// SearchOutcome is the result of one search API call as seen by a session.
type SearchOutcome string

const (
	OutcomeSucceeded SearchOutcome = "succeeded"
	OutcomeFailed    SearchOutcome = "failed"
	// OutcomeDiscarded marks a response that arrived after the session was reset.
	OutcomeDiscarded SearchOutcome = "discarded"
)

// SearchCompleted is emitted once per finished search API call.
// It is published to Kafka and appended to the search log.
type SearchCompleted struct {
	SessionID      string        `json:"session_id"`
	Query          string        `json:"query"`
	Mode           string        `json:"mode"` // search | refine
	Results        int           `json:"results"`
	Outcome        SearchOutcome `json:"outcome"`
	Error          string        `json:"error,omitempty"`
	DurationMillis int64         `json:"duration_ms"`
	Timestamp      string        `json:"timestamp"` // RFC3339Nano, UTC
}
