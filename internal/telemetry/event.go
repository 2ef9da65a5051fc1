package telemetry

import "time"

// Event type taxonomy. The ingestion endpoint rejects anything else.
const (
	TypeSessionLog     = "session_log"
	TypeQuizAttempt    = "quiz_attempt"
	TypeQuizTiming     = "quiz_timing"
	TypeSearchLog      = "search_log"
	TypeReferenceView  = "reference_view"
	TypeCardInteraction = "card_interaction"
	TypePhaseLog       = "phase_log"
	TypeQuizResult     = "quiz_result"
	TypeCardTiming     = "card_timing"
	TypeLoopMetric     = "loop_metric"
	TypeMasteryLog     = "mastery_log"
	TypeSessionAbandon = "session_abandon"
)

// AllowedTypes is the set of event types the ingestion boundary accepts.
var AllowedTypes = map[string]bool{
	TypeSessionLog:      true,
	TypeQuizAttempt:     true,
	TypeQuizTiming:      true,
	TypeSearchLog:       true,
	TypeReferenceView:   true,
	TypeCardInteraction: true,
	TypePhaseLog:        true,
	TypeQuizResult:      true,
	TypeCardTiming:      true,
	TypeLoopMetric:      true,
	TypeMasteryLog:      true,
	TypeSessionAbandon:  true,
}

// Event is the discriminated telemetry record. Type selects which of the
// optional fields are meaningful; the ingestion side reads only the fields
// relevant to each type and ignores the rest.
type Event struct {
	Type          string    `json:"type"`
	SessionID     string    `json:"session_id"`
	FingerprintID string    `json:"fingerprint_id"`
	UserID        string    `json:"user_id,omitempty"`
	DeckName      string    `json:"deck_name,omitempty"`
	Timestamp     time.Time `json:"timestamp"`

	// Client context captured once per emitter.
	UserAgent    string `json:"user_agent,omitempty"`
	Language     string `json:"language,omitempty"`
	Timezone     string `json:"timezone,omitempty"`
	ScreenWidth  int    `json:"screen_width,omitempty"`
	ScreenHeight int    `json:"screen_height,omitempty"`
	ReferrerURL  string `json:"referrer_url,omitempty"`

	// Per-type payload fields.
	Mode             string `json:"mode,omitempty"`
	CardID           string `json:"card_id,omitempty"`
	BatchID          string `json:"batch_id,omitempty"`
	Phase            string `json:"phase,omitempty"`
	SearchTerm       string `json:"search_term,omitempty"`
	AlphaCode        string `json:"alpha_code,omitempty"`
	InteractionType  string `json:"interaction_type,omitempty"`
	Action           string `json:"action,omitempty"`
	SelectedAnswerID string `json:"selected_answer_id,omitempty"`
	IsCorrect        *bool  `json:"is_correct,omitempty"`
	MarkedKnown      *bool  `json:"marked_known,omitempty"`
	DurationSeconds  int    `json:"duration_seconds,omitempty"`
	TimeToFlipMs     int64  `json:"time_to_flip_ms,omitempty"`
	TimeToAnswerMs   int64  `json:"time_to_answer_ms,omitempty"`
	AttemptsCount    int    `json:"attempts_count,omitempty"`
}

// Batch is the wire payload for the ingestion endpoint.
type Batch struct {
	Events []Event `json:"events"`
}

// ClientContext carries the per-installation request context stamped onto
// every event.
type ClientContext struct {
	UserAgent    string
	Language     string
	Timezone     string
	ScreenWidth  int
	ScreenHeight int
	ReferrerURL  string
}

func boolPtr(b bool) *bool { return &b }
