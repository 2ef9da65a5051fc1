package models

// DifficultCard is one row of the top-difficult-cards report: a card's
// attempt volume and accuracy across all quiz attempts.
type DifficultCard struct {
	DeckName     string  `json:"deck_name"`
	CardID       string  `json:"card_id"`
	Attempts     int     `json:"attempts"`
	CorrectCount int     `json:"correct_count"`
	AccuracyPct  float64 `json:"accuracy_pct"`
}

// ProgressRow is one row of the learner-progress report: how many distinct
// cards a user has mastered per deck. Anonymous activity groups under the
// user id "anonymous".
type ProgressRow struct {
	UserID         string `json:"user_id"`
	DeckName       string `json:"deck_name"`
	MasteredCards  int    `json:"mastered_cards"`
	LastMasteredAt string `json:"last_mastered_at"`
}

// ReportSection is one titled block of a per-mode report. Row shapes vary
// per section, so rows stay generic.
type ReportSection struct {
	Key   string           `json:"key"`
	Title string           `json:"title"`
	Rows  []map[string]any `json:"rows"`
}
