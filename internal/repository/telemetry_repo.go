package repository

import (
	"fmt"
	"time"

	"recalltrainer/internal/database"
	"recalltrainer/internal/telemetry"
)

// TelemetryRepository persists telemetry event batches.
type TelemetryRepository struct {
	db *database.DB
}

// NewTelemetryRepository creates a new telemetry repository
func NewTelemetryRepository(db *database.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// InsertBatch writes a validated batch atomically. Each event first ensures
// its client session row exists (idempotently, so concurrent batches for
// one session cannot fail), then lands in its per-type table.
func (r *TelemetryRepository) InsertBatch(events []telemetry.Event, clientIP string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin telemetry transaction: %w", err)
	}
	defer tx.Rollback()

	for _, event := range events {
		if err := r.ensureSession(tx, event, clientIP); err != nil {
			return err
		}
		if err := r.insertEvent(tx, event); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit telemetry batch: %w", err)
	}
	return nil
}

// Ping verifies database reachability for the ingestion health check.
func (r *TelemetryRepository) Ping() error {
	var one int
	if err := r.db.QueryRow("SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("telemetry store unreachable: %w", err)
	}
	return nil
}

func (r *TelemetryRepository) ensureSession(tx *database.Tx, event telemetry.Event, clientIP string) error {
	query := tx.GetDialect().InsertIgnore(`
		INSERT INTO sessions (
			session_id, user_id, fingerprint_id, started_at,
			ip_address, user_agent, timezone, language,
			screen_width, screen_height, referrer_url,
			utm_source, utm_medium, utm_campaign
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, "session_id")

	_, err := tx.Exec(query,
		event.SessionID,
		nullString(event.UserID),
		fallback(event.FingerprintID, "unknown"),
		eventTime(event),
		nullString(clientIP),
		nullString(event.UserAgent),
		nullString(event.Timezone),
		nullString(event.Language),
		nullInt(event.ScreenWidth),
		nullInt(event.ScreenHeight),
		nullString(event.ReferrerURL),
		nil, nil, nil,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure session %s: %w", event.SessionID, err)
	}
	return nil
}

func (r *TelemetryRepository) insertEvent(tx *database.Tx, event telemetry.Event) error {
	sessionID := event.SessionID
	userID := nullString(event.UserID)
	fingerprint := fallback(event.FingerprintID, "unknown")
	deckName := nullString(event.DeckName)
	cardID := fallback(event.CardID, "unknown")
	ts := eventTime(event)

	var err error
	switch event.Type {
	case telemetry.TypeSessionLog:
		_, err = tx.Exec(`
			INSERT INTO session_logs (session_id, user_id, fingerprint_id, deck_name, mode, duration_seconds, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, sessionID, userID, fingerprint, deckName, fallback(event.Mode, "unknown"), clampNonNegative(event.DurationSeconds), ts)

	case telemetry.TypeQuizAttempt:
		_, err = tx.Exec(`
			INSERT INTO quiz_attempts (session_id, user_id, fingerprint_id, deck_name, card_id, is_correct, selected_answer_id, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, sessionID, userID, fingerprint, deckName, cardID, boolValue(event.IsCorrect), nullString(event.SelectedAnswerID), ts)

	case telemetry.TypeQuizTiming:
		_, err = tx.Exec(`
			INSERT INTO quiz_timing (session_id, user_id, fingerprint_id, deck_name, card_id, time_to_answer_ms, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, sessionID, userID, fingerprint, deckName, cardID, clampNonNegative64(event.TimeToAnswerMs), ts)

	case telemetry.TypeSearchLog:
		_, err = tx.Exec(`
			INSERT INTO search_logs (session_id, user_id, fingerprint_id, deck_name, mode, search_term, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, sessionID, userID, fingerprint, deckName, fallback(event.Mode, "unknown"), event.SearchTerm, ts)

	case telemetry.TypeReferenceView:
		_, err = tx.Exec(`
			INSERT INTO reference_views (session_id, user_id, fingerprint_id, deck_name, alpha_code, timestamp)
			VALUES (?, ?, ?, ?, ?, ?)
		`, sessionID, userID, fingerprint, deckName, nullString(event.AlphaCode), ts)

	case telemetry.TypeCardInteraction:
		_, err = tx.Exec(`
			INSERT INTO card_interactions (session_id, user_id, fingerprint_id, deck_name, card_id, interaction_type, phase, action, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, sessionID, userID, fingerprint, deckName, cardID, fallback(event.InteractionType, "unknown"), nullString(event.Phase), nullString(event.Action), ts)

	case telemetry.TypePhaseLog:
		_, err = tx.Exec(`
			INSERT INTO phase_logs (session_id, user_id, fingerprint_id, deck_name, batch_id, phase, duration_seconds, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, sessionID, userID, fingerprint, deckName, nullString(event.BatchID), fallback(event.Phase, "unknown"), clampNonNegative(event.DurationSeconds), ts)

	case telemetry.TypeQuizResult:
		_, err = tx.Exec(`
			INSERT INTO quiz_results (session_id, user_id, fingerprint_id, deck_name, card_id, batch_id, is_correct, phase, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, sessionID, userID, fingerprint, deckName, cardID, nullString(event.BatchID), boolValue(event.IsCorrect), fallback(event.Phase, "unknown"), ts)

	case telemetry.TypeCardTiming:
		_, err = tx.Exec(`
			INSERT INTO card_timing (session_id, user_id, fingerprint_id, deck_name, card_id, time_to_flip_ms, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, sessionID, userID, fingerprint, deckName, cardID, clampNonNegative64(event.TimeToFlipMs), ts)

	case telemetry.TypeLoopMetric:
		_, err = tx.Exec(`
			INSERT INTO loop_metrics (session_id, user_id, fingerprint_id, deck_name, card_id, batch_id, attempts_count, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, sessionID, userID, fingerprint, deckName, cardID, nullString(event.BatchID), clampNonNegative(event.AttemptsCount), ts)

	case telemetry.TypeMasteryLog:
		_, err = tx.Exec(`
			INSERT INTO mastery_logs (session_id, user_id, fingerprint_id, deck_name, card_id, marked_known, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, sessionID, userID, fingerprint, deckName, cardID, boolValue(event.MarkedKnown), ts)

	case telemetry.TypeSessionAbandon:
		_, err = tx.Exec(`
			INSERT INTO session_abandons (session_id, user_id, fingerprint_id, deck_name, batch_id, phase, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, sessionID, userID, fingerprint, deckName, nullString(event.BatchID), fallback(event.Phase, "unknown"), ts)

	default:
		// Validation upstream guarantees a known type; an unknown one
		// here means the batch bypassed validation, so fail the whole
		// transaction.
		return fmt.Errorf("unsupported telemetry type %q", event.Type)
	}

	if err != nil {
		return fmt.Errorf("failed to insert %s event: %w", event.Type, err)
	}
	return nil
}

func eventTime(event telemetry.Event) time.Time {
	if event.Timestamp.IsZero() {
		return time.Now().UTC()
	}
	return event.Timestamp.UTC()
}

func fallback(s, alt string) string {
	if s == "" {
		return alt
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func boolValue(b *bool) bool {
	return b != nil && *b
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func clampNonNegative64(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
