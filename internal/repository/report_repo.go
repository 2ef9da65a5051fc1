package repository

import (
	"fmt"
	"strings"
	"time"

	"recalltrainer/internal/database"
	"recalltrainer/internal/models"
)

// ReportRepository runs the admin reporting queries over the telemetry
// tables.
type ReportRepository struct {
	db *database.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// TopDifficultCardsOptions filters the difficulty report. Zero values take
// the documented defaults.
type TopDifficultCardsOptions struct {
	DeckName    string
	Limit       int
	MinAttempts int
}

// BuildTopDifficultCardsQuery composes the difficulty query. The limit is
// clamped to [1,200] with a default of 20; the attempt floor is at least 1
// with a default of 3. Placeholders use ?, rewritten per dialect at
// execution.
func BuildTopDifficultCardsQuery(opts TopDifficultCardsOptions) (string, []any) {
	limit := clampLimit(opts.Limit, 20, 200)
	minAttempts := opts.MinAttempts
	if minAttempts < 1 {
		minAttempts = 3
	}

	var where string
	var args []any
	if opts.DeckName != "" {
		where = "WHERE deck_name = ?"
		args = append(args, opts.DeckName)
	}
	args = append(args, minAttempts, limit)

	query := fmt.Sprintf(`
		SELECT
			COALESCE(deck_name, '') AS deck_name,
			card_id,
			COUNT(*) AS attempts,
			SUM(CASE WHEN is_correct THEN 1 ELSE 0 END) AS correct_count,
			ROUND(100.0 * SUM(CASE WHEN is_correct THEN 1 ELSE 0 END) / COUNT(*), 2) AS accuracy_pct
		FROM quiz_attempts
		%s
		GROUP BY deck_name, card_id
		HAVING COUNT(*) >= ?
		ORDER BY accuracy_pct ASC, attempts DESC
		LIMIT ?
	`, where)

	return query, args
}

// TopDifficultCards returns the cards learners get wrong most often.
func (r *ReportRepository) TopDifficultCards(opts TopDifficultCardsOptions) ([]models.DifficultCard, error) {
	query, args := BuildTopDifficultCardsQuery(opts)
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query difficult cards: %w", err)
	}
	defer rows.Close()

	cards := []models.DifficultCard{}
	for rows.Next() {
		var card models.DifficultCard
		if err := rows.Scan(&card.DeckName, &card.CardID, &card.Attempts, &card.CorrectCount, &card.AccuracyPct); err != nil {
			return nil, fmt.Errorf("failed to scan difficult card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// LearnerProgressOptions filters the progress report.
type LearnerProgressOptions struct {
	DeckName string
	Limit    int
}

// BuildLearnerProgressQuery composes the per-learner mastery query. The
// limit is clamped to [1,500] with a default of 100. Anonymous mastery
// groups under the literal user id "anonymous".
func BuildLearnerProgressQuery(opts LearnerProgressOptions) (string, []any) {
	limit := clampLimit(opts.Limit, 100, 500)

	var where string
	var args []any
	if opts.DeckName != "" {
		where = "WHERE m.deck_name = ?"
		args = append(args, opts.DeckName)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT
			COALESCE(m.user_id, 'anonymous') AS user_id,
			COALESCE(m.deck_name, '') AS deck_name,
			COUNT(DISTINCT m.card_id) AS mastered_cards,
			MAX(m.timestamp) AS last_mastered_at
		FROM mastery_logs m
		%s
		GROUP BY COALESCE(m.user_id, 'anonymous'), m.deck_name
		ORDER BY mastered_cards DESC, last_mastered_at DESC
		LIMIT ?
	`, where)

	return query, args
}

// LearnerProgress returns mastery counts per learner and deck.
func (r *ReportRepository) LearnerProgress(opts LearnerProgressOptions) ([]models.ProgressRow, error) {
	query, args := BuildLearnerProgressQuery(opts)
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query learner progress: %w", err)
	}
	defer rows.Close()

	progress := []models.ProgressRow{}
	for rows.Next() {
		var row models.ProgressRow
		var lastMastered any
		if err := rows.Scan(&row.UserID, &row.DeckName, &row.MasteredCards, &lastMastered); err != nil {
			return nil, fmt.Errorf("failed to scan progress row: %w", err)
		}
		row.LastMasteredAt = renderValueString(lastMastered)
		progress = append(progress, row)
	}
	return progress, rows.Err()
}

// ReportModes lists the modes a per-mode report can target.
var ReportModes = map[string]bool{
	"reference": true,
	"exposure":  true,
	"grid":      true,
	"recall":    true,
	"loop":      true,
	"quiz":      true,
}

// ModeReport runs the sectioned report for one study mode. The limit is
// clamped to [1,200] with a default of 25; an empty deck name means all
// decks.
func (r *ReportRepository) ModeReport(mode, deckName string, limit int) ([]models.ReportSection, error) {
	if !ReportModes[mode] {
		return nil, fmt.Errorf("unsupported report mode %q", mode)
	}
	limit = clampLimit(limit, 25, 200)

	switch mode {
	case "reference":
		return r.referenceReport(deckName, limit)
	case "grid":
		return r.gridReport(deckName, limit)
	case "quiz":
		return r.quizReport(deckName, limit)
	case "exposure":
		return r.exposureReport(deckName, limit)
	case "recall":
		return r.recallReport(deckName, limit)
	default:
		return r.loopReport(deckName, limit)
	}
}

func (r *ReportRepository) referenceReport(deck string, limit int) ([]models.ReportSection, error) {
	searchTerms, err := r.section("search_terms", "Top Reference Search Terms", `
		SELECT search_term, COUNT(*) AS searches,
			COUNT(DISTINCT COALESCE(user_id, fingerprint_id)) AS users
		FROM search_logs
		WHERE mode = 'reference' %s
		GROUP BY search_term
		ORDER BY searches DESC
		LIMIT ?
	`, deck, limit)
	if err != nil {
		return nil, err
	}
	alphaCodes, err := r.section("alpha_codes", "Reference Filter Usage (Alpha Codes)", `
		SELECT alpha_code, COUNT(*) AS views,
			COUNT(DISTINCT COALESCE(user_id, fingerprint_id)) AS users
		FROM reference_views
		WHERE 1=1 %s
		GROUP BY alpha_code
		ORDER BY views DESC
		LIMIT ?
	`, deck, limit)
	if err != nil {
		return nil, err
	}
	duration, err := r.modeDurationSection("session_duration", "Reference Session Duration", "reference", deck)
	if err != nil {
		return nil, err
	}
	return []models.ReportSection{searchTerms, alphaCodes, duration}, nil
}

func (r *ReportRepository) gridReport(deck string, limit int) ([]models.ReportSection, error) {
	flips, err := r.section("grid_flips", "Grid Card Flips", `
		SELECT card_id, COUNT(*) AS flip_count,
			COUNT(DISTINCT COALESCE(user_id, fingerprint_id)) AS users
		FROM card_interactions
		WHERE interaction_type = 'flip' AND phase = 'grid' %s
		GROUP BY card_id
		ORDER BY flip_count DESC
		LIMIT ?
	`, deck, limit)
	if err != nil {
		return nil, err
	}
	duration, err := r.modeDurationSection("grid_session_duration", "Grid Session Duration", "grid", deck)
	if err != nil {
		return nil, err
	}
	return []models.ReportSection{flips, duration}, nil
}

func (r *ReportRepository) quizReport(deck string, limit int) ([]models.ReportSection, error) {
	difficulty, err := r.section("quiz_difficulty", "Quiz Difficulty by Card", `
		SELECT card_id, COUNT(*) AS attempts,
			SUM(CASE WHEN is_correct THEN 1 ELSE 0 END) AS correct_count,
			ROUND(100.0 * SUM(CASE WHEN is_correct THEN 1 ELSE 0 END) / COUNT(*), 2) AS accuracy_pct
		FROM quiz_attempts
		WHERE 1=1 %s
		GROUP BY card_id
		HAVING COUNT(*) >= 2
		ORDER BY accuracy_pct ASC, attempts DESC
		LIMIT ?
	`, deck, limit)
	if err != nil {
		return nil, err
	}
	timing, err := r.section("quiz_timing", "Quiz Response Time by Card", `
		SELECT card_id, ROUND(AVG(time_to_answer_ms), 2) AS avg_time_to_answer_ms,
			COUNT(*) AS attempts
		FROM quiz_timing
		WHERE 1=1 %s
		GROUP BY card_id
		ORDER BY avg_time_to_answer_ms DESC
		LIMIT ?
	`, deck, limit)
	if err != nil {
		return nil, err
	}
	mastery, err := r.section("quiz_mastery", "Quiz Mastery by User", `
		SELECT COALESCE(user_id, 'anonymous') AS user_id,
			COUNT(DISTINCT card_id) AS mastered_cards,
			MAX(timestamp) AS last_mastered_at
		FROM mastery_logs
		WHERE 1=1 %s
		GROUP BY COALESCE(user_id, 'anonymous')
		ORDER BY mastered_cards DESC, last_mastered_at DESC
		LIMIT ?
	`, deck, limit)
	if err != nil {
		return nil, err
	}
	duration, err := r.modeDurationSection("quiz_session_duration", "Quiz Session Duration", "quiz", deck)
	if err != nil {
		return nil, err
	}
	return []models.ReportSection{difficulty, timing, mastery, duration}, nil
}

func (r *ReportRepository) exposureReport(deck string, limit int) ([]models.ReportSection, error) {
	batchDuration, err := r.section("exposure_batch_duration", "Exposure Batch Duration", `
		SELECT batch_id, COUNT(*) AS sessions,
			ROUND(AVG(duration_seconds), 2) AS avg_duration_seconds,
			MAX(duration_seconds) AS max_duration_seconds
		FROM phase_logs
		WHERE phase = 'exposure' %s
		GROUP BY batch_id
		ORDER BY avg_duration_seconds DESC
		LIMIT ?
	`, deck, limit)
	if err != nil {
		return nil, err
	}
	passiveFlips, err := r.section("exposure_passive_flips", "Exposure Passive Flips", `
		SELECT card_id, COUNT(*) AS passive_flip_count,
			COUNT(DISTINCT COALESCE(user_id, fingerprint_id)) AS users
		FROM card_interactions
		WHERE phase = 'exposure' AND interaction_type = 'flip' %s
		GROUP BY card_id
		ORDER BY passive_flip_count DESC
		LIMIT ?
	`, deck, limit)
	if err != nil {
		return nil, err
	}
	duration, err := r.modeDurationSection("exposure_session_duration", "Exposure Session Duration", "exposure", deck)
	if err != nil {
		return nil, err
	}
	return []models.ReportSection{batchDuration, passiveFlips, duration}, nil
}

func (r *ReportRepository) recallReport(deck string, limit int) ([]models.ReportSection, error) {
	firstPass, err := r.section("recall_first_pass", "Recall First-Attempt Accuracy", `
		SELECT card_id, COUNT(*) AS attempts,
			SUM(CASE WHEN is_correct THEN 1 ELSE 0 END) AS correct_count,
			ROUND(100.0 * SUM(CASE WHEN is_correct THEN 1 ELSE 0 END) / COUNT(*), 2) AS first_pass_accuracy_pct
		FROM quiz_results
		WHERE phase = 'recall' %s
		GROUP BY card_id
		ORDER BY first_pass_accuracy_pct ASC, attempts DESC
		LIMIT ?
	`, deck, limit)
	if err != nil {
		return nil, err
	}
	flipTiming, err := r.section("recall_flip_timing", "Recall Time-to-Flip", `
		SELECT card_id, ROUND(AVG(time_to_flip_ms), 2) AS avg_time_to_flip_ms,
			COUNT(*) AS attempts
		FROM card_timing
		WHERE 1=1 %s
		GROUP BY card_id
		ORDER BY avg_time_to_flip_ms DESC
		LIMIT ?
	`, deck, limit)
	if err != nil {
		return nil, err
	}
	duration, err := r.modeDurationSection("recall_session_duration", "Recall Session Duration", "recall", deck)
	if err != nil {
		return nil, err
	}
	return []models.ReportSection{firstPass, flipTiming, duration}, nil
}

func (r *ReportRepository) loopReport(deck string, limit int) ([]models.ReportSection, error) {
	iterations, err := r.section("loop_iterations", "Loop Iterations by Card", `
		SELECT card_id, ROUND(AVG(attempts_count), 2) AS avg_attempts_count,
			MAX(attempts_count) AS max_attempts_count,
			COUNT(*) AS records
		FROM loop_metrics
		WHERE 1=1 %s
		GROUP BY card_id
		ORDER BY avg_attempts_count DESC, records DESC
		LIMIT ?
	`, deck, limit)
	if err != nil {
		return nil, err
	}
	abandons, err := r.section("loop_abandons", "Loop Drop-off by Batch", `
		SELECT batch_id, COUNT(*) AS abandon_count
		FROM session_abandons
		WHERE phase = 'loop' %s
		GROUP BY batch_id
		ORDER BY abandon_count DESC
		LIMIT ?
	`, deck, limit)
	if err != nil {
		return nil, err
	}
	duration, err := r.modeDurationSection("loop_session_duration", "Loop Session Duration", "loop", deck)
	if err != nil {
		return nil, err
	}
	return []models.ReportSection{iterations, abandons, duration}, nil
}

// section runs one grouped query. The template's %s takes the optional
// deck filter, whose placeholder precedes the limit.
func (r *ReportRepository) section(key, title, template, deck string, limit int) (models.ReportSection, error) {
	var filter string
	var args []any
	if deck != "" {
		filter = "AND deck_name = ?"
		args = append(args, deck)
	}
	args = append(args, limit)

	rows, err := r.queryRows(fmt.Sprintf(template, filter), args...)
	if err != nil {
		return models.ReportSection{}, fmt.Errorf("report section %s failed: %w", key, err)
	}
	return models.ReportSection{Key: key, Title: title, Rows: rows}, nil
}

// modeDurationSection summarizes session_logs for one mode. No limit: the
// aggregate always yields a single row.
func (r *ReportRepository) modeDurationSection(key, title, mode, deck string) (models.ReportSection, error) {
	query := `
		SELECT COUNT(*) AS sessions,
			ROUND(AVG(duration_seconds), 2) AS avg_duration_seconds,
			MAX(duration_seconds) AS max_duration_seconds
		FROM session_logs
		WHERE mode = ?
	`
	args := []any{mode}
	if deck != "" {
		query += " AND deck_name = ?"
		args = append(args, deck)
	}

	rows, err := r.queryRows(query, args...)
	if err != nil {
		return models.ReportSection{}, fmt.Errorf("report section %s failed: %w", key, err)
	}
	return models.ReportSection{Key: key, Title: title, Rows: rows}, nil
}

// queryRows scans a result set into generic rows keyed by column name.
func (r *ReportRepository) queryRows(query string, args ...any) ([]map[string]any, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// normalizeValue makes driver-specific scan results JSON-friendly.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return v
	}
}

// renderValueString renders a scanned value as text, empty for NULL.
func renderValueString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// clampLimit applies the default for zero and bounds the result to [1,max].
func clampLimit(limit, def, max int) int {
	if limit == 0 {
		limit = def
	}
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}
