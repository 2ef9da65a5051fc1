package deck

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Card is the canonical card shape every raw deck record normalizes to.
// CardNumber is the stable identity used as the join key for telemetry
// and mastery tracking.
type Card struct {
	CardNumber  int    `json:"cardNumber"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Distractor1 string `json:"distractor1"`
	Distractor2 string `json:"distractor2"`
	Distractor3 string `json:"distractor3"`
}

// Alternate key spellings tolerated per field in object-form records.
var (
	cardNumberKeys  = []string{"cardNumber", "Card Number", "card_number"}
	questionKeys    = []string{"question", "Question"}
	answerKeys      = []string{"answer", "Answer"}
	distractor1Keys = []string{"distractor1", "Distractor 1", "distractor_1"}
	distractor2Keys = []string{"distractor2", "Distractor 2", "distractor_2"}
	distractor3Keys = []string{"distractor3", "Distractor 3", "distractor_3"}
)

// Normalize converts a raw deck into canonical cards. Records may be
// array-form (fixed field order) or object-form (loosely keyed). Every
// record normalizes to something: decks are static data entered by
// non-engineers and must never crash the trainer. A nil or non-slice
// input yields an empty deck.
func Normalize(records []any) []Card {
	cards := make([]Card, 0, len(records))
	for i, record := range records {
		cards = append(cards, normalizeRecord(record, i))
	}
	return cards
}

func normalizeRecord(record any, index int) Card {
	switch rec := record.(type) {
	case []any:
		return Card{
			CardNumber:  coerceCardNumber(fieldAt(rec, 0), index),
			Question:    coerceString(fieldAt(rec, 1)),
			Answer:      coerceString(fieldAt(rec, 2)),
			Distractor1: coerceString(fieldAt(rec, 3)),
			Distractor2: coerceString(fieldAt(rec, 4)),
			Distractor3: coerceString(fieldAt(rec, 5)),
		}
	case map[string]any:
		return Card{
			CardNumber:  coerceCardNumber(pickField(rec, cardNumberKeys), index),
			Question:    coerceString(pickField(rec, questionKeys)),
			Answer:      coerceString(pickField(rec, answerKeys)),
			Distractor1: coerceString(pickField(rec, distractor1Keys)),
			Distractor2: coerceString(pickField(rec, distractor2Keys)),
			Distractor3: coerceString(pickField(rec, distractor3Keys)),
		}
	default:
		// Malformed record: position-numbered empty card.
		return Card{CardNumber: index + 1}
	}
}

func fieldAt(rec []any, i int) any {
	if i < len(rec) {
		return rec[i]
	}
	return nil
}

// pickField returns the first present, non-nil value among the key spellings.
func pickField(rec map[string]any, keys []string) any {
	for _, key := range keys {
		if v, ok := rec[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// coerceString renders any value as a string, nil as empty.
func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		// JSON numbers decode as float64; render integers without decimals.
		if s == math.Trunc(s) && !math.IsInf(s, 0) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// coerceCardNumber coerces a value to a positive integer, falling back to
// the 1-based position when the value is absent, zero, or unparseable.
func coerceCardNumber(v any, index int) int {
	n := 0
	switch num := v.(type) {
	case float64:
		if !math.IsNaN(num) && !math.IsInf(num, 0) {
			n = int(num)
		}
	case int:
		n = num
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(num)); err == nil {
			n = parsed
		}
	}
	if n == 0 {
		return index + 1
	}
	return n
}

// FormatName renders a deck file name for display: underscores become
// spaces and each word is title-cased ("greek_letters" -> "Greek Letters").
func FormatName(deckName string) string {
	parts := strings.Split(deckName, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
