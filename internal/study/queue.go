package study

import (
	"math/rand"

	"recalltrainer/internal/deck"
)

// QueueEntry is one prompt in a recall or loop pass. Each card contributes
// two entries, one per direction, so both recognition and production get
// drilled.
type QueueEntry struct {
	CardNumber int
	Front      string
	Back       string
}

// BuildQueue expands cards into bidirectional entries and shuffles them.
// The result has exactly twice as many entries as cards.
func BuildQueue(cards []deck.Card, rng *rand.Rand) []QueueEntry {
	queue := make([]QueueEntry, 0, len(cards)*2)
	for _, card := range cards {
		queue = append(queue, QueueEntry{
			CardNumber: card.CardNumber,
			Front:      card.Question,
			Back:       card.Answer,
		})
		queue = append(queue, QueueEntry{
			CardNumber: card.CardNumber,
			Front:      card.Answer,
			Back:       card.Question,
		})
	}
	rng.Shuffle(len(queue), func(i, j int) {
		queue[i], queue[j] = queue[j], queue[i]
	})
	return queue
}

// BuildQuizOptions shuffles the answer together with the card's non-empty
// distractors. Duplicate texts are kept as-is; deck authors own option
// uniqueness.
func BuildQuizOptions(card deck.Card, rng *rand.Rand) []string {
	options := make([]string, 0, 4)
	for _, option := range []string{card.Answer, card.Distractor1, card.Distractor2, card.Distractor3} {
		if option != "" {
			options = append(options, option)
		}
	}
	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}
