package telemetry

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultSearchDebounce is the quiet period after the last keystroke
// before a search event is emitted.
const DefaultSearchDebounce = 500 * time.Millisecond

// Emitter derives telemetry events from study-session transitions and
// hands them to a Sink. Delivery is fire-and-forget: failures are logged
// and swallowed, never retried, and never block the caller. Events derived
// from one user action go out together as a single batch in generation
// order.
type Emitter struct {
	mu       sync.Mutex
	sink     Sink
	identity Identity
	client   ClientContext

	userID   string
	deckName string

	now func() time.Time

	debounceDelay time.Duration
	searchTimer   *time.Timer
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithClock overrides the emitter's time source.
func WithClock(now func() time.Time) EmitterOption {
	return func(e *Emitter) { e.now = now }
}

// WithClientContext stamps the given client context onto every event.
func WithClientContext(client ClientContext) EmitterOption {
	return func(e *Emitter) { e.client = client }
}

// WithSearchDebounce overrides the search quiet period.
func WithSearchDebounce(d time.Duration) EmitterOption {
	return func(e *Emitter) { e.debounceDelay = d }
}

// NewEmitter creates an emitter bound to an identity and sink.
func NewEmitter(sink Sink, identity Identity, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		sink:          sink,
		identity:      identity,
		now:           time.Now,
		debounceDelay: DefaultSearchDebounce,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetUser records the authenticated user id, or "" for anonymous.
func (e *Emitter) SetUser(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.userID = userID
}

// SetDeck records the active deck name, or "" when on the home screen.
func (e *Emitter) SetDeck(deckName string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deckName = deckName
}

// Close cancels any pending debounced search event.
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.searchTimer != nil {
		e.searchTimer.Stop()
		e.searchTimer = nil
	}
}

// base stamps a new event with identity, user, deck, client context and
// the current time.
func (e *Emitter) base() Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Event{
		SessionID:     e.identity.SessionID,
		FingerprintID: e.identity.FingerprintID,
		UserID:        e.userID,
		DeckName:      e.deckName,
		Timestamp:     e.now(),
		UserAgent:     e.client.UserAgent,
		Language:      e.client.Language,
		Timezone:      e.client.Timezone,
		ScreenWidth:   e.client.ScreenWidth,
		ScreenHeight:  e.client.ScreenHeight,
		ReferrerURL:   e.client.ReferrerURL,
	}
}

// Track delivers events as a single batch on a background goroutine.
// Events are dropped when the identifiers are missing; the ingestion
// boundary would reject them anyway.
func (e *Emitter) Track(events ...Event) {
	if len(events) == 0 || e.identity.SessionID == "" || e.identity.FingerprintID == "" {
		return
	}
	go func() {
		if err := e.sink.Send(context.Background(), events); err != nil {
			log.Printf("telemetry delivery failed: %v", err)
		}
	}()
}

// TrackFinal delivers events synchronously on the page-closing path.
func (e *Emitter) TrackFinal(events ...Event) {
	if len(events) == 0 || e.identity.SessionID == "" || e.identity.FingerprintID == "" {
		return
	}
	if err := e.sink.SendFinal(events); err != nil {
		log.Printf("telemetry final delivery failed: %v", err)
	}
}

// wholeSeconds floors an elapsed duration to whole seconds, never negative.
func wholeSeconds(elapsed time.Duration) int {
	s := int(elapsed / time.Second)
	if s < 0 {
		return 0
	}
	return s
}

// TrackModeDuration emits a session_log for time spent in a mode.
// Near-zero visits (under one whole second) are suppressed.
func (e *Emitter) TrackModeDuration(mode string, enteredAt time.Time) {
	if mode == "" || enteredAt.IsZero() {
		return
	}
	seconds := wholeSeconds(e.now().Sub(enteredAt))
	if seconds <= 0 {
		return
	}
	ev := e.base()
	ev.Type = TypeSessionLog
	ev.Mode = mode
	ev.DurationSeconds = seconds
	e.Track(ev)
}

// TrackExposurePhase emits a phase_log for time spent on an exposure batch.
func (e *Emitter) TrackExposurePhase(batchID string, enteredAt time.Time) {
	if batchID == "" || enteredAt.IsZero() {
		return
	}
	seconds := wholeSeconds(e.now().Sub(enteredAt))
	if seconds <= 0 {
		return
	}
	ev := e.base()
	ev.Type = TypePhaseLog
	ev.BatchID = batchID
	ev.Phase = "exposure"
	ev.DurationSeconds = seconds
	e.Track(ev)
}

// TrackCardFlip emits a card_timing event for the time between a recall
// card becoming current and the user revealing its back.
func (e *Emitter) TrackCardFlip(cardID string, elapsed time.Duration) {
	if elapsed < 0 {
		elapsed = 0
	}
	ev := e.base()
	ev.Type = TypeCardTiming
	ev.CardID = cardID
	ev.TimeToFlipMs = elapsed.Milliseconds()
	e.Track(ev)
}

// TrackGridFlip emits a card_interaction for a grid-mode flip toggle.
func (e *Emitter) TrackGridFlip(cardID string) {
	ev := e.base()
	ev.Type = TypeCardInteraction
	ev.CardID = cardID
	ev.InteractionType = "flip"
	ev.Phase = "grid"
	ev.Action = "flip"
	e.Track(ev)
}

// RecallResultEvent builds a quiz_result for a recall-pass answer.
func (e *Emitter) RecallResultEvent(cardID, batchID string, correct bool) Event {
	ev := e.base()
	ev.Type = TypeQuizResult
	ev.CardID = cardID
	ev.BatchID = batchID
	ev.IsCorrect = boolPtr(correct)
	ev.Phase = "recall"
	return ev
}

// MasteryEvent builds a mastery_log for a card the user marked known.
func (e *Emitter) MasteryEvent(cardID string) Event {
	ev := e.base()
	ev.Type = TypeMasteryLog
	ev.CardID = cardID
	ev.MarkedKnown = boolPtr(true)
	return ev
}

// TrackQuizCheck emits the quiz_attempt and quiz_timing pair for a checked
// answer, as one ordered batch.
func (e *Emitter) TrackQuizCheck(cardID, selected string, correct bool, elapsed time.Duration) {
	if elapsed < 0 {
		elapsed = 0
	}
	attempt := e.base()
	attempt.Type = TypeQuizAttempt
	attempt.CardID = cardID
	attempt.IsCorrect = boolPtr(correct)
	attempt.SelectedAnswerID = selected

	timing := e.base()
	timing.Type = TypeQuizTiming
	timing.CardID = cardID
	timing.TimeToAnswerMs = elapsed.Milliseconds()

	e.Track(attempt, timing)
}

// TrackLoopMetrics emits one loop_metric per card drilled in a completed
// loop pass, carrying the attempt count for that card.
func (e *Emitter) TrackLoopMetrics(batchID string, attempts map[string]int) {
	if len(attempts) == 0 {
		return
	}
	events := make([]Event, 0, len(attempts))
	for cardID, count := range attempts {
		ev := e.base()
		ev.Type = TypeLoopMetric
		ev.CardID = cardID
		ev.BatchID = batchID
		ev.AttemptsCount = count
		events = append(events, ev)
	}
	e.Track(events...)
}

// TrackAbandon emits a session_abandon through the page-closing delivery
// path. Fired on page-hide/unload while a loop pass is in progress.
func (e *Emitter) TrackAbandon(batchID, phase string) {
	ev := e.base()
	ev.Type = TypeSessionAbandon
	ev.BatchID = batchID
	ev.Phase = phase
	e.TrackFinal(ev)
}

// TrackSearch schedules a debounced search event. Each call supersedes any
// pending one, so only the latest term survives the quiet period. In
// reference mode the event is a reference_view carrying the term as an
// alpha code; in every other mode it is a search_log.
func (e *Emitter) TrackSearch(mode, term string) {
	if term == "" {
		return
	}

	e.mu.Lock()
	if e.searchTimer != nil {
		e.searchTimer.Stop()
	}
	delay := e.debounceDelay
	e.mu.Unlock()

	timer := time.AfterFunc(delay, func() {
		ev := e.base()
		ev.Mode = mode
		ev.SearchTerm = term
		if mode == "reference" {
			ev.Type = TypeReferenceView
			ev.AlphaCode = term
		} else {
			ev.Type = TypeSearchLog
		}
		e.Track(ev)
	})

	e.mu.Lock()
	e.searchTimer = timer
	e.mu.Unlock()
}
