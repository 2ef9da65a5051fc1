package study

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"recalltrainer/internal/deck"
	"recalltrainer/internal/telemetry"
)

// BatchSize is how many cards an exposure batch holds.
const BatchSize = 8

// Session drives one learner's pass through a deck: the home screen, the
// six modes, batch paging, search filtering and the recall/loop miss
// tracking. All mutating methods derive and emit the matching telemetry.
// Safe for concurrent use.
type Session struct {
	mu sync.Mutex

	library   *deck.Library
	emitter   *telemetry.Emitter
	scheduler Scheduler
	rng       *rand.Rand
	now       func() time.Time

	deckName    string
	deckCards   []deck.Card
	searchQuery string
	ordered     []deck.Card
	batchIndex  int

	mode          Mode
	prevMode      Mode
	modeEnteredAt time.Time

	exposureBatchID   string
	exposureEnteredAt time.Time

	queue       []QueueEntry
	queueIndex  int
	flipped     bool
	missed      []int
	loopMisses  []int
	cardShownAt time.Time

	recallLogged    map[int]bool
	loopAttempts    map[string]int
	loopMetricsSent bool

	gridFlips map[int]bool

	quizIndex       int
	quizOptions     []string
	quizSelected    string
	quizChecked     bool
	questionStartAt time.Time

	cancelAdvance func()
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithScheduler overrides the advance-delay scheduler.
func WithScheduler(s Scheduler) SessionOption {
	return func(sess *Session) { sess.scheduler = s }
}

// WithRand overrides the shuffle source.
func WithRand(rng *rand.Rand) SessionOption {
	return func(sess *Session) { sess.rng = rng }
}

// WithSessionClock overrides the session's time source.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(sess *Session) { sess.now = now }
}

// NewSession creates a session on the home screen.
func NewSession(library *deck.Library, emitter *telemetry.Emitter, opts ...SessionOption) *Session {
	s := &Session{
		library:      library,
		emitter:      emitter,
		scheduler:    TimerScheduler{},
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		now:          time.Now,
		mode:         ModeExposure,
		recallLogged: map[int]bool{},
		loopAttempts: map[string]int{},
		gridFlips:    map[int]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- deck lifecycle -------------------------------------------------------

// StartDeck leaves the home screen and opens the named deck at its first
// exposure batch.
func (s *Session) StartDeck(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.library.Raw(name) == nil {
		return fmt.Errorf("unknown deck %q", name)
	}
	cards := s.library.Deck(name)

	s.deckName = name
	s.emitter.SetDeck(name)
	s.searchQuery = ""
	s.deckCards = cards
	s.ordered = cards
	s.batchIndex = 0
	s.setMode(ModeExposure)
	s.resetInteractiveState()
	s.syncExposurePhase()
	return nil
}

// GoHome returns to the deck chooser, closing out mode and exposure timing.
func (s *Session) GoHome() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prevMode != "" {
		s.emitter.TrackModeDuration(s.prevMode.String(), s.modeEnteredAt)
		s.prevMode = ""
		s.modeEnteredAt = time.Time{}
	}

	s.deckName = ""
	s.emitter.SetDeck("")
	s.searchQuery = ""
	s.deckCards = nil
	s.ordered = nil
	s.batchIndex = 0
	s.mode = ModeExposure
	s.resetInteractiveState()
	s.syncExposurePhase()
}

// Home reports whether the session is on the deck chooser.
func (s *Session) Home() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deckName == ""
}

// DeckName returns the active deck name, or "" on the home screen.
func (s *Session) DeckName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deckName
}

// --- search and ordering --------------------------------------------------

// SetSearch filters the deck by a case-insensitive substring match over
// every card field. Any change resets batch paging and interactive state;
// a non-empty query also schedules a debounced search event.
func (s *Session) SetSearch(query string) {
	s.mu.Lock()

	s.searchQuery = query
	s.applyOrder(filterCards(s.deckCards, query))

	home := s.deckName == ""
	mode := s.mode
	s.mu.Unlock()

	if !home && strings.TrimSpace(query) != "" {
		s.emitter.TrackSearch(mode.String(), strings.TrimSpace(query))
	}
}

// SearchQuery returns the current filter text.
func (s *Session) SearchQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchQuery
}

// Shuffle reorders the filtered deck randomly and resets paging.
func (s *Session) Shuffle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards := filterCards(s.deckCards, s.searchQuery)
	shuffled := make([]deck.Card, len(cards))
	copy(shuffled, cards)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.applyOrder(shuffled)
}

func filterCards(cards []deck.Card, query string) []deck.Card {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return cards
	}
	matched := make([]deck.Card, 0, len(cards))
	for _, card := range cards {
		if containsQuery(strconv.Itoa(card.CardNumber), q) ||
			containsQuery(card.Question, q) ||
			containsQuery(card.Answer, q) ||
			containsQuery(card.Distractor1, q) ||
			containsQuery(card.Distractor2, q) ||
			containsQuery(card.Distractor3, q) {
			matched = append(matched, card)
		}
	}
	return matched
}

func containsQuery(value, query string) bool {
	return strings.Contains(strings.ToLower(value), query)
}

// applyOrder installs a new card ordering and resets everything derived
// from it, mirroring what a search or shuffle does. Caller holds the lock.
func (s *Session) applyOrder(cards []deck.Card) {
	s.ordered = cards
	s.batchIndex = 0
	s.resetInteractiveState()
	if len(s.ordered) > 0 {
		s.quizOptions = BuildQuizOptions(s.ordered[0], s.rng)
	}
	s.syncExposurePhase()
}

// resetInteractiveState clears every per-pass structure. Caller holds the
// lock.
func (s *Session) resetInteractiveState() {
	s.dropPendingAdvance()
	s.queue = nil
	s.queueIndex = 0
	s.flipped = false
	s.missed = nil
	s.loopMisses = nil
	s.gridFlips = map[int]bool{}
	s.quizIndex = 0
	s.quizOptions = nil
	s.quizSelected = ""
	s.quizChecked = false
}

// --- batches ----------------------------------------------------------------

// BatchCount returns how many exposure batches the current ordering yields.
func (s *Session) BatchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (len(s.ordered) + BatchSize - 1) / BatchSize
}

// BatchIndex returns the zero-based current batch.
func (s *Session) BatchIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchIndex
}

// CurrentBatch returns the cards of the current batch.
func (s *Session) CurrentBatch() []deck.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentBatch()
}

func (s *Session) currentBatch() []deck.Card {
	start := s.batchIndex * BatchSize
	if start >= len(s.ordered) {
		return nil
	}
	end := start + BatchSize
	if end > len(s.ordered) {
		end = len(s.ordered)
	}
	return s.ordered[start:end]
}

// LoadBatch pages to another batch. A recall or loop pass in progress falls
// back to exposure; all per-pass state clears.
func (s *Session) LoadBatch(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last := (len(s.ordered)+BatchSize-1)/BatchSize - 1
	if last < 0 {
		last = 0
	}
	if index < 0 {
		index = 0
	}
	if index > last {
		index = last
	}
	s.batchIndex = index
	if s.mode == ModeRecall || s.mode == ModeLoop {
		s.setMode(ModeExposure)
	}
	s.resetInteractiveState()
	s.syncExposurePhase()
}

// batchID labels the current batch for telemetry, one-based.
func (s *Session) batchID() string {
	name := s.deckName
	if name == "" {
		name = "deck"
	}
	return fmt.Sprintf("%s_batch_%d", name, s.batchIndex+1)
}

// BatchID returns the telemetry label of the current batch.
func (s *Session) BatchID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchID()
}

// --- mode transitions -------------------------------------------------------

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SelectMode handles a mode-navigation action. Unknown modes are ignored.
// Recall and loop route through their pass starters the way the navigation
// buttons do: selecting recall with no queue (or from another mode) starts a
// fresh pass; selecting loop with recorded misses starts a drill over them.
func (s *Session) SelectMode(next Mode) {
	if !ValidMode(next) {
		return
	}

	switch next {
	case ModeRecall:
		s.mu.Lock()
		restart := len(s.queue) == 0 || s.mode != ModeRecall
		s.mu.Unlock()
		if restart {
			s.StartRecall()
			return
		}
		s.switchMode(next)
	case ModeLoop:
		s.mu.Lock()
		drill := len(s.missed) > 0
		s.mu.Unlock()
		if drill {
			s.StartLoop()
			return
		}
		s.switchMode(next)
	case ModeQuiz:
		s.switchMode(next)
		s.GoToQuiz(0)
	default:
		s.switchMode(next)
	}
}

// switchMode applies the plain mode change rules shared by every
// navigation path.
func (s *Session) switchMode(next Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setMode(next)
	if next != ModeLoop {
		s.loopMisses = nil
	}
	if next == ModeQuiz {
		s.quizIndex = 0
		s.quizSelected = ""
		s.quizChecked = false
	}
	if next != ModeRecall && next != ModeLoop {
		s.flipped = false
	}
	s.syncExposurePhase()
}

// setMode records the mode and emits the duration spent in the previous
// one. Caller holds the lock.
func (s *Session) setMode(next Mode) {
	s.mode = next
	if s.prevMode == "" {
		s.prevMode = next
		s.modeEnteredAt = s.now()
		return
	}
	if s.prevMode != next {
		s.emitter.TrackModeDuration(s.prevMode.String(), s.modeEnteredAt)
		s.prevMode = next
		s.modeEnteredAt = s.now()
	}
}

// syncExposurePhase opens, rolls over, or closes the exposure-batch timer
// to match the current mode and batch. Caller holds the lock.
func (s *Session) syncExposurePhase() {
	if s.deckName == "" || s.mode != ModeExposure {
		if !s.exposureEnteredAt.IsZero() && s.exposureBatchID != "" {
			s.emitter.TrackExposurePhase(s.exposureBatchID, s.exposureEnteredAt)
		}
		s.exposureEnteredAt = time.Time{}
		s.exposureBatchID = ""
		return
	}

	next := s.batchID()
	if s.exposureEnteredAt.IsZero() {
		s.exposureEnteredAt = s.now()
		s.exposureBatchID = next
		return
	}
	if s.exposureBatchID != next {
		s.emitter.TrackExposurePhase(s.exposureBatchID, s.exposureEnteredAt)
		s.exposureEnteredAt = s.now()
		s.exposureBatchID = next
	}
}

// --- recall and loop passes ---------------------------------------------

// StartRecall begins a fresh bidirectional pass over the current batch.
func (s *Session) StartRecall() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setMode(ModeRecall)
	s.dropPendingAdvance()
	s.recallLogged = map[int]bool{}
	s.queue = BuildQueue(s.currentBatch(), s.rng)
	s.queueIndex = 0
	s.flipped = false
	s.missed = nil
	s.loopMisses = nil
	s.syncExposurePhase()
	s.onStudyCardShown()
}

// StartLoop begins a drill pass over the cards missed during recall.
func (s *Session) StartLoop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.startLoopOver(uniqueInts(s.missed))
}

// RetryLoop begins another drill pass over the cards missed during the
// loop pass just finished.
func (s *Session) RetryLoop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	retry := uniqueInts(s.loopMisses)
	s.missed = retry
	s.startLoopOver(retry)
}

// startLoopOver begins a loop pass over the batch cards whose numbers
// appear in the miss list. Caller holds the lock.
func (s *Session) startLoopOver(missNumbers []int) {
	missSet := map[int]bool{}
	for _, n := range missNumbers {
		missSet[n] = true
	}
	loopCards := make([]deck.Card, 0, len(missNumbers))
	for _, card := range s.currentBatch() {
		if missSet[card.CardNumber] {
			loopCards = append(loopCards, card)
		}
	}

	s.setMode(ModeLoop)
	s.dropPendingAdvance()
	s.loopAttempts = map[string]int{}
	s.loopMetricsSent = false
	s.queue = BuildQueue(loopCards, s.rng)
	s.queueIndex = 0
	s.flipped = false
	s.loopMisses = nil
	s.syncExposurePhase()
	s.onStudyCardShown()
}

// onStudyCardShown stamps the presentation time of the now-current entry
// and, in loop mode, counts the attempt. Caller holds the lock.
func (s *Session) onStudyCardShown() {
	if s.mode != ModeRecall && s.mode != ModeLoop {
		return
	}
	if s.queueIndex >= len(s.queue) {
		return
	}
	s.cardShownAt = s.now()
	if s.mode == ModeLoop {
		key := strconv.Itoa(s.queue[s.queueIndex].CardNumber)
		s.loopAttempts[key]++
	}
}

// CurrentCard returns the queue entry under judgement, if any.
func (s *Session) CurrentCard() (QueueEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queueIndex >= len(s.queue) {
		return QueueEntry{}, false
	}
	return s.queue[s.queueIndex], true
}

// QueueLength returns the size of the active recall or loop queue.
func (s *Session) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// PassDone reports whether the recall or loop queue is exhausted.
func (s *Session) PassDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queueIndex >= len(s.queue)
}

// Flipped reports whether the current card's back is showing.
func (s *Session) Flipped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flipped
}

// Flip reveals the back of the current card. In recall mode the hesitation
// time is recorded. Flipping is one-way until the card is judged, and
// exposure cards never flip.
func (s *Session) Flip() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queueIndex >= len(s.queue) || s.flipped || s.mode == ModeExposure {
		return
	}
	if s.mode == ModeRecall {
		entry := s.queue[s.queueIndex]
		s.emitter.TrackCardFlip(strconv.Itoa(entry.CardNumber), s.now().Sub(s.cardShownAt))
	}
	s.flipped = true
}

// SubmitResult judges the flipped card. Misses are recorded against the
// pass; recall answers log one result per card per pass; hits log mastery.
// The queue advances after a short delay so repeated judgements of the same
// card are impossible.
func (s *Session) SubmitResult(success bool) {
	s.mu.Lock()

	if !s.flipped || s.queueIndex >= len(s.queue) {
		s.mu.Unlock()
		return
	}
	entry := s.queue[s.queueIndex]

	if !success {
		switch s.mode {
		case ModeRecall:
			s.missed = append(s.missed, entry.CardNumber)
		case ModeLoop:
			s.loopMisses = append(s.loopMisses, entry.CardNumber)
		}
	}

	var events []telemetry.Event
	if s.mode == ModeRecall && !s.recallLogged[entry.CardNumber] {
		s.recallLogged[entry.CardNumber] = true
		events = append(events, s.emitter.RecallResultEvent(
			strconv.Itoa(entry.CardNumber), s.batchID(), success))
	}
	if success {
		events = append(events, s.emitter.MasteryEvent(strconv.Itoa(entry.CardNumber)))
	}
	if len(events) > 0 {
		s.emitter.Track(events...)
	}

	s.flipped = false
	s.dropPendingAdvance()
	s.mu.Unlock()

	cancel := s.scheduler.Schedule(AdvanceDelay, s.advance)
	s.mu.Lock()
	s.cancelAdvance = cancel
	s.mu.Unlock()
}

// advance moves the queue to the next entry and, when a loop pass just
// finished, emits its per-card attempt metrics.
func (s *Session) advance() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queueIndex++
	s.flipped = false
	s.onStudyCardShown()

	if s.mode == ModeLoop && len(s.queue) > 0 && s.queueIndex >= len(s.queue) && !s.loopMetricsSent {
		s.emitter.TrackLoopMetrics(s.batchID(), s.loopAttempts)
		s.loopMetricsSent = true
	}
}

// dropPendingAdvance cancels a scheduled advance, if any. Caller holds the
// lock.
func (s *Session) dropPendingAdvance() {
	if s.cancelAdvance != nil {
		s.cancelAdvance()
		s.cancelAdvance = nil
	}
}

// MissedCards returns the distinct card numbers missed during recall, in
// first-miss order.
func (s *Session) MissedCards() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uniqueInts(s.missed)
}

// LoopMissedCards returns the distinct card numbers missed during the
// current loop pass.
func (s *Session) LoopMissedCards() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uniqueInts(s.loopMisses)
}

// HasLoopSource reports whether loop mode has anything to show: recorded
// misses, an active queue, or misses from the pass just finished.
func (s *Session) HasLoopSource() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.missed) > 0 || len(s.queue) > 0 || len(s.loopMisses) > 0
}

func uniqueInts(values []int) []int {
	seen := map[int]bool{}
	out := make([]int, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// --- grid -------------------------------------------------------------------

// ToggleGridCard flips one card in the grid and records the interaction.
func (s *Session) ToggleGridCard(cardNumber int) {
	s.mu.Lock()
	s.gridFlips[cardNumber] = !s.gridFlips[cardNumber]
	s.mu.Unlock()

	s.emitter.TrackGridFlip(strconv.Itoa(cardNumber))
}

// GridFlipped reports whether a grid card currently shows its back.
func (s *Session) GridFlipped(cardNumber int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gridFlips[cardNumber]
}

// --- quiz ---------------------------------------------------------------

// GoToQuiz moves to a question, clamped to the card range, resetting the
// selection and starting the answer timer.
func (s *Session) GoToQuiz(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ordered) == 0 {
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(s.ordered)-1 {
		index = len(s.ordered) - 1
	}
	s.quizIndex = index
	s.quizSelected = ""
	s.quizChecked = false
	s.questionStartAt = s.now()
	s.quizOptions = BuildQuizOptions(s.ordered[index], s.rng)
}

// QuizIndex returns the current question index.
func (s *Session) QuizIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quizIndex
}

// QuizOptions returns the shuffled options of the current question.
func (s *Session) QuizOptions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quizOptions
}

// QuizChecked reports whether the current question has been graded.
func (s *Session) QuizChecked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quizChecked
}

// SelectQuizOption picks an answer. Graded questions are frozen.
func (s *Session) SelectQuizOption(option string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quizChecked {
		return
	}
	for _, candidate := range s.quizOptions {
		if candidate == option {
			s.quizSelected = option
			return
		}
	}
}

// CheckQuizAnswer grades the selected option and records the attempt and
// its answer time as one batch. Without a selection it does nothing.
func (s *Session) CheckQuizAnswer() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quizSelected == "" || s.quizChecked || s.quizIndex >= len(s.ordered) {
		return
	}
	card := s.ordered[s.quizIndex]
	correct := s.quizSelected == card.Answer
	s.emitter.TrackQuizCheck(
		strconv.Itoa(card.CardNumber), s.quizSelected, correct, s.now().Sub(s.questionStartAt))
	s.quizChecked = true
}

// --- progress and teardown ------------------------------------------------

// Progress returns mode completion as a percentage. Recall and loop report
// queue position, quiz reports question position, everything else is zero.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.mode {
	case ModeRecall, ModeLoop:
		if len(s.queue) == 0 {
			return 0
		}
		if s.queueIndex >= len(s.queue) {
			return 100
		}
		return float64(s.queueIndex) / float64(len(s.queue)) * 100
	case ModeQuiz:
		if len(s.ordered) == 0 {
			return 0
		}
		return float64(s.quizIndex+1) / float64(len(s.ordered)) * 100
	}
	return 0
}

// Abandon reports a page-hide or unload. Only a loop pass in progress is
// worth recording; the event goes out on the synchronous final path.
func (s *Session) Abandon() {
	s.mu.Lock()
	home := s.deckName == ""
	mode := s.mode
	batchID := s.batchID()
	s.mu.Unlock()

	if home || mode != ModeLoop {
		return
	}
	s.emitter.TrackAbandon(batchID, "loop")
}

// Cards returns the filtered, ordered card list backing reference, grid
// and quiz modes.
func (s *Session) Cards() []deck.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ordered
}
