package telemetry

import (
	"context"
	"testing"
	"time"
)

// captureSink records delivered batches on a channel so tests can wait for
// the emitter's background delivery.
type captureSink struct {
	batches chan []Event
	finals  chan []Event
}

func newCaptureSink() *captureSink {
	return &captureSink{
		batches: make(chan []Event, 16),
		finals:  make(chan []Event, 16),
	}
}

func (s *captureSink) Send(_ context.Context, events []Event) error {
	s.batches <- events
	return nil
}

func (s *captureSink) SendFinal(events []Event) error {
	s.finals <- events
	return nil
}

func (s *captureSink) waitBatch(t *testing.T) []Event {
	t.Helper()
	select {
	case batch := <-s.batches:
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for telemetry batch")
		return nil
	}
}

func (s *captureSink) expectNone(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case batch := <-s.batches:
		t.Fatalf("unexpected telemetry batch: %+v", batch)
	case <-time.After(wait):
	}
}

func testIdentity() Identity {
	return Identity{FingerprintID: "fp_test", SessionID: "session_test"}
}

func TestTrackStampsIdentityAndContext(t *testing.T) {
	sink := newCaptureSink()
	client := ClientContext{
		UserAgent:    "test-agent",
		Language:     "en-US",
		Timezone:     "Europe/London",
		ScreenWidth:  1440,
		ScreenHeight: 900,
	}
	e := NewEmitter(sink, testIdentity(), WithClientContext(client))
	e.SetUser("user_1")
	e.SetDeck("greek_letters")

	e.TrackGridFlip("3")

	batch := sink.waitBatch(t)
	if len(batch) != 1 {
		t.Fatalf("batch size = %d, want 1", len(batch))
	}
	ev := batch[0]
	if ev.Type != TypeCardInteraction {
		t.Errorf("type = %q, want %q", ev.Type, TypeCardInteraction)
	}
	if ev.SessionID != "session_test" || ev.FingerprintID != "fp_test" {
		t.Errorf("identity = %q/%q, want session_test/fp_test", ev.SessionID, ev.FingerprintID)
	}
	if ev.UserID != "user_1" || ev.DeckName != "greek_letters" {
		t.Errorf("user/deck = %q/%q", ev.UserID, ev.DeckName)
	}
	if ev.UserAgent != "test-agent" || ev.ScreenWidth != 1440 {
		t.Errorf("client context not stamped: %+v", ev)
	}
	if ev.CardID != "3" || ev.InteractionType != "flip" {
		t.Errorf("card interaction fields = %q/%q", ev.CardID, ev.InteractionType)
	}
	if ev.Timestamp.IsZero() {
		t.Error("timestamp not stamped")
	}
}

func TestTrackDropsEventsWithoutIdentity(t *testing.T) {
	sink := newCaptureSink()
	e := NewEmitter(sink, Identity{})

	e.TrackGridFlip("1")

	sink.expectNone(t, 50*time.Millisecond)
}

func TestModeDurationGate(t *testing.T) {
	base := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
		emitted bool
	}{
		{"under a second suppressed", 900 * time.Millisecond, 0, false},
		{"whole seconds floored", 2500 * time.Millisecond, 2, true},
		{"exactly one second", time.Second, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := newCaptureSink()
			now := base.Add(tt.elapsed)
			e := NewEmitter(sink, testIdentity(), WithClock(func() time.Time { return now }))

			e.TrackModeDuration("recall", base)

			if !tt.emitted {
				sink.expectNone(t, 50*time.Millisecond)
				return
			}
			batch := sink.waitBatch(t)
			if batch[0].Type != TypeSessionLog {
				t.Errorf("type = %q, want %q", batch[0].Type, TypeSessionLog)
			}
			if batch[0].Mode != "recall" {
				t.Errorf("mode = %q, want recall", batch[0].Mode)
			}
			if batch[0].DurationSeconds != tt.want {
				t.Errorf("duration = %d, want %d", batch[0].DurationSeconds, tt.want)
			}
		})
	}
}

func TestExposurePhaseCarriesBatchID(t *testing.T) {
	sink := newCaptureSink()
	base := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	now := base.Add(3 * time.Second)
	e := NewEmitter(sink, testIdentity(), WithClock(func() time.Time { return now }))

	e.TrackExposurePhase("batch_1", base)

	batch := sink.waitBatch(t)
	ev := batch[0]
	if ev.Type != TypePhaseLog || ev.BatchID != "batch_1" || ev.Phase != "exposure" {
		t.Errorf("unexpected phase log: %+v", ev)
	}
	if ev.DurationSeconds != 3 {
		t.Errorf("duration = %d, want 3", ev.DurationSeconds)
	}
}

func TestQuizCheckEmitsOrderedPair(t *testing.T) {
	sink := newCaptureSink()
	e := NewEmitter(sink, testIdentity())

	e.TrackQuizCheck("7", "Gamma", true, 1250*time.Millisecond)

	batch := sink.waitBatch(t)
	if len(batch) != 2 {
		t.Fatalf("batch size = %d, want 2", len(batch))
	}
	attempt, timing := batch[0], batch[1]
	if attempt.Type != TypeQuizAttempt {
		t.Errorf("first event type = %q, want %q", attempt.Type, TypeQuizAttempt)
	}
	if attempt.SelectedAnswerID != "Gamma" || attempt.IsCorrect == nil || !*attempt.IsCorrect {
		t.Errorf("unexpected attempt: %+v", attempt)
	}
	if timing.Type != TypeQuizTiming {
		t.Errorf("second event type = %q, want %q", timing.Type, TypeQuizTiming)
	}
	if timing.TimeToAnswerMs != 1250 {
		t.Errorf("time to answer = %d, want 1250", timing.TimeToAnswerMs)
	}
}

func TestLoopMetricsOnePerCard(t *testing.T) {
	sink := newCaptureSink()
	e := NewEmitter(sink, testIdentity())

	e.TrackLoopMetrics("batch_2", map[string]int{"1": 1, "4": 3})

	batch := sink.waitBatch(t)
	if len(batch) != 2 {
		t.Fatalf("batch size = %d, want 2", len(batch))
	}
	counts := map[string]int{}
	for _, ev := range batch {
		if ev.Type != TypeLoopMetric || ev.BatchID != "batch_2" {
			t.Errorf("unexpected loop metric: %+v", ev)
		}
		counts[ev.CardID] = ev.AttemptsCount
	}
	if counts["1"] != 1 || counts["4"] != 3 {
		t.Errorf("attempt counts = %v", counts)
	}
}

func TestSearchDebounceLatestTermWins(t *testing.T) {
	sink := newCaptureSink()
	e := NewEmitter(sink, testIdentity(), WithSearchDebounce(30*time.Millisecond))

	e.TrackSearch("recall", "al")
	e.TrackSearch("recall", "alp")
	e.TrackSearch("recall", "alpha")

	batch := sink.waitBatch(t)
	if len(batch) != 1 {
		t.Fatalf("batch size = %d, want 1", len(batch))
	}
	ev := batch[0]
	if ev.Type != TypeSearchLog {
		t.Errorf("type = %q, want %q", ev.Type, TypeSearchLog)
	}
	if ev.SearchTerm != "alpha" {
		t.Errorf("search term = %q, want %q", ev.SearchTerm, "alpha")
	}
	sink.expectNone(t, 60*time.Millisecond)
}

func TestSearchInReferenceModeIsReferenceView(t *testing.T) {
	sink := newCaptureSink()
	e := NewEmitter(sink, testIdentity(), WithSearchDebounce(10*time.Millisecond))

	e.TrackSearch("reference", "omega")

	batch := sink.waitBatch(t)
	ev := batch[0]
	if ev.Type != TypeReferenceView {
		t.Errorf("type = %q, want %q", ev.Type, TypeReferenceView)
	}
	if ev.AlphaCode != "omega" || ev.SearchTerm != "omega" {
		t.Errorf("alpha code = %q, search term = %q", ev.AlphaCode, ev.SearchTerm)
	}
}

func TestCloseCancelsPendingSearch(t *testing.T) {
	sink := newCaptureSink()
	e := NewEmitter(sink, testIdentity(), WithSearchDebounce(20*time.Millisecond))

	e.TrackSearch("recall", "beta")
	e.Close()

	sink.expectNone(t, 60*time.Millisecond)
}

func TestAbandonUsesFinalPath(t *testing.T) {
	sink := newCaptureSink()
	e := NewEmitter(sink, testIdentity())

	e.TrackAbandon("batch_3", "loop")

	select {
	case batch := <-sink.finals:
		ev := batch[0]
		if ev.Type != TypeSessionAbandon || ev.BatchID != "batch_3" || ev.Phase != "loop" {
			t.Errorf("unexpected abandon event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for final batch")
	}
	sink.expectNone(t, 30*time.Millisecond)
}
