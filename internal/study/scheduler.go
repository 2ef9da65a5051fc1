package study

import "time"

// AdvanceDelay is how long a judged card stays on screen, mid swipe
// animation, before the queue moves on.
const AdvanceDelay = 300 * time.Millisecond

// Scheduler defers a callback by a delay. Schedule returns a cancel
// function; cancelling after the callback ran is a no-op. The session uses
// it for the post-judgement advance so a new pass can drop a stale advance.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) (cancel func())
}

// TimerScheduler runs callbacks on real timers.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// ImmediateScheduler runs callbacks synchronously, used in tests.
type ImmediateScheduler struct{}

func (ImmediateScheduler) Schedule(_ time.Duration, fn func()) func() {
	fn()
	return func() {}
}
