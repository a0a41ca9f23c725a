package rate

import "time"

// Effective returns the count to compare against a ceiling before recording
// a new event. A zero last or an elapsed window yields a fresh count of 0.
func Effective(count int, last time.Time, window time.Duration, now time.Time) int {
	if last.IsZero() || now.Sub(last) > window {
		return 0
	}
	if count < 0 {
		return 0
	}
	return count
}

// Window is a ceiling over a rolling span with an optional cooldown between
// consecutive events.
type Window struct {
	Ceiling  int
	Span     time.Duration
	Cooldown time.Duration
}

// Check evaluates the window for a stored (count, last) pair. On success it
// returns the effective count the caller records from; on rejection it
// returns ErrCooldown or ErrCeiling. Cooldown is checked first.
func (w Window) Check(count int, last time.Time, now time.Time) (int, error) {
	if w.Cooldown > 0 && !last.IsZero() && now.Sub(last) < w.Cooldown {
		return 0, ErrCooldown
	}

	effective := Effective(count, last, w.Span, now)
	if effective >= w.Ceiling {
		return effective, ErrCeiling
	}
	return effective, nil
}

// Exhausted reports whether the effective count has reached the ceiling.
func (w Window) Exhausted(count int, last time.Time, now time.Time) bool {
	return Effective(count, last, w.Span, now) >= w.Ceiling
}

// Record returns the (count, last) pair to persist after an event.
func Record(effective int, now time.Time) (int, time.Time) {
	return effective + 1, now
}
