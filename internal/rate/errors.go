package rate

import "errors"

var (
	// ErrCeiling indicates the window's event ceiling has been reached.
	ErrCeiling = errors.New("rate window ceiling reached")
	// ErrCooldown indicates the previous event is still inside the cooldown.
	ErrCooldown = errors.New("rate window cooldown active")
	// ErrRateLimited indicates a per-client fixed-window limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable indicates the limiter backend could not be reached.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
