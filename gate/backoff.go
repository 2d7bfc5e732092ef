package gate

import "time"

// BackoffPolicy produces the wait before retry attempt n (1-based) as an
// exponential series Base, 2*Base, 4*Base, ... capped at Cap.
type BackoffPolicy struct {
	Base time.Duration
	Cap  time.Duration
}

// DefaultBackoff is a sensible policy for rate-limited generation services.
var DefaultBackoff = BackoffPolicy{Base: 2 * time.Second, Cap: 30 * time.Second}

// Delay returns the wait after the given failed attempt (1-based).
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if p.Base <= 0 {
		return 0
	}
	d := p.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.Cap > 0 && d >= p.Cap {
			return p.Cap
		}
	}
	if p.Cap > 0 && d > p.Cap {
		return p.Cap
	}
	return d
}
