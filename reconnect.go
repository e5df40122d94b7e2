package halcyon

import "time"

// reconnectController implements SPEC_FULL.md §4.10: disconnect reasons,
// attempt counter, delay window, and a "stay dead" flag that suppresses
// further attempts.
type reconnectController struct {
	maxAttempts int // negative => infinite
	attempts    int
	delay       time.Duration

	nextAttempt time.Time
	stayDead    bool
	dead        bool
}

func newReconnectController(maxAttempts int, delay time.Duration) *reconnectController {
	return &reconnectController{maxAttempts: maxAttempts, delay: delay}
}

// onDisconnect records a disconnection and decides whether the client
// should transition to Dead immediately (stay-dead) or be scheduled for a
// future reconnect attempt.
func (r *reconnectController) onDisconnect(stayDead bool) {
	if stayDead {
		r.stayDead = true
		r.dead = true
		return
	}
	r.nextAttempt = time.Now().Add(r.delay)
}

// readyToAttempt reports whether enough time has passed to try connecting
// again, and whether the budget allows it at all.
func (r *reconnectController) readyToAttempt(now time.Time) bool {
	if r.dead {
		return false
	}
	return !now.Before(r.nextAttempt)
}

// recordAttempt increments the attempt counter and reports whether the
// attempt budget has now been exhausted (client should go Dead).
func (r *reconnectController) recordAttempt() (exhausted bool) {
	r.attempts++
	if r.maxAttempts >= 0 && r.attempts > r.maxAttempts {
		r.dead = true
		return true
	}
	return false
}

// onHandshakeSuccess resets the attempt counter after a successful
// registration.
func (r *reconnectController) onHandshakeSuccess() {
	r.attempts = 0
}

func (r *reconnectController) isDead() bool {
	return r.dead
}
