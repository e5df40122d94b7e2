package halcyon

import (
	"testing"
	"time"
)

func TestReconnectControllerSchedulesDelay(t *testing.T) {
	r := newReconnectController(-1, 30*time.Second)
	r.onDisconnect(false)

	if r.readyToAttempt(time.Now()) {
		t.Fatal("should not be ready immediately after disconnect")
	}
	if !r.readyToAttempt(time.Now().Add(31 * time.Second)) {
		t.Fatal("should be ready once the delay has elapsed")
	}
}

func TestReconnectControllerStayDeadSuppressesFutureAttempts(t *testing.T) {
	r := newReconnectController(-1, time.Millisecond)
	r.onDisconnect(true)

	if r.readyToAttempt(time.Now().Add(time.Hour)) {
		t.Fatal("stay-dead should suppress all future attempts")
	}
	if !r.isDead() {
		t.Fatal("stay-dead should mark the controller dead")
	}
}

func TestReconnectControllerExhaustsBudget(t *testing.T) {
	r := newReconnectController(2, time.Millisecond)

	if r.recordAttempt() {
		t.Fatal("attempt 1 of 2 should not exhaust the budget")
	}
	if r.recordAttempt() {
		t.Fatal("attempt 2 of 2 should not exhaust the budget")
	}
	if !r.recordAttempt() {
		t.Fatal("attempt 3 should exceed the budget of 2")
	}
	if !r.isDead() {
		t.Fatal("controller should be dead once exhausted")
	}
}

func TestReconnectControllerInfiniteBudgetNeverExhausts(t *testing.T) {
	r := newReconnectController(-1, time.Millisecond)
	for i := 0; i < 1000; i++ {
		if r.recordAttempt() {
			t.Fatalf("negative max attempts should never exhaust, failed at attempt %d", i)
		}
	}
}

func TestReconnectControllerSuccessResetsAttempts(t *testing.T) {
	r := newReconnectController(1, time.Millisecond)
	r.recordAttempt()
	r.onHandshakeSuccess()

	if r.attempts != 0 {
		t.Fatalf("attempts = %d, want 0 after a successful handshake", r.attempts)
	}
}
