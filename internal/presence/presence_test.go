package presence

import (
	"testing"
	"time"
)

func TestOnlineSetIsIdempotent(t *testing.T) {
	tr := New(0)
	defer tr.Stop()

	tr.SetOnline(1)
	tr.SetOnline(1)
	if !tr.Online(1) {
		t.Fatal("user not online after SetOnline")
	}
	if got := len(tr.OnlineUsers()); got != 1 {
		t.Fatalf("online set has %d entries, want 1", got)
	}

	tr.SetOffline(1)
	tr.SetOffline(1)
	if tr.Online(1) {
		t.Fatal("user still online after SetOffline")
	}
}

func TestTypingSetAndClear(t *testing.T) {
	tr := New(0) // no receiver-side expiry: clearing is sender-driven
	defer tr.Stop()

	tr.SetTyping(10, "alice", true)
	tr.SetTyping(10, "bob", true)

	if got := len(tr.Typing(10)); got != 2 {
		t.Fatalf("typing set has %d entries, want 2", got)
	}

	tr.SetTyping(10, "alice", false)
	typing := tr.Typing(10)
	if len(typing) != 1 || typing[0] != "bob" {
		t.Fatalf("unexpected typing set after clear: %v", typing)
	}

	// With expiry disabled the entry must persist until an explicit false.
	time.Sleep(50 * time.Millisecond)
	if len(tr.Typing(10)) != 1 {
		t.Fatal("typing entry cleared without a false event")
	}
}

func TestTypingSelfClearsAfterTTL(t *testing.T) {
	tr := New(30 * time.Millisecond)
	defer tr.Stop()

	tr.SetTyping(10, "alice", true)
	if len(tr.Typing(10)) != 1 {
		t.Fatal("typing entry not set")
	}

	deadline := time.Now().Add(time.Second)
	for len(tr.Typing(10)) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("typing entry never expired")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTypingTrueRearmsTimer(t *testing.T) {
	tr := New(60 * time.Millisecond)
	defer tr.Stop()

	tr.SetTyping(10, "alice", true)
	time.Sleep(40 * time.Millisecond)
	tr.SetTyping(10, "alice", true) // keystroke keeps the indicator alive
	time.Sleep(40 * time.Millisecond)

	if len(tr.Typing(10)) != 1 {
		t.Fatal("typing entry expired despite re-arm")
	}
}

func TestStaleExpireLosesToRearm(t *testing.T) {
	tr := New(time.Hour)
	defer tr.Stop()

	tr.SetTyping(10, "alice", true)
	tr.mu.Lock()
	gen := tr.gens[typingKey{10, "alice"}]
	tr.mu.Unlock()

	// A keystroke re-arms the timer; the old timer's fire must then be
	// a no-op even though it captured the same key.
	tr.SetTyping(10, "alice", true)
	tr.expire(typingKey{10, "alice"}, gen)

	if len(tr.Typing(10)) != 1 {
		t.Fatal("stale timer fire cleared a re-armed typing entry")
	}
}

func TestClearRoom(t *testing.T) {
	tr := New(time.Minute)
	defer tr.Stop()

	tr.SetTyping(10, "alice", true)
	tr.SetTyping(11, "bob", true)

	tr.ClearRoom(10)

	if len(tr.Typing(10)) != 0 {
		t.Fatal("room typing state not cleared")
	}
	if len(tr.Typing(11)) != 1 {
		t.Fatal("other room's typing state cleared")
	}
}
