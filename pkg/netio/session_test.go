package netio

import (
	"testing"
	"time"
)

type recordingSender struct {
	sent [][]byte
}

func (r *recordingSender) Send(frame []byte) error {
	r.sent = append(r.sent, frame)
	return nil
}

func TestAdmitRejectsDuplicateHero(t *testing.T) {
	reg := NewRegistry(100, 10)
	if _, err := reg.Admit(1, TransportWS, &recordingSender{}); err != nil {
		t.Fatalf("unexpected error on first admit: %v", err)
	}
	if _, err := reg.Admit(1, TransportWS, &recordingSender{}); err != ErrAlreadyLoggedIn {
		t.Errorf("expected ErrAlreadyLoggedIn, got %v", err)
	}
}

func TestRemoveThenReAdmitSucceeds(t *testing.T) {
	reg := NewRegistry(100, 10)
	reg.Admit(1, TransportWS, &recordingSender{})
	reg.Remove(1)
	if _, err := reg.Admit(1, TransportWS, &recordingSender{}); err != nil {
		t.Errorf("expected re-admit to succeed after remove, got %v", err)
	}
}

func TestSweepIdleEvictsStaleSessions(t *testing.T) {
	reg := NewRegistry(100, 10)
	s, _ := reg.Admit(1, TransportWS, &recordingSender{})
	s.lastSeen = time.Now().Add(-time.Hour).UnixNano()

	evicted := reg.SweepIdle(time.Minute)
	if len(evicted) != 1 || evicted[0] != 1 {
		t.Fatalf("expected hero 1 evicted, got %v", evicted)
	}
	if reg.Count() != 0 {
		t.Errorf("expected registry empty after sweep, got %d", reg.Count())
	}
}

func TestReplayRingReturnsRecentFrame(t *testing.T) {
	sender := &recordingSender{}
	s := NewSession(sender, TransportWS)
	s.Send(5, []byte("frame-5"))
	s.Send(6, []byte("frame-6"))

	if got := s.Replay(5); string(got) != "frame-5" {
		t.Errorf("expected frame-5, got %q", got)
	}
	if got := s.Replay(999); got != nil {
		t.Errorf("expected nil for unknown packet id, got %q", got)
	}
}

func TestReplayRingEvictsBeyondWindow(t *testing.T) {
	sender := &recordingSender{}
	s := NewSession(sender, TransportWS)
	for i := uint32(0); i < ReplayWindow+2; i++ {
		s.Send(i, []byte("x"))
	}
	if got := s.Replay(0); got != nil {
		t.Errorf("expected packet 0 to have scrolled out of the replay window, got %q", got)
	}
	if got := s.Replay(ReplayWindow + 1); got == nil {
		t.Errorf("expected the most recent packet to still be replayable")
	}
}

func TestAllowEnforcesPerIPRateLimit(t *testing.T) {
	reg := NewRegistry(1, 1)
	if !reg.Allow("1.2.3.4") {
		t.Fatal("expected first request to be allowed")
	}
	if reg.Allow("1.2.3.4") {
		t.Error("expected second immediate request to be rate limited")
	}
	if !reg.Allow("5.6.7.8") {
		t.Error("expected a different IP to have its own limiter")
	}
}
