package entity

import "testing"

func TestBattleJoinUpToEightParticipants(t *testing.T) {
	b := NewBattle(1)
	for i := uint32(1); i <= MaxBattleParticipants; i++ {
		if _, err := b.Join(i); err != nil {
			t.Fatalf("unexpected error joining participant %d: %v", i, err)
		}
	}
	if _, err := b.Join(99); err != ErrBattleFull {
		t.Errorf("expected ErrBattleFull on 9th joiner, got %v", err)
	}
	if b.ParticipantCount() != MaxBattleParticipants {
		t.Errorf("expected %d participants, got %d", MaxBattleParticipants, b.ParticipantCount())
	}
}

func TestBattleTurnLogNeverExceedsParticipants(t *testing.T) {
	b := NewBattle(1)
	slot, _ := b.Join(5)
	if err := b.RecordTurn(slot); err != nil {
		t.Fatalf("unexpected error recording turn: %v", err)
	}
	if err := b.RecordTurn(slot + 1); err != ErrUnknownSlot {
		t.Errorf("expected ErrUnknownSlot for an unjoined slot, got %v", err)
	}
	if b.TurnCount() > b.ParticipantCount() {
		t.Errorf("turn count %d exceeds participant count %d", b.TurnCount(), b.ParticipantCount())
	}
}

func TestBattleResetRoundClearsTurnsNotRoster(t *testing.T) {
	b := NewBattle(1)
	slot, _ := b.Join(5)
	b.RecordTurn(slot)
	b.ResetRound()
	if b.TurnCount() != 0 {
		t.Errorf("expected turn log cleared, got count %d", b.TurnCount())
	}
	if b.ParticipantCount() != 1 {
		t.Errorf("expected roster untouched by round reset, got count %d", b.ParticipantCount())
	}
}
