package entity

import (
	"testing"

	"heroworld/pkg/tetra"
)

func TestHeroEncodeDecodeRoundTrip(t *testing.T) {
	h := NewHero(42, "Aria", 2, tetra.ID{Area: 1, Sub: 99, LOD: 7})
	h.Allocate(StatStrength, 3)
	h.EquipCard(7)
	h.Buffs.Apply(Buff{ID: 5, Stat: StatDefense, Amount: 2, Hits: 3, ExpirationTime: 1000})

	buf := make([]byte, HeroPayloadSize)
	h.Encode(buf)
	got := DecodeHero(buf)

	if got.ID != h.ID || !got.Tile.Equal(h.Tile) || got.Level != h.Level {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
	if got.Strength != h.Strength || got.Cards[0] != 7 {
		t.Errorf("stat/card round trip mismatch: got %+v", got)
	}
	if got.Version != h.Version {
		t.Errorf("version mismatch: got %d want %d", got.Version, h.Version)
	}
}

func TestHeroHealthNeverExceedsConstitution(t *testing.T) {
	h := NewHero(1, "Bo", 0, tetra.ID{})
	h.Heal(65535)
	if h.Health != h.MaxHealth() {
		t.Errorf("health %d exceeds cap %d", h.Health, h.MaxHealth())
	}
}

func TestHeroApplyDamageClampsAndFlagsDead(t *testing.T) {
	h := NewHero(1, "Cy", 0, tetra.ID{})
	h.ApplyDamage(h.Health + 100)
	if h.Health != 0 {
		t.Errorf("expected health 0, got %d", h.Health)
	}
	if h.Flags&FlagDead == 0 {
		t.Errorf("expected FlagDead to be set")
	}
}

func TestHeroAllocateRejectsOverBudget(t *testing.T) {
	h := NewHero(1, "Dee", 0, tetra.ID{}) // level 1, budget 5
	if err := h.Allocate(StatStrength, 6); err != ErrStatBudgetExceeded {
		t.Errorf("expected ErrStatBudgetExceeded, got %v", err)
	}
	if err := h.Allocate(StatStrength, 5); err != nil {
		t.Errorf("expected allocation within budget to succeed, got %v", err)
	}
}

func TestHeroEquipCardCapsAtTen(t *testing.T) {
	h := NewHero(1, "Eve", 0, tetra.ID{})
	for i := uint8(1); i <= MaxEquippedCards; i++ {
		if err := h.EquipCard(i); err != nil {
			t.Fatalf("unexpected error equipping card %d: %v", i, err)
		}
	}
	if err := h.EquipCard(99); err != ErrEquipCapExceeded {
		t.Errorf("expected ErrEquipCapExceeded on 11th card, got %v", err)
	}
}

func TestHeroRespawnClearsDeadFlag(t *testing.T) {
	h := NewHero(1, "Fin", 0, tetra.ID{})
	h.ApplyDamage(h.Health)
	h.Respawn(tetra.ID{Area: 3})
	if h.Flags&FlagDead != 0 {
		t.Errorf("expected FlagDead cleared after respawn")
	}
	if h.Health != h.MaxHealth() {
		t.Errorf("expected full health after respawn")
	}
}
