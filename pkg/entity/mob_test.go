package entity

import (
	"testing"

	"heroworld/pkg/tetra"
)

func TestMobEncodeDecodeRoundTrip(t *testing.T) {
	m := NewMob(7, 2, 5, 200, tetra.ID{Area: 4, Sub: 10, LOD: 6})
	m.CastBy(11, 5000)

	buf := make([]byte, MobPayloadSize)
	m.Encode(buf)
	got := DecodeMob(buf)

	if got.ID != m.ID || !got.Tile.Equal(m.Tile) || got.OwnerHeroID != m.OwnerHeroID {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, m)
	}
	if got.OwnerExpiresAt != m.OwnerExpiresAt {
		t.Errorf("owner expiry mismatch: got %d want %d", got.OwnerExpiresAt, m.OwnerExpiresAt)
	}
}

func TestMobOwnershipLapses(t *testing.T) {
	m := NewMob(1, 0, 1, 50, tetra.ID{})
	m.CastBy(9, 100)
	m.LapseOwnership(50)
	if m.OwnerHeroID != 9 {
		t.Errorf("expected ownership intact before expiry, got owner %d", m.OwnerHeroID)
	}
	m.LapseOwnership(150)
	if m.OwnerHeroID != 0 {
		t.Errorf("expected ownership lapsed, got owner %d", m.OwnerHeroID)
	}
	if m.Flags&MobFlagHostile == 0 {
		t.Errorf("expected mob to revert to hostile after lapse")
	}
}

func TestMobApplyDamageFlagsDead(t *testing.T) {
	m := NewMob(1, 0, 1, 10, tetra.ID{})
	m.ApplyDamage(50)
	if m.Health != 0 || m.Flags&MobFlagDead == 0 {
		t.Errorf("expected mob dead with zero health, got health=%d flags=%d", m.Health, m.Flags)
	}
}
