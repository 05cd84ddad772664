package entity

import (
	"testing"

	"heroworld/pkg/tetra"
)

func TestTowerEncodeDecodeRoundTrip(t *testing.T) {
	tw := NewTower(3, tetra.ID{Area: 1, Sub: 2, LOD: 7}, 1, 1000)
	tw.Credit(10, 50)
	tw.Credit(11, 80)

	buf := make([]byte, TowerPayloadSize)
	tw.Encode(buf)
	got := DecodeTower(buf)

	if got.ID != tw.ID || !got.Tile.Equal(tw.Tile) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, tw)
	}
	if got.TopAmounts[0] != 80 || got.TopContributors[0] != 11 {
		t.Errorf("expected top contributor 11 with 80, got id=%d amt=%d", got.TopContributors[0], got.TopAmounts[0])
	}
}

func TestTowerLedgerStaysNonNegative(t *testing.T) {
	tw := NewTower(1, tetra.ID{}, 0, 100)
	tw.Credit(5, 10)
	if err := tw.Debit(5, 20); err != ErrNegativeLedgerEntry {
		t.Errorf("expected ErrNegativeLedgerEntry, got %v", err)
	}
	if tw.LedgerEntry(5) != 10 {
		t.Errorf("expected ledger unchanged after rejected debit, got %d", tw.LedgerEntry(5))
	}
}

func TestTowerLedgerEntriesDistinctByHero(t *testing.T) {
	tw := NewTower(1, tetra.ID{}, 0, 100)
	tw.Credit(1, 5)
	tw.Credit(2, 7)
	if tw.LedgerEntry(1) != 5 || tw.LedgerEntry(2) != 7 {
		t.Errorf("expected distinct ledger entries per hero, got hero1=%d hero2=%d", tw.LedgerEntry(1), tw.LedgerEntry(2))
	}
}

func TestTowerApplyDamageClampsAtZero(t *testing.T) {
	tw := NewTower(1, tetra.ID{}, 0, 50)
	tw.ApplyDamage(1000)
	if tw.Health != 0 {
		t.Errorf("expected health 0, got %d", tw.Health)
	}
}
