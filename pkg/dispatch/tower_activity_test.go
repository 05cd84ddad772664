package dispatch

import "testing"

func TestTowerActiveIsPureOfTileAndTime(t *testing.T) {
	a := TowerActive(3, 7, 1000)
	b := TowerActive(3, 7, 1000)
	if a != b {
		t.Error("expected identical inputs to produce identical activity")
	}
}

func TestTowerActiveVariesAcrossTiles(t *testing.T) {
	sameTimeDifferentTiles := map[bool]int{}
	for sub := uint32(0); sub < 36; sub++ {
		sameTimeDifferentTiles[TowerActive(0, sub, 0)]++
	}
	if sameTimeDifferentTiles[true] == 0 || sameTimeDifferentTiles[false] == 0 {
		t.Error("expected a mix of active and inactive towers across staggered tiles at one instant")
	}
}

func TestTowerActiveHandlesNegativeTime(t *testing.T) {
	// must not panic or misbehave for a time before the epoch baseline
	_ = TowerActive(1, 1, -10000)
}
