package subscribe

import (
	"testing"

	"heroworld/pkg/tetra"
)

func newTestWatcher(id uint32, faction uint8) (*Watcher, *[][]byte) {
	var sent [][]byte
	w := &Watcher{
		HeroID:  id,
		Faction: faction,
		Send: func(frame []byte) bool {
			sent = append(sent, frame)
			return true
		},
	}
	return w, &sent
}

func TestFanOutRegionOnlyReachesWatchers(t *testing.T) {
	reg := NewRegistry()
	r1 := tetra.ID{Area: 1, LOD: 7}
	r2 := tetra.ID{Area: 2, LOD: 7}

	w1, sent1 := newTestWatcher(1, 0)
	w1.SetRegions(r1)
	w2, sent2 := newTestWatcher(2, 0)
	w2.SetRegions(r2)

	reg.Add(w1)
	reg.Add(w2)

	attempted, dropped := reg.FanOutRegion(r1, []byte("evt"))
	if attempted != 1 || dropped != 0 {
		t.Fatalf("expected 1 attempted 0 dropped, got %d/%d", attempted, dropped)
	}
	if len(*sent1) != 1 {
		t.Errorf("expected watcher 1 to receive the frame")
	}
	if len(*sent2) != 0 {
		t.Errorf("expected watcher 2 not to receive the frame")
	}
}

func TestFanOutFactionIgnoresRegion(t *testing.T) {
	reg := NewRegistry()
	w1, sent1 := newTestWatcher(1, 5)
	w2, sent2 := newTestWatcher(2, 9)
	reg.Add(w1)
	reg.Add(w2)

	attempted, _ := reg.FanOutFaction(5, []byte("announce"))
	if attempted != 1 {
		t.Fatalf("expected 1 attempted, got %d", attempted)
	}
	if len(*sent1) != 1 || len(*sent2) != 0 {
		t.Errorf("expected only faction-5 watcher to receive, got sent1=%d sent2=%d", len(*sent1), len(*sent2))
	}
}

func TestWatchSlotsCapAtThree(t *testing.T) {
	w, _ := newTestWatcher(1, 0)
	w.SetRegions(
		tetra.ID{Area: 1}, tetra.ID{Area: 2}, tetra.ID{Area: 3}, tetra.ID{Area: 4},
	)
	if w.Watches(tetra.ID{Area: 4}) {
		t.Error("expected the 4th region to be dropped beyond WatchSlots capacity")
	}
	if !w.Watches(tetra.ID{Area: 1}) {
		t.Error("expected the 1st region to still be watched")
	}
}

func TestRemoveDropsWatcher(t *testing.T) {
	reg := NewRegistry()
	w, _ := newTestWatcher(1, 0)
	reg.Add(w)
	reg.Remove(1)
	if reg.Count() != 0 {
		t.Errorf("expected registry empty after remove, got %d", reg.Count())
	}
}
