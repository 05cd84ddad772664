package tetra

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	id := ID{Area: 12, Sub: 0xABCD1234, LOD: 9}
	buf := id.Bytes()
	if len(buf) != WireSize {
		t.Fatalf("expected %d bytes, got %d", WireSize, len(buf))
	}
	got := Decode(buf)
	if !got.Equal(id) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, id)
	}
}

func TestEqual(t *testing.T) {
	a := ID{Area: 1, Sub: 2, LOD: 3}
	b := ID{Area: 1, Sub: 2, LOD: 3}
	c := ID{Area: 1, Sub: 2, LOD: 4}
	if !a.Equal(b) {
		t.Errorf("expected equal ids")
	}
	if a.Equal(c) {
		t.Errorf("expected differing LOD to be unequal")
	}
}

func TestParentShiftsAndDecrements(t *testing.T) {
	id := ID{Area: 5, Sub: 0b1011, LOD: 2}
	p := id.Parent()
	if p.Sub != 0b10 || p.LOD != 1 {
		t.Errorf("got sub=%b lod=%d, want sub=10 lod=1", p.Sub, p.LOD)
	}
}

func TestParentAtZeroIsIdempotent(t *testing.T) {
	id := ID{Area: 3, Sub: 99, LOD: 0}
	if p := id.Parent(); !p.Equal(id) {
		t.Errorf("parent of LOD 0 should be itself, got %+v", p)
	}
}

func TestRegionIsLOD7Ancestor(t *testing.T) {
	id := ID{Area: 2, Sub: 0xFFFFFFFF, LOD: 10}
	r := id.Region()
	if r.LOD != RegionLOD {
		t.Errorf("expected region LOD %d, got %d", RegionLOD, r.LOD)
	}
	if r.Area != id.Area {
		t.Errorf("region should keep area")
	}
}

func TestRegionOfCoarserTileIsUnchanged(t *testing.T) {
	id := ID{Area: 2, Sub: 4, LOD: 3}
	if r := id.Region(); !r.Equal(id) {
		t.Errorf("a tile coarser than region LOD should be its own region, got %+v", r)
	}
}

func TestChildAndIsAncestorOf(t *testing.T) {
	parent := ID{Area: 7, Sub: 5, LOD: 4}
	child := parent.Child(2)
	if !parent.IsAncestorOf(child) {
		t.Errorf("expected parent to be ancestor of child")
	}
	if child.IsAncestorOf(parent) {
		t.Errorf("child must not be ancestor of its own parent")
	}
	if !parent.Child(2).Parent().Equal(parent) {
		t.Errorf("child-then-parent should round trip")
	}
}
