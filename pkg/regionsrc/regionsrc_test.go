package regionsrc

import (
	"testing"

	"heroworld/pkg/tetra"
)

func TestLoadRegionIsDeterministic(t *testing.T) {
	loader := NewProceduralLoader(4)
	region := tetra.ID{Area: 2, Sub: 17, LOD: tetra.RegionLOD}

	first, err := loader.LoadRegion(region)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := loader.LoadRegion(region)

	if len(first) != len(second) {
		t.Fatalf("expected same tile count across loads, got %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].ID.Equal(second[i].ID) || first[i].Constitution != second[i].Constitution {
			t.Errorf("tile %d differs across loads: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestLoadRegionProducesChildrenOfRegion(t *testing.T) {
	loader := NewProceduralLoader(4)
	region := tetra.ID{Area: 1, Sub: 5, LOD: tetra.RegionLOD}
	tiles, _ := loader.LoadRegion(region)
	for _, tile := range tiles {
		if !region.IsAncestorOf(tile.ID) {
			t.Errorf("expected tile %+v to descend from region %+v", tile.ID, region)
		}
	}
}

func TestChildrenPerRegionClampsToValidRange(t *testing.T) {
	loader := NewProceduralLoader(99)
	if loader.ChildrenPerRegion != 4 {
		t.Errorf("expected out-of-range request clamped to 4, got %d", loader.ChildrenPerRegion)
	}
}
