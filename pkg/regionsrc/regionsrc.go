// Package regionsrc defines the boundary to whatever authored the map's
// static layout: resource placement, wall topology, starting tower
// positions. The server ships a deterministic procedural stub so it can
// run standalone; a real deployment points Loader at an authored map
// export instead.
package regionsrc

import (
	"heroworld/pkg/entity"
	"heroworld/pkg/tetra"
)

// Loader resolves a region's static tile layout on demand. The server
// itself never calls a Loader; when regions are loaded is up to the
// caller.
type Loader interface {
	LoadRegion(region tetra.ID) ([]*entity.Tile, error)
}

// ProceduralLoader generates a deterministic tile layout from a region's
// own id, so the same region always yields the same tiles without
// persisting anything until a player actually changes it.
type ProceduralLoader struct {
	ChildrenPerRegion int
}

// NewProceduralLoader builds a stub loader that fills each region with a
// fixed number of child tiles at the next-finer LOD.
func NewProceduralLoader(childrenPerRegion int) *ProceduralLoader {
	if childrenPerRegion <= 0 || childrenPerRegion > 4 {
		childrenPerRegion = 4
	}
	return &ProceduralLoader{ChildrenPerRegion: childrenPerRegion}
}

// LoadRegion deterministically derives tiles from the region id: each
// quadrant child gets a constitution seeded by its own sub value, so
// reloading the same region always reproduces the same starting layout.
func (p *ProceduralLoader) LoadRegion(region tetra.ID) ([]*entity.Tile, error) {
	tiles := make([]*entity.Tile, 0, p.ChildrenPerRegion)
	for q := uint8(0); q < uint8(p.ChildrenPerRegion); q++ {
		child := region.Child(q)
		constitution := uint16(100 + (child.Sub%50)*4)
		tiles = append(tiles, entity.NewTile(child, constitution))
	}
	return tiles, nil
}
