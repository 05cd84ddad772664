// Package tetra implements the hierarchical spatial key used to address
// every tile in the world: an area, a subdivision path, and a level of
// detail. Ids are small enough to pass and hash by value.
package tetra

import "encoding/binary"

// RegionLOD is the level of detail at which a tile's ancestor is treated
// as a region: the unit of locking and subscription granularity.
const RegionLOD = 7

// WireSize is the encoded length of an ID on the wire.
const WireSize = 6

// ID is a hierarchical spatial key: a top-level area, a subdivision path
// packed into a uint32, and a level of detail. Two ids are equal iff all
// three fields match.
type ID struct {
	Area uint8
	Sub  uint32
	LOD  uint8
}

// Encode writes the 6-byte little-endian wire form: area, sub (4 bytes LE), lod.
func (id ID) Encode(dst []byte) {
	_ = dst[5] // bounds check hint
	dst[0] = id.Area
	binary.LittleEndian.PutUint32(dst[1:5], id.Sub)
	dst[5] = id.LOD
}

// Bytes returns the 6-byte wire form as a new slice.
func (id ID) Bytes() []byte {
	buf := make([]byte, WireSize)
	id.Encode(buf)
	return buf
}

// Decode reads a 6-byte little-endian wire form.
func Decode(src []byte) ID {
	_ = src[5]
	return ID{
		Area: src[0],
		Sub:  binary.LittleEndian.Uint32(src[1:5]),
		LOD:  src[5],
	}
}

// Equal reports whether two ids name the same tile.
func (id ID) Equal(other ID) bool {
	return id.Area == other.Area && id.Sub == other.Sub && id.LOD == other.LOD
}

// Parent derives the ancestor one level coarser: the subdivision path is
// shifted right by 2 bits (each level divides a tetrahedron into 4 children)
// and the LOD is decremented. Parent of an area-level id (LOD 0) is itself.
func (id ID) Parent() ID {
	if id.LOD == 0 {
		return id
	}
	return ID{Area: id.Area, Sub: id.Sub >> 2, LOD: id.LOD - 1}
}

// AncestorAt walks Parent repeatedly until the requested LOD is reached.
// Requesting a LOD finer than id's own LOD returns id unchanged.
func (id ID) AncestorAt(lod uint8) ID {
	for id.LOD > lod {
		id = id.Parent()
	}
	return id
}

// Region returns the LOD-7 ancestor of id: the unit of spatial
// partitioning and locking used throughout the dispatcher.
func (id ID) Region() ID {
	return id.AncestorAt(RegionLOD)
}

// Child derives one of the four children at the next-finer LOD.
// quadrant must be in [0,3].
func (id ID) Child(quadrant uint8) ID {
	return ID{Area: id.Area, Sub: (id.Sub << 2) | uint32(quadrant&0x3), LOD: id.LOD + 1}
}

// IsAncestorOf reports whether id is a (possibly indirect) ancestor of other.
func (id ID) IsAncestorOf(other ID) bool {
	if id.Area != other.Area || id.LOD > other.LOD {
		return false
	}
	return id.Equal(other.AncestorAt(id.LOD))
}
