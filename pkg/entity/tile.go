package entity

import (
	"encoding/binary"

	"heroworld/pkg/tetra"
)

// TileFlag bits packed into Tile.Flags.
type TileFlag uint8

const (
	TileFlagFoundationLaid TileFlag = 1 << iota
	TileFlagUnderConstruction
	TileFlagRazed
)

// Tile is one map entity: a claimable parcel of land with health,
// prosperity, resources and (optionally) a foundation under construction.
// Invariant: Constitution caps Health, and Health==0 implies Prosperity==0
// — a razed tile carries no prosperity until rebuilt.
type Tile struct {
	ID              tetra.ID
	OwnerFaction    uint8
	Health          uint16
	Constitution    uint16
	Prosperity      uint16
	ResourceType    uint8
	ResourceAmount  uint32
	WallLevel       uint8
	Flags           TileFlag
	FoundationHero  uint32
	BuildProgress   uint16
	Version         uint32
	TerritoryClaims [8]uint8  // per-faction claim-strength history
	Neighbors       [4]uint32 // adjacent tower ids, 0 if none
	Name            [15]byte
}

// NewTile constructs an unclaimed, unbuilt tile at full constitution.
func NewTile(id tetra.ID, constitution uint16) *Tile {
	return &Tile{
		ID:           id,
		Health:       constitution,
		Constitution: constitution,
		Version:      1,
	}
}

// ApplyDamage subtracts amount from Health, clamping at zero. A tile that
// reaches zero health loses all prosperity immediately (it is razed).
func (t *Tile) ApplyDamage(amount uint16) {
	if amount >= t.Health {
		t.Health = 0
		t.Prosperity = 0
		t.Flags |= TileFlagRazed
	} else {
		t.Health -= amount
	}
	t.Version++
}

// Repair adds amount to Health, clamping at Constitution, and clears the
// razed flag once health is restored above zero.
func (t *Tile) Repair(amount uint16) {
	if uint32(t.Health)+uint32(amount) > uint32(t.Constitution) {
		t.Health = t.Constitution
	} else {
		t.Health += amount
	}
	if t.Health > 0 {
		t.Flags &^= TileFlagRazed
	}
	t.Version++
}

// LayFoundation marks a tile as under construction by the given hero.
// Rejected (no-op) on a razed tile: building cannot start until repaired.
func (t *Tile) LayFoundation(heroID uint32) bool {
	if t.Flags&TileFlagRazed != 0 || t.Health == 0 {
		return false
	}
	t.FoundationHero = heroID
	t.Flags |= TileFlagFoundationLaid
	t.Flags |= TileFlagUnderConstruction
	t.Version++
	return true
}

// AdvanceBuild adds progress toward completion, clearing the
// under-construction flag and raising Prosperity once it reaches target.
func (t *Tile) AdvanceBuild(amount uint16, target uint16, prosperityGain uint16) {
	if t.Flags&TileFlagUnderConstruction == 0 {
		return
	}
	t.BuildProgress += amount
	if t.BuildProgress >= target {
		t.BuildProgress = target
		t.Flags &^= TileFlagUnderConstruction
		t.Prosperity += prosperityGain
	}
	t.Version++
}

// ReinforceWall raises WallLevel by amount, clamping at 255.
func (t *Tile) ReinforceWall(amount uint8) {
	if int(t.WallLevel)+int(amount) > 255 {
		t.WallLevel = 255
	} else {
		t.WallLevel += amount
	}
	t.Version++
}

// Encode writes the fixed TilePayloadSize wire form.
func (t *Tile) Encode(dst []byte) {
	_ = dst[TilePayloadSize-1]
	off := 0
	t.ID.Encode(dst[off:])
	off += tetra.WireSize
	dst[off] = t.OwnerFaction
	off++
	binary.LittleEndian.PutUint16(dst[off:], t.Health)
	off += 2
	binary.LittleEndian.PutUint16(dst[off:], t.Constitution)
	off += 2
	binary.LittleEndian.PutUint16(dst[off:], t.Prosperity)
	off += 2
	dst[off] = t.ResourceType
	off++
	binary.LittleEndian.PutUint32(dst[off:], t.ResourceAmount)
	off += 4
	dst[off] = t.WallLevel
	off++
	dst[off] = byte(t.Flags)
	off++
	binary.LittleEndian.PutUint32(dst[off:], t.FoundationHero)
	off += 4
	binary.LittleEndian.PutUint16(dst[off:], t.BuildProgress)
	off += 2
	binary.LittleEndian.PutUint32(dst[off:], t.Version)
	off += 4
	copy(dst[off:], t.TerritoryClaims[:])
	off += len(t.TerritoryClaims)
	for i, n := range t.Neighbors {
		binary.LittleEndian.PutUint32(dst[off+i*4:], n)
	}
	off += len(t.Neighbors) * 4
	copy(dst[off:], t.Name[:])
	off += len(t.Name)
	_ = off // off == TilePayloadSize
}

// DecodeTile reads a TilePayloadSize wire form.
func DecodeTile(src []byte) *Tile {
	_ = src[TilePayloadSize-1]
	t := &Tile{}
	off := 0
	t.ID = tetra.Decode(src[off:])
	off += tetra.WireSize
	t.OwnerFaction = src[off]
	off++
	t.Health = binary.LittleEndian.Uint16(src[off:])
	off += 2
	t.Constitution = binary.LittleEndian.Uint16(src[off:])
	off += 2
	t.Prosperity = binary.LittleEndian.Uint16(src[off:])
	off += 2
	t.ResourceType = src[off]
	off++
	t.ResourceAmount = binary.LittleEndian.Uint32(src[off:])
	off += 4
	t.WallLevel = src[off]
	off++
	t.Flags = TileFlag(src[off])
	off++
	t.FoundationHero = binary.LittleEndian.Uint32(src[off:])
	off += 4
	t.BuildProgress = binary.LittleEndian.Uint16(src[off:])
	off += 2
	t.Version = binary.LittleEndian.Uint32(src[off:])
	off += 4
	copy(t.TerritoryClaims[:], src[off:off+len(t.TerritoryClaims)])
	off += len(t.TerritoryClaims)
	for i := range t.Neighbors {
		t.Neighbors[i] = binary.LittleEndian.Uint32(src[off+i*4:])
	}
	off += len(t.Neighbors) * 4
	copy(t.Name[:], src[off:off+len(t.Name)])
	return t
}
