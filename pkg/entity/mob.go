package entity

import (
	"encoding/binary"

	"heroworld/pkg/tetra"
)

// MobFlag bits packed into Mob.Flags.
type MobFlag uint8

const (
	MobFlagHostile MobFlag = 1 << iota
	MobFlagDead
	MobFlagSummoned
)

// Mob is a non-player unit: a monster or a hero-cast creature. Mobs cast
// by a hero are owned for a limited window; once OwnerExpiresAt passes,
// ownership lapses back to the world (OwnerHeroID resets to 0) and the
// mob becomes independently hostile again.
type Mob struct {
	ID             uint32
	Tile           tetra.ID
	Kind           uint8
	Level          uint8
	Health         uint16
	MaxHealth      uint16
	OwnerHeroID    uint32
	OwnerExpiresAt uint32 // server clock ms; 0 when the mob has no owner
	Faction        uint8
	Flags          MobFlag
	Buffs          BuffList
	Version        uint32
	Name           [5]byte

	// Motion block: an in-flight move from Start to End along Path,
	// beginning at MotionTime (server clock ms). Mirrors the hero motion
	// segment so mob AI movement reconciles the same way client-side.
	Start      tetra.ID
	End        tetra.ID
	Path       [6]uint8
	MotionTime uint32
}

// NewMob constructs a world-owned mob.
func NewMob(id uint32, kind uint8, level uint8, maxHealth uint16, at tetra.ID) *Mob {
	return &Mob{
		ID:        id,
		Tile:      at,
		Kind:      kind,
		Level:     level,
		Health:    maxHealth,
		MaxHealth: maxHealth,
		Flags:     MobFlagHostile,
		Version:   1,
	}
}

// CastBy transfers ownership to a hero for the given duration, clearing
// hostility while controlled.
func (m *Mob) CastBy(heroID uint32, expiresAt uint32) {
	m.OwnerHeroID = heroID
	m.OwnerExpiresAt = expiresAt
	m.Flags &^= MobFlagHostile
	m.Flags |= MobFlagSummoned
	m.Version++
}

// LapseOwnership reverts a cast mob to world control once its window has
// passed. A no-op if the mob has no owner or the window is still open.
func (m *Mob) LapseOwnership(nowMs uint32) {
	if m.OwnerHeroID == 0 || nowMs < m.OwnerExpiresAt {
		return
	}
	m.OwnerHeroID = 0
	m.OwnerExpiresAt = 0
	m.Flags |= MobFlagHostile
	m.Version++
}

// Move sets the mob's in-flight motion segment, as driven by either AI or
// a controlling hero's MobMoves command.
func (m *Mob) Move(start, end tetra.ID, path [6]uint8, motionTime uint32) {
	m.Start = start
	m.End = end
	m.Path = path
	m.MotionTime = motionTime
	m.Version++
}

// ApplyDamage subtracts amount from Health, clamping at zero and setting
// MobFlagDead when it lands there.
func (m *Mob) ApplyDamage(amount uint16) {
	if amount >= m.Health {
		m.Health = 0
		m.Flags |= MobFlagDead
	} else {
		m.Health -= amount
	}
	m.Version++
}

// Encode writes the fixed MobPayloadSize wire form.
func (m *Mob) Encode(dst []byte) {
	_ = dst[MobPayloadSize-1]
	off := 0
	binary.LittleEndian.PutUint32(dst[off:], m.ID)
	off += 4
	m.Tile.Encode(dst[off:])
	off += tetra.WireSize
	dst[off] = m.Kind
	off++
	dst[off] = m.Level
	off++
	binary.LittleEndian.PutUint16(dst[off:], m.Health)
	off += 2
	binary.LittleEndian.PutUint16(dst[off:], m.MaxHealth)
	off += 2
	binary.LittleEndian.PutUint32(dst[off:], m.OwnerHeroID)
	off += 4
	binary.LittleEndian.PutUint32(dst[off:], m.OwnerExpiresAt)
	off += 4
	dst[off] = m.Faction
	off++
	dst[off] = byte(m.Flags)
	off++
	summary := m.Buffs.Summary()
	copy(dst[off:], summary[:])
	off += BuffSummarySlots
	binary.LittleEndian.PutUint32(dst[off:], m.Version)
	off += 4
	copy(dst[off:], m.Name[:])
	off += len(m.Name)

	m.Start.Encode(dst[off:])
	off += tetra.WireSize
	m.End.Encode(dst[off:])
	off += tetra.WireSize
	copy(dst[off:], m.Path[:])
	off += len(m.Path)
	binary.LittleEndian.PutUint32(dst[off:], m.MotionTime)
	off += 4
	_ = off // off == MobPayloadSize
}

// DecodeMob reads a MobPayloadSize wire form.
func DecodeMob(src []byte) *Mob {
	_ = src[MobPayloadSize-1]
	m := &Mob{}
	off := 0
	m.ID = binary.LittleEndian.Uint32(src[off:])
	off += 4
	m.Tile = tetra.Decode(src[off:])
	off += tetra.WireSize
	m.Kind = src[off]
	off++
	m.Level = src[off]
	off++
	m.Health = binary.LittleEndian.Uint16(src[off:])
	off += 2
	m.MaxHealth = binary.LittleEndian.Uint16(src[off:])
	off += 2
	m.OwnerHeroID = binary.LittleEndian.Uint32(src[off:])
	off += 4
	m.OwnerExpiresAt = binary.LittleEndian.Uint32(src[off:])
	off += 4
	m.Faction = src[off]
	off++
	m.Flags = MobFlag(src[off])
	off++
	off += BuffSummarySlots
	m.Version = binary.LittleEndian.Uint32(src[off:])
	off += 4
	copy(m.Name[:], src[off:off+len(m.Name)])
	off += len(m.Name)

	m.Start = tetra.Decode(src[off:])
	off += tetra.WireSize
	m.End = tetra.Decode(src[off:])
	off += tetra.WireSize
	copy(m.Path[:], src[off:off+len(m.Path)])
	off += len(m.Path)
	m.MotionTime = binary.LittleEndian.Uint32(src[off:])
	return m
}
