package entity

import (
	"encoding/binary"
	"errors"
	"math"

	"heroworld/pkg/tetra"
)

// MaxEquippedCards is the number of card slots a hero may fill.
const MaxEquippedCards = 10

// HeroFlag bits packed into Hero.Flags.
type HeroFlag uint8

const (
	FlagDead HeroFlag = 1 << iota
	FlagInsideTower
	FlagPvPFlagged
	FlagDash
	FlagChat
	FlagTryingEnterTower
)

// Action enumerates Hero.Action: what the hero is currently doing. This
// drives animation/intent on connected clients and gates a few commands
// (e.g. movement is rejected while INSIDE_TOWER regardless of action).
type Action uint8

const (
	ActionIdle Action = iota
	ActionWalk
	ActionAttackTile
	ActionAttackHero
	ActionCollect
	ActionBuild
	ActionTouch
	ActionCast
	ActionStruggle
	ActionTyping
)

// ItemInventoryCap and WeaponInventoryCap bound the fixed-size wire slots
// for a hero's item and weapon inventories.
const (
	ItemInventoryCap   = 6
	WeaponInventoryCap = 1
)

// ErrStatBudgetExceeded is returned when an allocation would spend more
// points than the hero's level grants.
var ErrStatBudgetExceeded = errors.New("entity: stat point allocation exceeds level budget")

// ErrEquipCapExceeded is returned when a tenth card is already equipped.
var ErrEquipCapExceeded = errors.New("entity: equipped card slots full")

// Hero is a player-controlled character: position, progression, combat
// stats, equipped cards and active buffs. Health can never exceed the
// constitution cap implied by Level; a mutator that would violate this
// clamps instead of erroring, since damage/heal amounts are frequently
// computed without knowledge of the cap.
type Hero struct {
	ID        uint32
	Tile      tetra.ID
	Level     uint8
	Health    uint16
	Mana      uint16
	MaxMana   uint16
	Strength  uint8
	Defense   uint8
	Intellect uint8
	ManaPts   uint8
	Faction   uint8
	Flags     HeroFlag
	Cards     [MaxEquippedCards]uint8 // 0 = empty slot
	numCards  int
	Buffs     BuffList
	Version   uint32
	Name      [6]byte

	// Action and the motion segment below describe what the hero is doing
	// and, if walking, the in-flight movement from Tile toward SecondTile.
	Action     Action
	SecondTile tetra.ID
	Vertex     int32
	Path       [6]uint8
	MotionTime uint32

	Experience  uint32
	SkillPoints uint8

	Items   InventoryList
	Weapons InventoryList

	InventoryVersion uint8
}

// NewHero constructs a freshly rolled hero at full health and mana.
func NewHero(id uint32, name string, faction uint8, at tetra.ID) *Hero {
	h := &Hero{
		ID:      id,
		Tile:    at,
		Level:   1,
		Faction: faction,
		Version: 1,
	}
	copy(h.Name[:], name)
	h.Health = uint16(Constitution(h.Level))
	h.MaxMana = uint16(Constitution(h.Level) / 2)
	h.Mana = h.MaxMana
	return h
}

// MaxHealth returns the constitution cap implied by the hero's level.
func (h *Hero) MaxHealth() uint16 {
	c := Constitution(h.Level)
	if c > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(c)
}

// pointsSpent sums the stat points currently allocated.
func (h *Hero) pointsSpent() uint32 {
	return uint32(h.Strength) + uint32(h.Defense) + uint32(h.Intellect) + uint32(h.ManaPts)
}

// Allocate spends `delta` points into the given stat, rejecting the
// change if it would exceed the level's point budget. Bumps Version on
// success.
func (h *Hero) Allocate(stat StatKind, delta uint8) error {
	if uint32(delta)+h.pointsSpent() > PointBudget(h.Level) {
		return ErrStatBudgetExceeded
	}
	switch stat {
	case StatStrength:
		h.Strength += delta
	case StatDefense:
		h.Defense += delta
	case StatIntelligence:
		h.Intellect += delta
	case StatMana:
		h.ManaPts += delta
	}
	h.Version++
	return nil
}

// ApplyDamage subtracts amount from Health, clamping at zero and marking
// FlagDead when it lands there.
func (h *Hero) ApplyDamage(amount uint16) {
	if amount >= h.Health {
		h.Health = 0
		h.Flags |= FlagDead
	} else {
		h.Health -= amount
	}
	h.Version++
}

// Heal adds amount to Health, clamping at the level's constitution cap.
func (h *Hero) Heal(amount uint16) {
	max := h.MaxHealth()
	if h.Health == 0 {
		return // dead heroes are revived via Respawn, not healed
	}
	if uint32(h.Health)+uint32(amount) > uint32(max) {
		h.Health = max
	} else {
		h.Health += amount
	}
	h.Version++
}

// Respawn resets health/mana to full and clears the dead flag.
func (h *Hero) Respawn(at tetra.ID) {
	h.Tile = at
	h.Health = h.MaxHealth()
	h.Mana = h.MaxMana
	h.Flags &^= FlagDead
	h.Version++
}

// EquipCard appends a card id to the first empty slot, rejecting the
// change once MaxEquippedCards are filled.
func (h *Hero) EquipCard(cardID uint8) error {
	for i := 0; i < MaxEquippedCards; i++ {
		if h.Cards[i] == 0 {
			h.Cards[i] = cardID
			h.numCards++
			h.Version++
			return nil
		}
	}
	return ErrEquipCapExceeded
}

// Move updates the hero's in-flight motion segment and sets action=walk.
// Rejected (no-op, returns false) while the hero is inside a tower, per
// the movement invariant.
func (h *Hero) Move(second tetra.ID, vertex int32, path [6]uint8, motionTime uint32) bool {
	if h.Flags&FlagInsideTower != 0 {
		return false
	}
	h.SecondTile = second
	h.Vertex = vertex
	h.Path = path
	h.MotionTime = motionTime
	h.Action = ActionWalk
	h.Version++
	return true
}

// SetAction updates the action byte, lazily pruning expired buffs and
// toggling the CHAT flag to mirror ActionTyping.
func (h *Hero) SetAction(action Action, nowMs uint32) {
	h.Buffs.PruneExpired(nowMs)
	h.Action = action
	if action == ActionTyping {
		h.Flags |= FlagChat
	} else {
		h.Flags &^= FlagChat
	}
	h.Version++
}

// GrantExperience adds xp and levels the hero up for each progression
// threshold crossed, granting that level's skill points.
func (h *Hero) GrantExperience(xp uint32) {
	h.Experience += xp
	for h.Level < MaxLevel && h.Experience >= levelThreshold(h.Level+1) {
		h.Level++
		h.SkillPoints += uint8(PointBudget(h.Level) - PointBudget(h.Level-1))
	}
	h.Version++
}

// levelThreshold is the cumulative experience required to reach level.
func levelThreshold(level uint8) uint32 {
	return Constitution(level) * 2
}

// StatTotal returns the effective value of a stat including active buffs.
func (h *Hero) StatTotal(stat StatKind) int32 {
	var base int32
	var points uint32
	switch stat {
	case StatStrength:
		base, points = 5, uint32(h.Strength)
	case StatDefense:
		base, points = 5, uint32(h.Defense)
	case StatIntelligence:
		base, points = 5, uint32(h.Intellect)
	case StatMana:
		base, points = 0, uint32(h.ManaPts)
	}
	return StatValue(base, points) + h.Buffs.SumForStat(stat)
}

// Encode writes the fixed HeroPayloadSize wire form.
func (h *Hero) Encode(dst []byte) {
	_ = dst[HeroPayloadSize-1]
	off := 0
	binary.LittleEndian.PutUint32(dst[off:], h.ID)
	off += 4
	h.Tile.Encode(dst[off:])
	off += tetra.WireSize
	dst[off] = h.Level
	off++
	binary.LittleEndian.PutUint16(dst[off:], h.Health)
	off += 2
	binary.LittleEndian.PutUint16(dst[off:], h.MaxHealth())
	off += 2
	dst[off] = h.Strength
	off++
	dst[off] = h.Defense
	off++
	dst[off] = h.Intellect
	off++
	dst[off] = h.ManaPts
	off++
	binary.LittleEndian.PutUint16(dst[off:], h.Mana)
	off += 2
	binary.LittleEndian.PutUint16(dst[off:], h.MaxMana)
	off += 2
	dst[off] = h.Faction
	off++
	dst[off] = byte(h.Flags)
	off++
	copy(dst[off:], h.Cards[:])
	off += MaxEquippedCards
	summary := h.Buffs.Summary()
	copy(dst[off:], summary[:])
	off += BuffSummarySlots
	binary.LittleEndian.PutUint32(dst[off:], h.Version)
	off += 4
	copy(dst[off:], h.Name[:])
	off += len(h.Name)

	dst[off] = byte(h.Action)
	off++
	h.SecondTile.Encode(dst[off:])
	off += tetra.WireSize
	binary.LittleEndian.PutUint32(dst[off:], uint32(h.Vertex))
	off += 4
	copy(dst[off:], h.Path[:])
	off += len(h.Path)
	binary.LittleEndian.PutUint32(dst[off:], h.MotionTime)
	off += 4
	binary.LittleEndian.PutUint32(dst[off:], h.Experience)
	off += 4
	dst[off] = h.SkillPoints
	off++
	encodeInventoryRows(dst[off:], h.Items, ItemInventoryCap)
	off += ItemInventoryCap * inventoryRowSize
	encodeInventoryRows(dst[off:], h.Weapons, WeaponInventoryCap)
	off += WeaponInventoryCap * inventoryRowSize
	_ = off // off == HeroPayloadSize
}

// inventoryRowSize is the wire size of one InventoryRow: id, slot, amount.
const inventoryRowSize = 4

func encodeInventoryRows(dst []byte, rows InventoryList, capacity int) {
	for i := 0; i < capacity; i++ {
		off := i * inventoryRowSize
		if i < len(rows) {
			dst[off] = rows[i].ID
			dst[off+1] = rows[i].Slot
			binary.LittleEndian.PutUint16(dst[off+2:], rows[i].Amount)
		}
	}
}

func decodeInventoryRows(src []byte, capacity int) InventoryList {
	rows := make(InventoryList, 0, capacity)
	for i := 0; i < capacity; i++ {
		off := i * inventoryRowSize
		id, slot := src[off], src[off+1]
		amount := binary.LittleEndian.Uint16(src[off+2:])
		if amount == 0 {
			continue
		}
		rows = append(rows, InventoryRow{ID: id, Slot: slot, Amount: amount})
	}
	return rows
}

// DecodeHero reads a HeroPayloadSize wire form.
func DecodeHero(src []byte) *Hero {
	_ = src[HeroPayloadSize-1]
	h := &Hero{}
	off := 0
	h.ID = binary.LittleEndian.Uint32(src[off:])
	off += 4
	h.Tile = tetra.Decode(src[off:])
	off += tetra.WireSize
	h.Level = src[off]
	off++
	h.Health = binary.LittleEndian.Uint16(src[off:])
	off += 2
	off += 2 // max health is derived, not stored
	h.Strength = src[off]
	off++
	h.Defense = src[off]
	off++
	h.Intellect = src[off]
	off++
	h.ManaPts = src[off]
	off++
	h.Mana = binary.LittleEndian.Uint16(src[off:])
	off += 2
	h.MaxMana = binary.LittleEndian.Uint16(src[off:])
	off += 2
	h.Faction = src[off]
	off++
	h.Flags = HeroFlag(src[off])
	off++
	copy(h.Cards[:], src[off:off+MaxEquippedCards])
	for _, c := range h.Cards {
		if c != 0 {
			h.numCards++
		}
	}
	off += MaxEquippedCards
	off += BuffSummarySlots // buff summary is informational only, not reconstructed
	h.Version = binary.LittleEndian.Uint32(src[off:])
	off += 4
	copy(h.Name[:], src[off:off+len(h.Name)])
	off += len(h.Name)

	h.Action = Action(src[off])
	off++
	h.SecondTile = tetra.Decode(src[off:])
	off += tetra.WireSize
	h.Vertex = int32(binary.LittleEndian.Uint32(src[off:]))
	off += 4
	copy(h.Path[:], src[off:off+len(h.Path)])
	off += len(h.Path)
	h.MotionTime = binary.LittleEndian.Uint32(src[off:])
	off += 4
	h.Experience = binary.LittleEndian.Uint32(src[off:])
	off += 4
	h.SkillPoints = src[off]
	off++
	h.Items = decodeInventoryRows(src[off:], ItemInventoryCap)
	off += ItemInventoryCap * inventoryRowSize
	h.Weapons = decodeInventoryRows(src[off:], WeaponInventoryCap)
	off += WeaponInventoryCap * inventoryRowSize
	return h
}
