package entity

import (
	"encoding/binary"
	"errors"

	"heroworld/pkg/tetra"
)

// TowerFlag bits packed into Tower.Flags.
type TowerFlag uint8

const (
	TowerFlagUnderSiege TowerFlag = 1 << iota
	TowerFlagDisabled
)

// ErrNegativeLedgerEntry is returned when a ledger contribution would
// drive a hero's credit below zero.
var ErrNegativeLedgerEntry = errors.New("entity: tower ledger entries must stay non-negative")

// ledgerCap bounds how many distinct contributors a tower's wire summary
// can show; the full ledger may be larger. It lives only in memory:
// Encode, which is also the persisted form, carries just the summary.
const ledgerCap = 4

// Tower is a faction stronghold. Activity (open for entry/exit vs.
// sealed) is a pure function of tile identity and wall-clock time and is
// never stored — see TowerActive in package dispatch, keyed by the
// tile's area and sub.
//
// Ledger tracks each contributing hero's non-negative credit toward the
// tower; entries are keyed by hero id and must stay distinct and >= 0.
type Tower struct {
	ID              uint32
	Tile            tetra.ID
	OwnerFaction    uint8
	Level           uint8
	Health          uint16
	MaxHealth       uint16
	GarrisonCount   uint16
	Flags           TowerFlag
	Version         uint32
	ledger          map[uint32]uint32
	TopContributors [ledgerCap]uint32
	TopAmounts      [ledgerCap]uint32
	Name            [10]byte
}

// NewTower constructs an undamaged tower with an empty ledger.
func NewTower(id uint32, at tetra.ID, faction uint8, maxHealth uint16) *Tower {
	return &Tower{
		ID:           id,
		Tile:         at,
		OwnerFaction: faction,
		Level:        1,
		Health:       maxHealth,
		MaxHealth:    maxHealth,
		Version:      1,
		ledger:       make(map[uint32]uint32),
	}
}

// Credit adds amount to heroID's ledger entry. amount must be
// non-negative (callers pass contributions, never withdrawals); the
// resulting entry is therefore always non-negative and distinct per hero
// by construction of the map key.
func (tw *Tower) Credit(heroID uint32, amount uint32) error {
	if tw.ledger == nil {
		tw.ledger = make(map[uint32]uint32)
	}
	tw.ledger[heroID] += amount
	tw.refreshTopContributors()
	tw.Version++
	return nil
}

// Debit subtracts amount from heroID's ledger entry, rejecting the
// change if it would go negative.
func (tw *Tower) Debit(heroID uint32, amount uint32) error {
	if tw.ledger[heroID] < amount {
		return ErrNegativeLedgerEntry
	}
	tw.ledger[heroID] -= amount
	tw.refreshTopContributors()
	tw.Version++
	return nil
}

// LedgerEntry returns a hero's current credit.
func (tw *Tower) LedgerEntry(heroID uint32) uint32 {
	return tw.ledger[heroID]
}

func (tw *Tower) refreshTopContributors() {
	var ids [ledgerCap]uint32
	var amts [ledgerCap]uint32
	for hero, amt := range tw.ledger {
		for i := 0; i < ledgerCap; i++ {
			if amt > amts[i] {
				copy(amts[i+1:], amts[i:ledgerCap-1])
				copy(ids[i+1:], ids[i:ledgerCap-1])
				amts[i] = amt
				ids[i] = hero
				break
			}
		}
	}
	tw.TopContributors = ids
	tw.TopAmounts = amts
}

// ApplyDamage subtracts amount from Health, clamping at zero.
func (tw *Tower) ApplyDamage(amount uint16) {
	if amount >= tw.Health {
		tw.Health = 0
	} else {
		tw.Health -= amount
	}
	tw.Version++
}

// Repair adds amount to Health, clamping at MaxHealth.
func (tw *Tower) Repair(amount uint16) {
	if uint32(tw.Health)+uint32(amount) > uint32(tw.MaxHealth) {
		tw.Health = tw.MaxHealth
	} else {
		tw.Health += amount
	}
	tw.Version++
}

// Encode writes the fixed TowerPayloadSize wire form.
func (tw *Tower) Encode(dst []byte) {
	_ = dst[TowerPayloadSize-1]
	off := 0
	binary.LittleEndian.PutUint32(dst[off:], tw.ID)
	off += 4
	tw.Tile.Encode(dst[off:])
	off += tetra.WireSize
	dst[off] = tw.OwnerFaction
	off++
	dst[off] = tw.Level
	off++
	binary.LittleEndian.PutUint16(dst[off:], tw.Health)
	off += 2
	binary.LittleEndian.PutUint16(dst[off:], tw.MaxHealth)
	off += 2
	binary.LittleEndian.PutUint16(dst[off:], tw.GarrisonCount)
	off += 2
	dst[off] = byte(tw.Flags)
	off++
	binary.LittleEndian.PutUint32(dst[off:], tw.Version)
	off += 4
	for i, id := range tw.TopContributors {
		binary.LittleEndian.PutUint32(dst[off+i*4:], id)
	}
	off += ledgerCap * 4
	for i, amt := range tw.TopAmounts {
		binary.LittleEndian.PutUint32(dst[off+i*4:], amt)
	}
	off += ledgerCap * 4
	copy(dst[off:], tw.Name[:])
	off += len(tw.Name)
	_ = off // off == TowerPayloadSize
}

// DecodeTower reads a TowerPayloadSize wire form. The ledger map itself
// is not transmitted; only the top-contributor summary round-trips.
func DecodeTower(src []byte) *Tower {
	_ = src[TowerPayloadSize-1]
	tw := &Tower{ledger: make(map[uint32]uint32)}
	off := 0
	tw.ID = binary.LittleEndian.Uint32(src[off:])
	off += 4
	tw.Tile = tetra.Decode(src[off:])
	off += tetra.WireSize
	tw.OwnerFaction = src[off]
	off++
	tw.Level = src[off]
	off++
	tw.Health = binary.LittleEndian.Uint16(src[off:])
	off += 2
	tw.MaxHealth = binary.LittleEndian.Uint16(src[off:])
	off += 2
	tw.GarrisonCount = binary.LittleEndian.Uint16(src[off:])
	off += 2
	tw.Flags = TowerFlag(src[off])
	off++
	tw.Version = binary.LittleEndian.Uint32(src[off:])
	off += 4
	for i := range tw.TopContributors {
		tw.TopContributors[i] = binary.LittleEndian.Uint32(src[off+i*4:])
	}
	off += ledgerCap * 4
	for i := range tw.TopAmounts {
		tw.TopAmounts[i] = binary.LittleEndian.Uint32(src[off+i*4:])
	}
	off += ledgerCap * 4
	copy(tw.Name[:], src[off:off+len(tw.Name)])
	return tw
}
