package entity

import (
	"errors"
	"math/bits"
)

// MaxBattleParticipants bounds a battle's roster: slot indices are bits
// in an 8-bit mask, so at most 8 heroes may ever join one battle.
const MaxBattleParticipants = 8

// ErrBattleFull is returned when a ninth hero attempts to join.
var ErrBattleFull = errors.New("entity: battle already has 8 participants")

// ErrUnknownSlot is returned when a turn is recorded for a slot that
// never joined.
var ErrUnknownSlot = errors.New("entity: turn recorded for a slot that never joined")

// Battle tracks participation and per-round turn-taking via two bitmasks.
// Invariant: popcount(TurnLog) <= popcount(ParticipantsLog) <= 8 — a hero
// can only spend a turn in a round after it has joined, and the roster
// itself never exceeds MaxBattleParticipants.
type Battle struct {
	ID              uint32
	ParticipantsLog uint8
	TurnLog         uint8
	Version         uint32
	slots           [MaxBattleParticipants]uint32 // hero id per slot, 0 if empty
}

// NewBattle constructs an empty battle.
func NewBattle(id uint32) *Battle {
	return &Battle{ID: id, Version: 1}
}

// Join seats heroID in the first free slot. Rejected once
// MaxBattleParticipants have joined; a rejected join does not advance
// Version, since no observable state changed.
func (b *Battle) Join(heroID uint32) (slot uint8, err error) {
	if bits.OnesCount8(b.ParticipantsLog) >= MaxBattleParticipants {
		return 0, ErrBattleFull
	}
	for i := 0; i < MaxBattleParticipants; i++ {
		if b.ParticipantsLog&(1<<uint(i)) == 0 {
			b.ParticipantsLog |= 1 << uint(i)
			b.slots[i] = heroID
			b.Version++
			return uint8(i), nil
		}
	}
	return 0, ErrBattleFull
}

// RecordTurn marks that the hero in `slot` has acted this round. Rejects
// turns for slots that never joined, preserving
// popcount(TurnLog) <= popcount(ParticipantsLog).
func (b *Battle) RecordTurn(slot uint8) error {
	if slot >= MaxBattleParticipants || b.ParticipantsLog&(1<<slot) == 0 {
		return ErrUnknownSlot
	}
	b.TurnLog |= 1 << slot
	b.Version++
	return nil
}

// ResetRound clears TurnLog for the next round without touching roster.
func (b *Battle) ResetRound() {
	b.TurnLog = 0
	b.Version++
}

// ParticipantCount returns the number of seated heroes.
func (b *Battle) ParticipantCount() int {
	return bits.OnesCount8(b.ParticipantsLog)
}

// TurnCount returns the number of heroes that have acted this round.
func (b *Battle) TurnCount() int {
	return bits.OnesCount8(b.TurnLog)
}

// SlotHero returns the hero id occupying a slot, or 0 if empty.
func (b *Battle) SlotHero(slot uint8) uint32 {
	if slot >= MaxBattleParticipants {
		return 0
	}
	return b.slots[slot]
}
