// Package dispatch runs the tick loop: once per TickMillis it drains
// every subsystem lane in a fixed order (hero, mob, tile, tower,
// battle, chat) so within one tick a hero's movement always resolves
// before a mob reacts to it, and so on down the chain.
package dispatch

import (
	"math"
	"math/rand"

	"heroworld/pkg/entity"
)

// cardFactor is the strength scaling factor CombatStats falls back to
// when a caller hasn't resolved a card's own factor (bare hands).
const cardFactor = 1.0

// defaultBlockChance and defaultCritChance mirror entity.CardBareHands,
// used whenever a caller passes a zero-value CombatStats.
const (
	defaultBlockChance = 0.05
	defaultCritChance  = 0.02
)

// CombatStats is the minimal attacker/defender view Resolve needs,
// decoupled from Hero/Mob so either can be resolved through the same
// path. StrengthFactor, BlockChance and CritChance normally come from
// the relevant side's equipped card (entity.CardByID); left at zero
// they fall back to a bare-hands default rather than disabling the roll.
type CombatStats struct {
	Strength       int32
	Defense        int32
	BuffBonus      int32
	StrengthFactor float64
	BlockChance    float64
	CritChance     float64
}

// Resolve computes attack = round(strength*StrengthFactor) + buffs and
// defense = round(defense*1.0) + buffs, then classifies the outcome. A
// client-reported miss always wins over the roll; otherwise a block roll
// against the defender's BlockChance, then a critical roll against the
// attacker's CritChance, may apply on top of the raw margin — which is
// clamped at zero whenever defense meets or exceeds attack, so an
// overmatched attacker never deals damage regardless of outcome.
func Resolve(attacker, defender CombatStats, missed bool, rng *rand.Rand) entity.AttackResult {
	factor := attacker.StrengthFactor
	if factor == 0 {
		factor = cardFactor
	}
	attack := int32(math.Round(float64(attacker.Strength)*factor)) + attacker.BuffBonus
	defense := int32(math.Round(float64(defender.Defense)*1.0)) + defender.BuffBonus

	var outcome entity.AttackOutcome
	var damage uint16
	multiplier := uint16(100)

	switch {
	case missed:
		outcome = entity.OutcomeMiss
	case rng.Float64() < blockChance(defender):
		outcome = entity.OutcomeBlock
		damage = above(attack, defense) / 2
	case rng.Float64() < critChance(attacker):
		outcome = entity.OutcomeCritical
		multiplier = 200
		damage = 2 * above(attack, defense)
	default:
		outcome = entity.OutcomeNormal
		damage = above(attack, defense)
	}

	return entity.AttackResult{
		Damage:             damage,
		Outcome:            outcome,
		CriticalMultiplier: multiplier,
	}
}

func blockChance(s CombatStats) float64 {
	if s.BlockChance == 0 {
		return defaultBlockChance
	}
	return s.BlockChance
}

func critChance(s CombatStats) float64 {
	if s.CritChance == 0 {
		return defaultCritChance
	}
	return s.CritChance
}

// above returns attack-defense clamped at zero: a defender whose defense
// meets or exceeds the attacker's takes no damage regardless of roll.
func above(attack, defense int32) uint16 {
	if attack <= defense {
		return 0
	}
	return uint16(attack - defense)
}
