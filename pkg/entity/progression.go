package entity

import "math"

// MaxLevel bounds the progression table.
const MaxLevel = 100

// progressionRow is one level's constitution cap and stat-point budget.
type progressionRow struct {
	constitution uint32
	points       uint32
}

// progressionTable is generated rather than hand-listed: constitution
// grows quadratically and the point budget linearly, which keeps early
// levels cheap and late levels expensive without a thousand magic numbers.
var progressionTable = buildProgressionTable()

func buildProgressionTable() [MaxLevel + 1]progressionRow {
	var t [MaxLevel + 1]progressionRow
	for lvl := 0; lvl <= MaxLevel; lvl++ {
		l := float64(lvl)
		t[lvl] = progressionRow{
			constitution: uint32(100 + 25*l + 2*l*l),
			points:       uint32(5 * lvl),
		}
	}
	return t
}

// Constitution returns the health cap for a level, clamped to the table.
func Constitution(level uint8) uint32 {
	l := clampLevel(level)
	return progressionTable[l].constitution
}

// PointBudget returns the total stat points a hero at level may allocate
// across strength/defense/intelligence/mana.
func PointBudget(level uint8) uint32 {
	l := clampLevel(level)
	return progressionTable[l].points
}

func clampLevel(level uint8) uint8 {
	if int(level) > MaxLevel {
		return MaxLevel
	}
	return level
}

// growthFactor converts allocated points into a flat stat bonus: each
// point is worth a fraction of a base unit, rounded down.
const growthFactor = 0.5

// StatValue implements stat(x, kind) = base + floor(points*growthFactor).
func StatValue(base int32, points uint32) int32 {
	return base + int32(math.Floor(float64(points)*growthFactor))
}
