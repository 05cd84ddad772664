package dispatch

// TowerActive reports whether a tower at the given tetra sub/area is open
// for entry/exit right now. This is a pure function of tile identity and
// wall-clock minute, deliberately uncached and unstored: activity windows
// are staggered per-tile so the whole map doesn't open and close in
// lockstep, and recomputing is cheaper than tracking a timer per tower.
func TowerActive(area uint8, sub uint32, nowMinutes int64) bool {
	phase := (nowMinutes + int64(sub+uint32(area))*10) % 360
	if phase < 0 {
		phase += 360
	}
	return phase > 60
}
