package entity

import "testing"

func TestConstitutionGrowsWithLevel(t *testing.T) {
	if Constitution(1) >= Constitution(10) {
		t.Errorf("expected constitution to grow with level")
	}
}

func TestPointBudgetZeroAtLevelZero(t *testing.T) {
	if PointBudget(0) != 0 {
		t.Errorf("expected zero point budget at level 0, got %d", PointBudget(0))
	}
}

func TestLevelClampsAtMax(t *testing.T) {
	if Constitution(255) != Constitution(MaxLevel) {
		t.Errorf("expected out-of-range level to clamp to max level value")
	}
}

func TestStatValueFloorsGrowth(t *testing.T) {
	// 3 points * 0.5 growth = 1.5, floored to 1.
	if got := StatValue(10, 3); got != 11 {
		t.Errorf("expected floor(3*0.5)=1 added to base 10 = 11, got %d", got)
	}
}
