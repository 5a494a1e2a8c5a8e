package exchange

import "testing"

func TestRoundDownToStep(t *testing.T) {
	cases := []struct {
		qty, step, want float64
	}{
		{1.23456, 0.001, 1.234},
		{1.0, 0, 1.0},
		{0.0009, 0.001, 0},
	}
	for _, c := range cases {
		got := RoundDownToStep(c.qty, c.step)
		if got != c.want {
			t.Errorf("RoundDownToStep(%v, %v) = %v, want %v", c.qty, c.step, got, c.want)
		}
	}
}

func TestRoundToTick(t *testing.T) {
	got := RoundToTick(100.456, 0.01)
	if got != 100.46 {
		t.Errorf("RoundToTick = %v, want 100.46", got)
	}
}

func TestCheckMinNotional(t *testing.T) {
	filters := SymbolFilters{MinNotional: 10}
	if !CheckMinNotional(filters, 1, 20) {
		t.Error("expected 20 notional to clear a 10 minimum")
	}
	if CheckMinNotional(filters, 0.1, 20) {
		t.Error("expected 2 notional to fail a 10 minimum")
	}
	if !CheckMinNotional(SymbolFilters{}, 0.0001, 1) {
		t.Error("expected zero MinNotional to always pass")
	}
}
