package position

import "testing"

func approxEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestWeightedAverageEntrySingleFill(t *testing.T) {
	got := WeightedAverageEntry([]Fill{{Qty: 1, Price: 100}})
	if got != 100 {
		t.Errorf("got %v, want 100", got)
	}
}

func TestWeightedAverageEntryMatchesSpecExample(t *testing.T) {
	// S2 fixture: 0.02 @ 4366.87 then 0.0166 @ 4494.89 -> ~4424.93
	got := WeightedAverageEntry([]Fill{{Qty: 0.02, Price: 4366.87}, {Qty: 0.0166, Price: 4494.89}})
	if !approxEqual(got, 4424.93, 0.01) {
		t.Errorf("got %v, want ~4424.93", got)
	}
}

func TestWeightedAverageEntryAssociative(t *testing.T) {
	fills := []Fill{
		{Qty: 0.01, Price: 100},
		{Qty: 0.02, Price: 110},
		{Qty: 0.015, Price: 95},
		{Qty: 0.03, Price: 120},
	}
	whole := WeightedAverageEntry(fills)

	// Group into two halves, average each group, then recombine weighted
	// by each group's total quantity — must match the all-at-once average.
	groupA := fills[:2]
	groupB := fills[2:]
	entryA := WeightedAverageEntry(groupA)
	entryB := WeightedAverageEntry(groupB)
	qtyA := groupA[0].Qty + groupA[1].Qty
	qtyB := groupB[0].Qty + groupB[1].Qty
	recombined := (qtyA*entryA + qtyB*entryB) / (qtyA + qtyB)

	if !approxEqual(whole, recombined, 1e-9) {
		t.Errorf("associativity violated: whole=%v recombined=%v", whole, recombined)
	}
}

func TestCombineEntryMatchesWeightedAverageEntry(t *testing.T) {
	qty, entry := CombineEntry(0.02, 4366.87, Fill{Qty: 0.0166, Price: 4494.89})
	wantQty := 0.0366
	if !approxEqual(qty, wantQty, 1e-9) {
		t.Errorf("qty = %v, want %v", qty, wantQty)
	}
	if !approxEqual(entry, 4424.93, 0.01) {
		t.Errorf("entry = %v, want ~4424.93", entry)
	}
}

func TestCostBasisAccumulatesAndReleases(t *testing.T) {
	got := CostBasis(100, 50, 30, 20)
	want := 160.0
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestROIPositiveWhenValueExceedsCommitted(t *testing.T) {
	got := ROI(150, 100, 0)
	if !approxEqual(got, 0.5, 1e-9) {
		t.Errorf("got %v, want 0.5", got)
	}
}

func TestROIZeroCommittedIsZero(t *testing.T) {
	got := ROI(100, 0, 0)
	if got != 0 {
		t.Errorf("got %v, want 0 to avoid divide-by-zero", got)
	}
}
