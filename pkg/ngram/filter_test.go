package ngram

import (
	"sort"
	"testing"
)

func TestThresholdsNearestRank(t *testing.T) {
	testCases := []struct {
		name   string
		counts []int
		bound  Bound
		wantLo int
		wantHi int
	}{
		{"full band", []int{1, 2, 3, 4}, Bound{0, 100}, 1, 4},
		{"upper half", []int{1, 2, 3, 4}, Bound{50, 100}, 2, 4},
		{"lower half", []int{1, 2, 3, 4}, Bound{0, 50}, 1, 2},
		{"fractional rank rounds up", []int{1, 2, 3, 4}, Bound{51, 100}, 3, 4},
		{"single count", []int{7}, Bound{0, 100}, 7, 7},
		{"point band", []int{1, 2, 3, 4}, Bound{75, 75}, 3, 3},
		{"zero low clamps to first", []int{5, 9}, Bound{0, 0}, 5, 5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lo, hi := thresholds(tc.counts, tc.bound)
			if lo != tc.wantLo || hi != tc.wantHi {
				t.Errorf("thresholds(%v, %v) = (%d, %d), want (%d, %d)",
					tc.counts, tc.bound, lo, hi, tc.wantLo, tc.wantHi)
			}
		})
	}
}

func TestQualifyingSetBoundaryInclusive(t *testing.T) {
	freq := map[string]int{"a": 1, "b": 2, "c": 3, "d": 4}

	// rank(25)=1 and rank(75)=3 over four counts, so the thresholds are
	// exactly 1 and 3 and both ends must be included.
	set := qualifyingSet(freq, Bound{25, 75})
	want := []string{"a", "b", "c"}
	if len(set) != len(want) {
		t.Fatalf("qualifying set size = %d, want %d", len(set), len(want))
	}
	for _, key := range want {
		if _, ok := set[key]; !ok {
			t.Errorf("key %q missing from qualifying set", key)
		}
	}
}

func TestQualifyingSetTiedCountsAllOrNothing(t *testing.T) {
	freq := map[string]int{"a": 1, "b": 2, "c": 2, "d": 5}

	// Membership is decided by count thresholds, so n-grams with equal
	// counts qualify or fail together regardless of map iteration order.
	// rank(30)=2 and rank(75)=3 over the sorted counts [1 2 2 5], giving
	// thresholds (2, 2).
	set := qualifyingSet(freq, Bound{30, 75})
	if _, ok := set["b"]; !ok {
		t.Error("b should qualify")
	}
	if _, ok := set["c"]; !ok {
		t.Error("c should qualify with the same count as b")
	}
	if _, ok := set["d"]; ok {
		t.Error("d should not qualify")
	}
}

func TestQualifyingSetEmptyInput(t *testing.T) {
	if set := qualifyingSet(map[string]int{}, FullBound()); len(set) != 0 {
		t.Errorf("empty frequency table produced %d members", len(set))
	}
}

func TestQualifyingSetSpecExample(t *testing.T) {
	// Start-role counts from training data ["A B C", "A B D", "X B C"]
	// with order 2: AB seen leading twice, XB once. A band that keeps only
	// counts >= 2 must select AB alone.
	a, _ := NewAnalyzer[string](2)
	for _, s := range seqs("A B C", "A B D", "X B C") {
		if err := a.Add(s); err != nil {
			t.Fatal(err)
		}
	}

	set := qualifyingSet(a.counts[RoleLeading], Bound{75, 100})
	if len(set) != 1 {
		t.Fatalf("start qualifying set size = %d, want 1", len(set))
	}
	key, _ := a.lookupKey([]string{"A", "B"})
	if _, ok := set[key]; !ok {
		t.Error("AB missing from start qualifying set")
	}
}

func TestBoundValidation(t *testing.T) {
	bad := []Bound{{-1, 50}, {0, 101}, {60, 40}}
	for _, b := range bad {
		if err := b.validate(); err == nil {
			t.Errorf("bound %v passed validation", b)
		}
	}
	good := []Bound{{0, 100}, {50, 50}, {0, 0}, {100, 100}}
	for _, b := range good {
		if err := b.validate(); err != nil {
			t.Errorf("bound %v failed validation: %v", b, err)
		}
	}
}

func TestThresholdsDoNotMutateInput(t *testing.T) {
	counts := []int{4, 1, 3, 2}
	sorted := append([]int(nil), counts...)
	sort.Ints(sorted)
	thresholds(sorted, Bound{0, 100})
	if sorted[0] != 1 || sorted[3] != 4 {
		t.Error("thresholds mutated its input")
	}
}
