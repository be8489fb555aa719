package ngram

import (
	"fmt"
	"sort"
)

// Bound is an inclusive percentile band over an n-gram count distribution.
// Both percentiles must lie in [0, 100] with Low <= High.
type Bound struct {
	Low  float64
	High float64
}

// FullBound admits every n-gram of a role.
func FullBound() Bound { return Bound{Low: 0, High: 100} }

func (b Bound) validate() error {
	if b.Low < 0 || b.High > 100 || b.Low > b.High {
		return fmt.Errorf("%w: [%v, %v]", ErrInvalidBound, b.Low, b.High)
	}
	return nil
}

// Bounds holds the percentile band applied to each occurrence role.
type Bounds struct {
	Interior Bound
	Start    Bound
	End      Bound
}

// UniformBounds applies the same band to all three roles.
func UniformBounds(low, high float64) Bounds {
	b := Bound{Low: low, High: high}
	return Bounds{Interior: b, Start: b, End: b}
}

func (b Bounds) validate() error {
	for _, rb := range []struct {
		role  Role
		bound Bound
	}{
		{RoleInterior, b.Interior},
		{RoleLeading, b.Start},
		{RoleTrailing, b.End},
	} {
		if err := rb.bound.validate(); err != nil {
			return fmt.Errorf("%s role: %w", rb.role, err)
		}
	}
	return nil
}

// filterByShorter removes from set every gram whose sub-grams of the shorter
// length are not members of the shorter qualifying set. What counts as a
// sub-gram depends on the role: the start role checks only the leading
// sub-gram, the end role only the trailing one, and the interior role every
// window. grams maps each key in set to its symbol IDs.
func filterByShorter(set map[string]struct{}, grams map[string][]int, shorter map[string]struct{}, shortLen int, role Role) {
	for key := range set {
		if !containsShorter(grams[key], shorter, shortLen, role) {
			delete(set, key)
		}
	}
}

func containsShorter(ids []int, shorter map[string]struct{}, n int, role Role) bool {
	switch role {
	case RoleLeading:
		_, ok := shorter[gramKey(ids[:n])]
		return ok
	case RoleTrailing:
		_, ok := shorter[gramKey(ids[len(ids)-n:])]
		return ok
	default:
		for i := 0; i+n <= len(ids); i++ {
			if _, ok := shorter[gramKey(ids[i:i+n])]; !ok {
				return false
			}
		}
		return true
	}
}

// thresholds computes the inclusive count cutoffs for a band using the
// nearest-rank method: for n counts sorted ascending, the threshold at
// percentile p is the count at rank clamp(ceil(p/100*n), 1, n). The method
// is fixed because it decides which n-grams qualify at exact boundary
// percentiles. The counts slice must be sorted and non-empty.
func thresholds(counts []int, b Bound) (lo, hi int) {
	n := len(counts)
	rank := func(p float64) int {
		r := int(p / 100 * float64(n))
		if float64(r) < p/100*float64(n) { // ceil for fractional ranks
			r++
		}
		if r < 1 {
			r = 1
		}
		if r > n {
			r = n
		}
		return r
	}
	return counts[rank(b.Low)-1], counts[rank(b.High)-1]
}

// qualifyingSet returns the keys of the n-grams whose count falls inside the
// band of the role's count distribution. The result is empty when the role
// recorded no n-grams at all.
func qualifyingSet(freq map[string]int, b Bound) map[string]struct{} {
	if len(freq) == 0 {
		return map[string]struct{}{}
	}
	counts := make([]int, 0, len(freq))
	for _, c := range freq {
		counts = append(counts, c)
	}
	sort.Ints(counts)
	lo, hi := thresholds(counts, b)

	set := make(map[string]struct{})
	for key, c := range freq {
		if c >= lo && c <= hi {
			set[key] = struct{}{}
		}
	}
	return set
}
