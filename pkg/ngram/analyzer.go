package ngram

import (
	"cmp"
	"strconv"
	"strings"
)

// Role identifies where an n-gram occurrence sits inside its training
// sequence. A single distinct n-gram can hold counts under several roles if
// it shows up in different positions across sequences.
type Role int

const (
	// RoleInterior tags an n-gram that is neither the first nor the last
	// window of its sequence.
	RoleInterior Role = iota
	// RoleLeading tags the first window of a sequence.
	RoleLeading
	// RoleTrailing tags the last window of a sequence.
	RoleTrailing

	numRoles = 3
)

// String returns the role name used in errors and logs.
func (r Role) String() string {
	switch r {
	case RoleInterior:
		return "interior"
	case RoleLeading:
		return "leading"
	case RoleTrailing:
		return "trailing"
	default:
		return "unknown"
	}
}

// Analyzer scans training sequences and accumulates n-gram occurrence counts
// per role, observed window adjacencies, and sequence length frequencies.
// Symbols are interned to integer IDs so that n-grams of any symbol type can
// be keyed and compared cheaply.
//
// Accumulation is a commutative fold: the order in which sequences are added
// never affects the resulting counts.
type Analyzer[S cmp.Ordered] struct {
	order int

	symIDs  map[S]int
	symbols []S

	// grams maps an n-gram key to its interned symbol IDs.
	grams  map[string][]int
	counts [numRoles]map[string]int

	// adjacency counts how often gram A was immediately followed by gram B
	// in some training sequence. It is the only source of graph edges.
	adjacency map[string]map[string]int

	// lengthWeights maps a sequence length to the total weight of training
	// sequences of that length.
	lengthWeights map[int]int

	// seqWeights maps a full-sequence key to its accumulated weight, used
	// to filter training sequences out of unique sampling.
	seqWeights map[string]int

	totalWeight int
	gramTotal   int
}

// NewAnalyzer creates an Analyzer for n-grams of the given order. The order
// must be at least 1.
func NewAnalyzer[S cmp.Ordered](order int) (*Analyzer[S], error) {
	if order < 1 {
		return nil, ErrInvalidOrder
	}
	a := &Analyzer[S]{
		order:         order,
		symIDs:        make(map[S]int),
		grams:         make(map[string][]int),
		adjacency:     make(map[string]map[string]int),
		lengthWeights: make(map[int]int),
		seqWeights:    make(map[string]int),
	}
	for i := range a.counts {
		a.counts[i] = make(map[string]int)
	}
	return a, nil
}

// Order returns the n-gram order this analyzer extracts.
func (a *Analyzer[S]) Order() int { return a.order }

// Add records one occurrence of a training sequence. Sequences shorter than
// the order contribute to length statistics but produce no n-grams; that is
// a normal case, not an error.
func (a *Analyzer[S]) Add(seq []S) error {
	return a.AddWeighted(seq, 1)
}

// AddWeighted records a training sequence with an occurrence weight, as if
// Add had been called weight times. The weight must be at least 1.
func (a *Analyzer[S]) AddWeighted(seq []S, weight int) error {
	if weight < 1 {
		return ErrInvalidWeight
	}

	ids := make([]int, len(seq))
	for i, s := range seq {
		ids[i] = a.intern(s)
	}

	a.totalWeight += weight
	a.lengthWeights[len(seq)] += weight
	a.seqWeights[gramKey(ids)] += weight

	windows := len(seq) - a.order + 1
	if windows < 1 {
		return nil
	}

	var prevKey string
	for i := 0; i < windows; i++ {
		gram := ids[i : i+a.order]
		key := gramKey(gram)
		if _, ok := a.grams[key]; !ok {
			stored := make([]int, a.order)
			copy(stored, gram)
			a.grams[key] = stored
		}

		// The first window is leading and the last is trailing; a sequence
		// of exactly order symbols records its single window under both.
		interior := true
		if i == 0 {
			a.counts[RoleLeading][key] += weight
			interior = false
		}
		if i == windows-1 {
			a.counts[RoleTrailing][key] += weight
			interior = false
		}
		if interior {
			a.counts[RoleInterior][key] += weight
		}
		a.gramTotal += weight

		if i > 0 {
			next, ok := a.adjacency[prevKey]
			if !ok {
				next = make(map[string]int)
				a.adjacency[prevKey] = next
			}
			next[key] += weight
		}
		prevKey = key
	}
	return nil
}

// Count returns the accumulated occurrence count of a gram under a role, or
// zero if the gram was never observed in that role.
func (a *Analyzer[S]) Count(role Role, gram []S) int {
	if len(gram) != a.order || role < 0 || role >= numRoles {
		return 0
	}
	key, ok := a.lookupKey(gram)
	if !ok {
		return 0
	}
	return a.counts[role][key]
}

// TotalWeight returns the summed weight of all added sequences.
func (a *Analyzer[S]) TotalWeight() int { return a.totalWeight }

// LengthWeights returns a copy of the sequence length to total weight
// mapping observed in the training data.
func (a *Analyzer[S]) LengthWeights() map[int]int {
	out := make(map[int]int, len(a.lengthWeights))
	for k, v := range a.lengthWeights {
		out[k] = v
	}
	return out
}

// roleCountsAt returns per-role counts and gram IDs at the given order. The
// analyzer's own order is served from the accumulated tables; shorter orders
// are recomputed from the retained training sequences, windowed exactly the
// way AddWeighted windows them.
func (a *Analyzer[S]) roleCountsAt(order int) ([numRoles]map[string]int, map[string][]int) {
	if order == a.order {
		return a.counts, a.grams
	}

	var counts [numRoles]map[string]int
	for i := range counts {
		counts[i] = make(map[string]int)
	}
	grams := make(map[string][]int)

	for seqKey, weight := range a.seqWeights {
		ids := keyIDs(seqKey)
		windows := len(ids) - order + 1
		if windows < 1 {
			continue
		}
		for i := 0; i < windows; i++ {
			gram := ids[i : i+order]
			key := gramKey(gram)
			if _, ok := grams[key]; !ok {
				stored := make([]int, order)
				copy(stored, gram)
				grams[key] = stored
			}
			interior := true
			if i == 0 {
				counts[RoleLeading][key] += weight
				interior = false
			}
			if i == windows-1 {
				counts[RoleTrailing][key] += weight
				interior = false
			}
			if interior {
				counts[RoleInterior][key] += weight
			}
		}
	}
	return counts, grams
}

// intern maps a symbol to its stable integer ID, assigning one on first use.
func (a *Analyzer[S]) intern(s S) int {
	if id, ok := a.symIDs[s]; ok {
		return id
	}
	id := len(a.symbols)
	a.symIDs[s] = id
	a.symbols = append(a.symbols, s)
	return id
}

// lookupKey builds the key for a gram without interning unseen symbols.
func (a *Analyzer[S]) lookupKey(gram []S) (string, bool) {
	ids := make([]int, len(gram))
	for i, s := range gram {
		id, ok := a.symIDs[s]
		if !ok {
			return "", false
		}
		ids[i] = id
	}
	return gramKey(ids), true
}

// keyIDs parses a space-joined key back into interned symbol IDs.
func keyIDs(key string) []int {
	if key == "" {
		return nil
	}
	parts := strings.Split(key, " ")
	ids := make([]int, len(parts))
	for i, p := range parts {
		ids[i], _ = strconv.Atoi(p)
	}
	return ids
}

// gramKey renders interned symbol IDs as a space-joined string key.
func gramKey(ids []int) string {
	var buf []byte
	for i, id := range ids {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendInt(buf, int64(id), 10)
	}
	return string(buf)
}
