package ngram

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"sort"
)

const (
	// DefaultStopProbability is the chance of ending the walk at each visit
	// to an end-qualifying vertex when no stop probability is configured.
	DefaultStopProbability = 0.5
	// DefaultMaxWalkLength caps the number of vertices in a single walk
	// when no cap is configured; walks hitting the cap are retried.
	DefaultMaxWalkLength = 1024
	// DefaultMaxAttempts is the per-requested-sequence retry budget when
	// none is configured.
	DefaultMaxAttempts = 100
)

// Config describes one generation configuration: the n-gram order, the
// percentile bands per role, and the sampling policy knobs. A Model is built
// once per Config and is immutable afterwards; changing any of these values
// means building a new Model.
type Config struct {
	// Order is the n-gram length N. Must be at least 1.
	Order int

	// Bounds are the percentile bands applied to the interior, start, and
	// end count distributions.
	Bounds Bounds

	// SubBounds optionally adds percentile bands at shorter n-gram lengths,
	// keyed by length in [1, Order-1]. An n-gram then qualifies for a role
	// only if its sub-n-grams at every bounded length qualify under that
	// length's band too: the prefix for the start role, the suffix for the
	// end role, and every window for the interior role. Lengths constrain
	// each other ascending, so a band at length 1 also narrows a band at
	// length 2 before either reaches the full-order sets.
	SubBounds map[int]Bounds

	// StopProbability is the chance of terminating the walk at each visit
	// to an end-qualifying vertex. Must be in (0, 1]; zero selects
	// DefaultStopProbability.
	StopProbability float64

	// MaxWalkLength caps the vertex count of a single walk. Walks that hit
	// the cap are aborted and retried, which together with MaxAttempts
	// guarantees termination. Zero selects DefaultMaxWalkLength.
	MaxWalkLength int

	// MaxAttempts is the walk retry budget per requested sequence. Zero
	// selects DefaultMaxAttempts.
	MaxAttempts int
}

func (c Config) withDefaults() Config {
	if c.StopProbability == 0 {
		c.StopProbability = DefaultStopProbability
	}
	if c.MaxWalkLength == 0 {
		c.MaxWalkLength = DefaultMaxWalkLength
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

func (c Config) validate() error {
	if c.Order < 1 {
		return ErrInvalidOrder
	}
	if err := c.Bounds.validate(); err != nil {
		return err
	}
	for length, b := range c.SubBounds {
		if length < 1 || length >= c.Order {
			return fmt.Errorf("%w: sub-band length %d outside [1, %d]", ErrInvalidBound, length, c.Order-1)
		}
		if err := b.validate(); err != nil {
			return fmt.Errorf("length %d: %w", length, err)
		}
	}
	if c.StopProbability < 0 || c.StopProbability > 1 {
		return fmt.Errorf("%w: stop probability %v outside (0, 1]", ErrInvalidBound, c.StopProbability)
	}
	if c.MaxWalkLength < 0 || c.MaxAttempts < 0 {
		return fmt.Errorf("%w: negative walk length or attempt budget", ErrInvalidBound)
	}
	return nil
}

// Model is an immutable generation configuration: the frequency table, the
// qualifying sets, the n-gram graph, and its reachability closure, built
// once and shared read-only by any number of Samplers.
type Model[S cmp.Ordered] struct {
	cfg    Config
	an     *Analyzer[S]
	g      *graph
	sets   [numRoles]map[string]struct{}
	logger *slog.Logger
}

// NewModel analyzes the given training sequences and builds a model for the
// configuration. It fails with a configuration error for a bad order or
// bounds, ErrEmptyQualifyingSet when a band selects no n-grams for a role,
// and ErrNoFeasiblePath when the start and end sets are disconnected.
func NewModel[S cmp.Ordered](cfg Config, seqs ...[]S) (*Model[S], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	a, err := NewAnalyzer[S](cfg.Order)
	if err != nil {
		return nil, err
	}
	for _, seq := range seqs {
		if err := a.Add(seq); err != nil {
			return nil, err
		}
	}
	return NewModelFromAnalyzer(cfg, a)
}

// NewModelFromAnalyzer builds a model from an already-populated Analyzer,
// which allows weighted training sequences. The analyzer's order must match
// the configuration and it is not mutated afterwards.
func NewModelFromAnalyzer[S cmp.Ordered](cfg Config, a *Analyzer[S]) (*Model[S], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if a.Order() != cfg.Order {
		return nil, fmt.Errorf("%w: analyzer order %d does not match config order %d",
			ErrInvalidOrder, a.Order(), cfg.Order)
	}
	if a.gramTotal == 0 {
		return nil, ErrNoTrainingData
	}
	cfg = cfg.withDefaults()

	m := &Model[S]{
		cfg:    cfg,
		an:     a,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, rb := range []struct {
		role  Role
		bound Bound
	}{
		{RoleInterior, cfg.Bounds.Interior},
		{RoleLeading, cfg.Bounds.Start},
		{RoleTrailing, cfg.Bounds.End},
	} {
		set := qualifyingSet(a.counts[rb.role], rb.bound)
		// A role with no occurrences at all (interior, when every training
		// sequence is exactly order symbols long) is fine: walks just have
		// no intermediate hops. A band that selects nothing from an
		// occupied role is a configuration problem.
		if len(set) == 0 && len(a.counts[rb.role]) > 0 {
			return nil, fmt.Errorf("%w: %s role", ErrEmptyQualifyingSet, rb.role)
		}
		m.sets[rb.role] = set
	}

	if len(cfg.SubBounds) > 0 {
		if err := m.applySubBounds(); err != nil {
			return nil, err
		}
	}

	m.g = buildGraph(a, m.sets[RoleInterior], m.sets[RoleLeading], m.sets[RoleTrailing])
	if len(m.g.feasibleStarts) == 0 {
		return nil, ErrNoFeasiblePath
	}

	m.logger.Debug("model built",
		slog.Int("order", cfg.Order),
		slog.Int("vertices", len(m.g.verts)),
		slog.Int("edges", m.g.edgeCount),
		slog.Int("feasible_starts", len(m.g.feasibleStarts)),
	)
	return m, nil
}

// applySubBounds narrows the qualifying sets by the configured shorter
// n-gram bands. Bounded lengths are processed ascending, each filtered set
// constraining the next, and the last one constraining the full-order sets,
// so every bounded length has to hold transitively.
func (m *Model[S]) applySubBounds() error {
	lengths := make([]int, 0, len(m.cfg.SubBounds))
	for n := range m.cfg.SubBounds {
		lengths = append(lengths, n)
	}
	sort.Ints(lengths)

	var prev [numRoles]map[string]struct{}
	prevLen := 0
	for _, n := range lengths {
		counts, grams := m.an.roleCountsAt(n)
		sb := m.cfg.SubBounds[n]
		for _, rb := range []struct {
			role  Role
			bound Bound
		}{
			{RoleInterior, sb.Interior},
			{RoleLeading, sb.Start},
			{RoleTrailing, sb.End},
		} {
			set := qualifyingSet(counts[rb.role], rb.bound)
			if prevLen > 0 {
				filterByShorter(set, grams, prev[rb.role], prevLen, rb.role)
			}
			prev[rb.role] = set
		}
		prevLen = n
	}

	for role := RoleInterior; role < numRoles; role++ {
		filterByShorter(m.sets[role], m.an.grams, prev[role], prevLen, role)
		if len(m.sets[role]) == 0 && len(m.an.counts[role]) > 0 {
			return fmt.Errorf("%w: %s role after length %d band", ErrEmptyQualifyingSet, role, prevLen)
		}
	}
	return nil
}

// SetLogger sets the logger used by the model and its samplers. By default
// all logs are discarded.
func (m *Model[S]) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// Config returns the configuration the model was built with, with defaults
// filled in.
func (m *Model[S]) Config() Config { return m.cfg }

// Analyzer returns the frequency table the model was built from.
func (m *Model[S]) Analyzer() *Analyzer[S] { return m.an }

// QualifiesAs reports whether a gram is a member of the qualifying set for
// the given role.
func (m *Model[S]) QualifiesAs(role Role, gram []S) bool {
	if role < 0 || role >= numRoles || len(gram) != m.cfg.Order {
		return false
	}
	key, ok := m.an.lookupKey(gram)
	if !ok {
		return false
	}
	_, in := m.sets[role][key]
	return in
}

// ModelStats is a snapshot of the size of a built model.
type ModelStats struct {
	Vertices       int // n-grams in the union of the qualifying sets
	Edges          int // observed adjacencies between qualifying n-grams
	StartVertices  int // start-qualifying n-grams
	EndVertices    int // end-qualifying n-grams
	FeasibleStarts int // start-qualifying n-grams that can reach the end set
	TotalWeight    int // summed weight of all training sequences
}

// Stats returns size statistics for the built model.
func (m *Model[S]) Stats() ModelStats {
	return ModelStats{
		Vertices:       len(m.g.verts),
		Edges:          m.g.edgeCount,
		StartVertices:  len(m.g.starts),
		EndVertices:    len(m.g.ends),
		FeasibleStarts: len(m.g.feasibleStarts),
		TotalWeight:    m.an.totalWeight,
	}
}

// symbolsFor maps a path of vertex indexes back to the generated symbol
// sequence: the first n-gram's symbols followed by the last symbol of every
// subsequent n-gram.
func (m *Model[S]) symbolsFor(path []int) []S {
	out := make([]S, 0, m.cfg.Order+len(path)-1)
	for _, id := range m.g.verts[path[0]].ids {
		out = append(out, m.an.symbols[id])
	}
	for _, i := range path[1:] {
		ids := m.g.verts[i].ids
		out = append(out, m.an.symbols[ids[len(ids)-1]])
	}
	return out
}
