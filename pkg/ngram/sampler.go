package ngram

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
)

// Sampler draws generated sequences from an immutable Model using its own
// random source. A Sampler is not safe for concurrent use; for parallel
// generation, give each goroutine its own Sampler with an independently
// seeded source.
type Sampler[S cmp.Ordered] struct {
	m   *Model[S]
	rng *rand.Rand
}

// NewSampler creates a sampler over the model. Passing a nil source selects
// a PCG source seeded from the shared generator; pass an explicit seeded
// source for reproducible output.
func NewSampler[S cmp.Ordered](m *Model[S], rng *rand.Rand) *Sampler[S] {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Sampler[S]{m: m, rng: rng}
}

// NewSeededSampler creates a sampler with a PCG source seeded from the given
// value, so that identical models and seeds generate identical sequences.
func NewSeededSampler[S cmp.Ordered](m *Model[S], seed uint64) *Sampler[S] {
	return NewSampler(m, rand.New(rand.NewPCG(seed, seed)))
}

// sampleOptions configures one Sequences call.
type sampleOptions struct {
	unique          bool
	excludeTraining bool
	targetLength    int
	corpusLength    bool
}

// SampleOption configures a sampling call. Options are passed as variadic
// arguments to Sequences.
type SampleOption func(*sampleOptions)

// WithUnique discards duplicates of sequences already returned by the same
// call. When the retry budget runs out before enough unique sequences are
// found, Sequences fails with ErrInsufficientSequences.
func WithUnique() SampleOption {
	return func(o *sampleOptions) { o.unique = true }
}

// WithExcludeTraining discards generated sequences that appear verbatim in
// the training data.
func WithExcludeTraining() SampleOption {
	return func(o *sampleOptions) { o.excludeTraining = true }
}

// WithTargetLength asks the walk to keep going until the generated sequence
// has at least n symbols before it becomes willing to stop. Best effort: a
// forced stop at a dead end can still produce a shorter sequence.
func WithTargetLength(n int) SampleOption {
	return func(o *sampleOptions) { o.targetLength = n }
}

// WithCorpusLength draws a target length for each sequence from the training
// data's length distribution, weighted by sequence frequency. Overrides
// WithTargetLength.
func WithCorpusLength() SampleOption {
	return func(o *sampleOptions) { o.corpusLength = true }
}

// Sequence generates a single sequence.
func (s *Sampler[S]) Sequence(opts ...SampleOption) ([]S, error) {
	out, err := s.Sequences(1, opts...)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// Sequences generates count sequences. Each walk starts at a uniformly
// chosen feasible start vertex, picks successors weighted by observed
// adjacency frequency among those that keep an end vertex reachable, and
// stops at end-qualifying vertices according to the model's stop policy.
// The whole call is bounded by the model's per-sequence attempt budget.
func (s *Sampler[S]) Sequences(count int, opts ...SampleOption) ([][]S, error) {
	if count < 1 {
		return nil, fmt.Errorf("ngram: sequence count must be at least 1, got %d", count)
	}
	options := &sampleOptions{}
	for _, opt := range opts {
		opt(options)
	}

	budget := s.m.cfg.MaxAttempts * count
	results := make([][]S, 0, count)
	seen := make(map[string]struct{}, count)

	attempts := 0
	for ; len(results) < count && attempts < budget; attempts++ {
		target := options.targetLength
		if options.corpusLength {
			target = s.corpusTargetLength()
		}

		path, err := s.walk(target)
		if errors.Is(err, errWalkOverrun) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if options.unique || options.excludeTraining {
			key := s.pathKey(path)
			if options.excludeTraining {
				if _, inCorpus := s.m.an.seqWeights[key]; inCorpus {
					continue
				}
			}
			if options.unique {
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
		}
		results = append(results, s.m.symbolsFor(path))
	}

	if len(results) < count {
		return nil, fmt.Errorf("%w: %d of %d after %d attempts",
			ErrInsufficientSequences, len(results), count, attempts)
	}

	s.m.logger.Debug("sequences generated",
		slog.Int("count", count),
		slog.Int("attempts", attempts),
		slog.Bool("unique", options.unique),
	)
	return results, nil
}

// walk performs one constrained random walk and returns the vertex path.
// The stop policy: at an end-qualifying vertex the walk stops with the
// configured probability (or once the target length is met, when one is
// set), and always stops when no productive successor remains. Walks longer
// than the cap return errWalkOverrun and are retried by the caller.
func (s *Sampler[S]) walk(targetLength int) ([]int, error) {
	g := s.m.g
	cur := g.feasibleStarts[s.rng.IntN(len(g.feasibleStarts))]
	path := []int{cur}

	targetVerts := 0
	if targetLength > 0 {
		targetVerts = targetLength - s.m.cfg.Order + 1
	}

	for len(path) <= s.m.cfg.MaxWalkLength {
		v := &g.verts[cur]
		productive := g.productive(cur)

		if v.isEnd {
			// Continuing past an end vertex makes it an intermediate hop,
			// which only its interior qualification permits. The walk
			// origin is covered by the start role instead.
			mayContinue := len(productive) > 0 && (len(path) == 1 || v.isInterior)
			if !mayContinue {
				return path, nil
			}
			if targetVerts > 0 {
				if len(path) >= targetVerts {
					return path, nil
				}
			} else if s.rng.Float64() < s.m.cfg.StopProbability {
				return path, nil
			}
		} else if len(productive) == 0 {
			// The reachability closure promised a way out; disagreeing here
			// means a bug in this package, not bad input.
			return nil, fmt.Errorf("%w: at %q after %d steps", ErrWalkStuck, v.key, len(path))
		}

		cur = s.pickWeighted(productive)
		path = append(path, cur)
	}
	return nil, errWalkOverrun
}

// pickWeighted selects a successor edge weighted by its observed adjacency
// count.
func (s *Sampler[S]) pickWeighted(edges []edge) int {
	total := 0
	for _, e := range edges {
		total += e.weight
	}
	r := s.rng.IntN(total)
	for _, e := range edges {
		r -= e.weight
		if r < 0 {
			return e.to
		}
	}
	return edges[len(edges)-1].to
}

// corpusTargetLength draws a sequence length from the training length
// distribution, weighted by sequence frequency, considering only lengths
// that can hold at least one n-gram.
func (s *Sampler[S]) corpusTargetLength() int {
	lengths := make([]int, 0, len(s.m.an.lengthWeights))
	total := 0
	for l, w := range s.m.an.lengthWeights {
		if l >= s.m.cfg.Order {
			lengths = append(lengths, l)
			total += w
		}
	}
	if total == 0 {
		return 0
	}
	sort.Ints(lengths)
	r := s.rng.IntN(total)
	for _, l := range lengths {
		r -= s.m.an.lengthWeights[l]
		if r < 0 {
			return l
		}
	}
	return lengths[len(lengths)-1]
}

// pathKey builds a deduplication key for the generated symbol sequence.
func (s *Sampler[S]) pathKey(path []int) string {
	g := s.m.g
	ids := make([]int, 0, s.m.cfg.Order+len(path)-1)
	ids = append(ids, g.verts[path[0]].ids...)
	for _, i := range path[1:] {
		vids := g.verts[i].ids
		ids = append(ids, vids[len(vids)-1])
	}
	return gramKey(ids)
}
