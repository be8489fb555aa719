package ngram

import "errors"

var (
	// ErrInvalidOrder is returned when an n-gram order below 1 is requested.
	ErrInvalidOrder = errors.New("ngram: order must be at least 1")

	// ErrInvalidBound is returned when a percentile bound is malformed,
	// either outside [0, 100] or with a lower percentile above the upper.
	ErrInvalidBound = errors.New("ngram: invalid percentile bound")

	// ErrInvalidWeight is returned when a training sequence is added with a
	// weight below 1.
	ErrInvalidWeight = errors.New("ngram: sequence weight must be at least 1")

	// ErrNoTrainingData is returned when a model is built from an analyzer
	// that produced no n-grams, either because no sequences were added or
	// because every sequence was shorter than the order.
	ErrNoTrainingData = errors.New("ngram: no training data")

	// ErrEmptyQualifyingSet is returned at model build when the percentile
	// band for some role selects zero n-grams. The wrapping error names the
	// role.
	ErrEmptyQualifyingSet = errors.New("ngram: empty qualifying set")

	// ErrNoFeasiblePath is returned at model build when no start-qualifying
	// vertex can reach any end-qualifying vertex. It is a property of the
	// whole configuration, not of an individual sampling call.
	ErrNoFeasiblePath = errors.New("ngram: no feasible path from start to end vertices")

	// ErrInsufficientSequences is returned by a sampling call when the
	// bounded retry budget runs out before the requested number of
	// sequences is produced. With unique sampling this usually means the
	// qualifying graph is too small to support the request.
	ErrInsufficientSequences = errors.New("ngram: retry budget exhausted before enough sequences were generated")

	// ErrWalkStuck reports a walk that reached a vertex with no productive
	// successor despite the reachability precomputation. It indicates a bug
	// in this package, never bad caller input, and is checked defensively.
	ErrWalkStuck = errors.New("ngram: walk stuck at a vertex with no productive successor")
)

// errWalkOverrun aborts a single walk that exceeded the length cap; the
// sampler retries it against the attempt budget.
var errWalkOverrun = errors.New("ngram: walk exceeded the maximum length")
