package ngram

import (
	"cmp"
	"sort"
)

// vertex is a qualifying n-gram together with the roles it qualifies under
// and its observed outgoing edges.
type vertex struct {
	key string
	ids []int

	isInterior bool
	isStart    bool
	isEnd      bool

	succ []edge
	pred []int

	// canReach marks vertices from which some end-qualifying vertex is
	// reachable through interior-qualifying intermediates.
	canReach bool
}

// edge points at a successor vertex with the observed adjacency count as its
// weight.
type edge struct {
	to     int
	weight int
}

// graph is the directed n-gram graph derived from the qualifying sets. It is
// a pure function of the training adjacencies and the three sets: rebuilding
// from identical inputs yields an identical graph.
type graph struct {
	verts []vertex
	index map[string]int

	starts         []int
	ends           []int
	feasibleStarts []int
	edgeCount      int
}

// buildGraph assembles vertices from the union of the qualifying sets and
// edges from the observed training adjacencies between union members.
// N-grams outside every qualifying set are excluded entirely, even when
// their symbols would overlap.
func buildGraph[S cmp.Ordered](a *Analyzer[S], interior, start, end map[string]struct{}) *graph {
	keys := make([]string, 0, len(interior)+len(start)+len(end))
	seen := make(map[string]struct{})
	for _, set := range []map[string]struct{}{interior, start, end} {
		for key := range set {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				keys = append(keys, key)
			}
		}
	}
	// Vertex IDs are assigned over sorted keys so rebuilds are identical.
	sort.Strings(keys)

	g := &graph{
		verts: make([]vertex, len(keys)),
		index: make(map[string]int, len(keys)),
	}
	for i, key := range keys {
		_, isInterior := interior[key]
		_, isStart := start[key]
		_, isEnd := end[key]
		g.verts[i] = vertex{
			key:        key,
			ids:        a.grams[key],
			isInterior: isInterior,
			isStart:    isStart,
			isEnd:      isEnd,
		}
		g.index[key] = i
		if isStart {
			g.starts = append(g.starts, i)
		}
		if isEnd {
			g.ends = append(g.ends, i)
		}
	}

	for i := range g.verts {
		v := &g.verts[i]
		for nextKey, weight := range a.adjacency[v.key] {
			j, ok := g.index[nextKey]
			if !ok {
				continue
			}
			v.succ = append(v.succ, edge{to: j, weight: weight})
		}
		sort.Slice(v.succ, func(x, y int) bool { return v.succ[x].to < v.succ[y].to })
		g.edgeCount += len(v.succ)
	}
	for i := range g.verts {
		for _, e := range g.verts[i].succ {
			g.verts[e.to].pred = append(g.verts[e.to].pred, i)
		}
	}

	g.computeReachability()
	return g
}

// computeReachability runs a reverse breadth-first search from the end set.
// A vertex can reach the end set when it is itself end-qualifying, or when
// it has an edge to an end vertex or to an interior-qualifying vertex that
// can reach the end set. Only interior vertices propagate further, because
// only they may serve as intermediate hops of a walk.
func (g *graph) computeReachability() {
	queue := make([]int, 0, len(g.ends))
	enqueued := make([]bool, len(g.verts))
	for _, i := range g.ends {
		g.verts[i].canReach = true
		queue = append(queue, i)
		enqueued[i] = true
	}
	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]
		for _, v := range g.verts[w].pred {
			g.verts[v].canReach = true
			if g.verts[v].isInterior && !enqueued[v] {
				enqueued[v] = true
				queue = append(queue, v)
			}
		}
	}

	for _, i := range g.starts {
		if g.verts[i].canReach {
			g.feasibleStarts = append(g.feasibleStarts, i)
		}
	}
}

// productive returns the successors of a vertex that keep the walk legal:
// either an end-qualifying terminal, or an interior-qualifying hop that
// still reaches the end set.
func (g *graph) productive(i int) []edge {
	var out []edge
	for _, e := range g.verts[i].succ {
		w := &g.verts[e.to]
		if w.isEnd || (w.isInterior && w.canReach) {
			out = append(out, e)
		}
	}
	return out
}
