package isla

import "container/heap"

// Cost computes a SolutionState's priority (§6): lower costs are explored
// first. The default cost function combines the five weights of a
// WeightVector with five cheap structural signals — tree size, open-leaf
// count, remaining-quantifier count, formula size, and tree depth — mirroring
// the "weighted cost vector over syntactic features" scheme of §6 rather
// than anything semantic (semantic cost would require re-evaluating the
// formula on every enqueue, which the search loop already avoids).
func Cost(s SolutionState, w WeightVector) float64 {
	paths := s.Tree.Paths()
	opens := s.Tree.OpenLeaves()
	quantifiers := countQuantifiers(s.Formula)
	formulaSize := formulaNodeCount(s.Formula)
	depth := 0
	for _, p := range paths {
		if len(p) > depth {
			depth = len(p)
		}
	}
	return w[0]*float64(len(paths)) +
		w[1]*float64(len(opens)) +
		w[2]*float64(quantifiers) +
		w[3]*float64(formulaSize) +
		w[4]*float64(depth)
}

func countQuantifiers(f Formula) int {
	n := 0
	Transform(f, func(sub Formula) (Formula, bool) {
		switch sub.(type) {
		case ForallFormula, ExistsFormula, ForallIntFormula, ExistsIntFormula:
			n++
		}
		return sub, false
	})
	return n
}

func formulaNodeCount(f Formula) int {
	n := 0
	Transform(f, func(sub Formula) (Formula, bool) {
		n++
		return sub, false
	})
	return n
}

// queueItem wraps a SolutionState with its precomputed cost and insertion
// sequence number, the latter breaking cost ties in FIFO order (§6: "ties
// broken by arrival order") so the search is deterministic given a fixed
// Seed.
type queueItem struct {
	state SolutionState
	cost  float64
	seq   int64
	index int
}

// stateHeap is a container/heap.Interface ordering queueItems by (cost, seq).
type stateHeap []*queueItem

func (h stateHeap) Len() int { return len(h) }
func (h stateHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	return h[i].seq < h[j].seq
}
func (h stateHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *stateHeap) Push(x interface{}) {
	item := x.(*queueItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *stateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// StateQueue is the solver's worklist (§3, §6): a cost-ordered priority
// queue of SolutionStates with structural deduplication (a state whose
// Key() has already been enqueued, ever, is dropped rather than re-added —
// §5's termination argument depends on this, since otherwise structurally
// identical states reachable by different rewrite paths could cycle
// forever).
type StateQueue struct {
	heap    stateHeap
	weights WeightVector
	seen    map[string]bool
	nextSeq int64
}

// NewStateQueue builds an empty StateQueue that costs states with w.
func NewStateQueue(w WeightVector) *StateQueue {
	q := &StateQueue{weights: w, seen: map[string]bool{}}
	heap.Init(&q.heap)
	return q
}

// Push enqueues s unless a structurally identical state (per Key()) has
// already been pushed. Returns true if s was actually enqueued.
func (q *StateQueue) Push(s SolutionState) bool {
	key := s.Key()
	if q.seen[key] {
		return false
	}
	q.seen[key] = true
	item := &queueItem{state: s, cost: Cost(s, q.weights), seq: q.nextSeq}
	q.nextSeq++
	heap.Push(&q.heap, item)
	return true
}

// Pop removes and returns the lowest-cost SolutionState, or ok=false if the
// queue is empty.
func (q *StateQueue) Pop() (SolutionState, bool) {
	if q.heap.Len() == 0 {
		return SolutionState{}, false
	}
	item := heap.Pop(&q.heap).(*queueItem)
	return item.state, true
}

// Len reports the number of states currently enqueued.
func (q *StateQueue) Len() int { return q.heap.Len() }
