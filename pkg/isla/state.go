package isla

// SolutionState is the pair (Formula, Tree) plus a per-quantifier record of
// already-matched tree node ids (§3), the unit enqueued and dequeued by the
// solver loop. SolutionStates are values produced by rewrite: each With*
// method returns a new SolutionState, never mutates the receiver in place.
type SolutionState struct {
	Formula        Formula
	Tree           *Tree
	AlreadyMatched map[QuantifierID]map[int64]bool
}

// NewSolutionState builds an initial SolutionState with an empty
// already-matched record.
func NewSolutionState(f Formula, t *Tree) SolutionState {
	return SolutionState{Formula: f, Tree: t, AlreadyMatched: map[QuantifierID]map[int64]bool{}}
}

// IsMatched reports whether nodeID has already been matched for quantifier
// qid in this state.
func (s SolutionState) IsMatched(qid QuantifierID, nodeID int64) bool {
	set, ok := s.AlreadyMatched[qid]
	return ok && set[nodeID]
}

// WithMatch returns a new SolutionState identical to s but with nodeID
// additionally recorded as matched for qid.
func (s SolutionState) WithMatch(qid QuantifierID, nodeID int64) SolutionState {
	newMatched := make(map[QuantifierID]map[int64]bool, len(s.AlreadyMatched))
	for q, set := range s.AlreadyMatched {
		newSet := make(map[int64]bool, len(set))
		for id := range set {
			newSet[id] = true
		}
		newMatched[q] = newSet
	}
	if newMatched[qid] == nil {
		newMatched[qid] = map[int64]bool{}
	}
	newMatched[qid][nodeID] = true
	return SolutionState{Formula: s.Formula, Tree: s.Tree, AlreadyMatched: newMatched}
}

// WithFormula returns a new SolutionState with a different Formula,
// keeping Tree and AlreadyMatched.
func (s SolutionState) WithFormula(f Formula) SolutionState {
	return SolutionState{Formula: f, Tree: s.Tree, AlreadyMatched: s.AlreadyMatched}
}

// WithTree returns a new SolutionState with a different Tree, keeping
// Formula and AlreadyMatched (callers that invalidate matches recorded
// against nodes no longer in the new tree should instead rebuild
// AlreadyMatched explicitly; expansion/insertion never removes existing
// node ids from a tree, so stale entries remain harmlessly unreachable).
func (s SolutionState) WithTree(t *Tree) SolutionState {
	return SolutionState{Formula: s.Formula, Tree: t, AlreadyMatched: s.AlreadyMatched}
}

// Key returns a string uniquely determined by (Formula, Tree)'s structure,
// used for the queue's structural deduplication (§3, §5).
func (s SolutionState) Key() string {
	return s.Tree.StructuralKey() + "##" + s.Formula.String()
}
