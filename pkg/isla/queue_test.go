package isla

import "testing"

func stateWithOpens(n int) SolutionState {
	children := make([]*Tree, n)
	for i := range children {
		children[i] = NewOpenLeaf(nt("<x>"))
	}
	tree := NewInner(nt("<root>"), children...)
	return NewSolutionState(TrueConst{}, tree)
}

func TestStateQueuePopsLowestCostFirst(t *testing.T) {
	q := NewStateQueue(DefaultWeightVector)
	big := stateWithOpens(5)
	small := stateWithOpens(1)

	q.Push(big)
	q.Push(small)

	got, ok := q.Pop()
	if !ok {
		t.Fatalf("Pop() on a 2-element queue returned ok=false")
	}
	if got.Tree.StructuralKey() != small.Tree.StructuralKey() {
		t.Errorf("Pop() returned the higher-cost state first; want the fewer-open-leaves state")
	}
}

func TestStateQueueFIFOTieBreak(t *testing.T) {
	q := NewStateQueue(WeightVector{})
	a := stateWithOpens(2)
	b := stateWithOpens(2)
	// Same cost (all weights zero): insertion order must break the tie.
	bTree := NewInner(nt("<root2>"), NewOpenLeaf(nt("<x>")), NewOpenLeaf(nt("<x>")))
	b = NewSolutionState(TrueConst{}, bTree)

	q.Push(a)
	q.Push(b)

	first, _ := q.Pop()
	if first.Tree.StructuralKey() != a.Tree.StructuralKey() {
		t.Errorf("Pop() with tied costs did not return the first-pushed state")
	}
	second, _ := q.Pop()
	if second.Tree.StructuralKey() != b.Tree.StructuralKey() {
		t.Errorf("Pop() with tied costs did not return the second-pushed state second")
	}
}

func TestStateQueueDedupesByKey(t *testing.T) {
	q := NewStateQueue(DefaultWeightVector)
	a := stateWithOpens(3)
	b := stateWithOpens(3) // structurally identical, distinct tree node ids

	if !q.Push(a) {
		t.Fatalf("Push() on a fresh queue returned false")
	}
	if q.Push(b) {
		t.Errorf("Push() of a structurally-identical state returned true; want dedup to drop it")
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d after pushing a duplicate, want 1", q.Len())
	}
}

func TestStateQueuePopEmpty(t *testing.T) {
	q := NewStateQueue(DefaultWeightVector)
	if _, ok := q.Pop(); ok {
		t.Errorf("Pop() on an empty queue returned ok=true")
	}
}
