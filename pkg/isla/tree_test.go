package isla

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTreeReplacePreservesSiblingIdentity(t *testing.T) {
	a := NewTerminalLeaf("a")
	b := NewOpenLeaf(NewNonterminalSymbol("<b>"))
	root := NewInner(NewNonterminalSymbol("<root>"), a, b)

	replacement := NewTerminalLeaf("replaced")
	next := root.Replace(Path{1}, replacement)

	if next.Children()[0] != a {
		t.Errorf("sibling at path 0 was not shared by pointer across Replace")
	}
	if next.Children()[1] != replacement {
		t.Errorf("Replace did not install the new subtree at the requested path")
	}
	if root.Children()[1] != b {
		t.Errorf("Replace mutated the receiver in place")
	}
}

func TestTreeReplaceOutOfRangeReturnsNil(t *testing.T) {
	root := NewInner(NewNonterminalSymbol("<root>"), NewTerminalLeaf("a"))
	if got := root.Replace(Path{5}, NewTerminalLeaf("x")); got != nil {
		t.Errorf("Replace with an out-of-range path = %v, want nil", got)
	}
	if got := root.Replace(Path{0, 0}, NewTerminalLeaf("x")); got != nil {
		t.Errorf("Replace past a terminal leaf = %v, want nil", got)
	}
}

func TestTreeGetRoundTripsWithPaths(t *testing.T) {
	leaf1 := NewTerminalLeaf("x")
	leaf2 := NewOpenLeaf(NewNonterminalSymbol("<y>"))
	inner := NewInner(NewNonterminalSymbol("<mid>"), leaf1, leaf2)
	root := NewInner(NewNonterminalSymbol("<root>"), inner)

	for _, p := range root.Paths() {
		if root.Get(p) == nil {
			t.Errorf("Get(%v) = nil for a path returned by Paths()", p)
		}
	}
	if root.Get(Path{0, 1}) != leaf2 {
		t.Errorf("Get({0,1}) did not return the expected node")
	}
}

func TestTreeOpenLeavesLeftToRight(t *testing.T) {
	o1 := NewOpenLeaf(NewNonterminalSymbol("<a>"))
	o2 := NewOpenLeaf(NewNonterminalSymbol("<b>"))
	root := NewInner(NewNonterminalSymbol("<root>"), o1, NewTerminalLeaf(";"), o2)

	got := root.OpenLeaves()
	want := []Path{{0}, {2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("OpenLeaves() mismatch (-want +got):\n%s", diff)
	}
	if root.IsComplete() {
		t.Errorf("IsComplete() = true for a tree with open leaves")
	}
}

func TestTreeYieldSkipsOpenLeaves(t *testing.T) {
	root := NewInner(NewNonterminalSymbol("<root>"),
		NewTerminalLeaf("a"),
		NewOpenLeaf(NewNonterminalSymbol("<b>")),
		NewTerminalLeaf("c"),
	)
	if got, want := root.Yield(), "ac"; got != want {
		t.Errorf("Yield() = %q, want %q", got, want)
	}
}

func TestTreeEqualIgnoresIdentity(t *testing.T) {
	a := NewInner(NewNonterminalSymbol("<r>"), NewTerminalLeaf("x"))
	b := NewInner(NewNonterminalSymbol("<r>"), NewTerminalLeaf("x"))
	if a.ID() == b.ID() {
		t.Fatalf("test setup: expected distinct node ids, got equal ids %d", a.ID())
	}
	if !a.Equal(b) {
		t.Errorf("Equal() = false for structurally identical trees with different identities")
	}

	c := NewInner(NewNonterminalSymbol("<r>"), NewTerminalLeaf("y"))
	if a.Equal(c) {
		t.Errorf("Equal() = true for structurally different trees")
	}
}

func TestTreeStructuralKeyIgnoresIdentity(t *testing.T) {
	a := NewInner(NewNonterminalSymbol("<r>"), NewTerminalLeaf("x"))
	b := NewInner(NewNonterminalSymbol("<r>"), NewTerminalLeaf("x"))
	if a.StructuralKey() != b.StructuralKey() {
		t.Errorf("StructuralKey() differs for structurally identical trees: %q vs %q", a.StructuralKey(), b.StructuralKey())
	}

	open := NewOpenLeaf(NewNonterminalSymbol("<r>"))
	closed := NewInner(NewNonterminalSymbol("<r>"))
	if open.StructuralKey() == closed.StructuralKey() {
		t.Errorf("StructuralKey() conflated an open leaf with a closed, childless node")
	}
}

func TestTreeStringCompleteUsesYield(t *testing.T) {
	root := NewInner(NewNonterminalSymbol("<r>"), NewTerminalLeaf("a"), NewTerminalLeaf("b"))
	if got, want := root.String(), "ab"; got != want {
		t.Errorf("String() on a complete tree = %q, want %q", got, want)
	}
}

func TestTreeStringPartialSketch(t *testing.T) {
	root := NewInner(NewNonterminalSymbol("<r>"), NewTerminalLeaf("a"), NewOpenLeaf(NewNonterminalSymbol("<b>")))
	got := root.String()
	want := "{a <b>}"
	if got != want {
		t.Errorf("String() on a partial tree = %q, want %q", got, want)
	}
}

func TestPathEqualAndPrefix(t *testing.T) {
	p := Path{1, 2}
	if !p.Equal(Path{1, 2}) {
		t.Errorf("Equal() = false for identical paths")
	}
	if p.Equal(Path{1, 2, 3}) {
		t.Errorf("Equal() = true for paths of different length")
	}
	if !p.IsPrefixOf(Path{1, 2, 3}) {
		t.Errorf("IsPrefixOf() = false for a genuine prefix")
	}
	if Path{1, 2, 3}.IsPrefixOf(p) {
		t.Errorf("IsPrefixOf() = true when the receiver is longer than other")
	}
}
