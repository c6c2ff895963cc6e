// Package isla implements the constraint-directed derivation-tree solver at
// the core of ISLa: a best-first search over partial derivation trees paired
// with residual constraints, coupled with quantifier matching/elimination,
// SMT-based solving of the quantifier-free string-theory residue, controlled
// grammar expansion, and a three-valued evaluator.
//
// The surrounding concrete-syntax parser for the constraint language, the
// grammar surface loaders, the CLI/fuzzing wrapper, and the structural and
// semantic predicate libraries are external collaborators: this package only
// depends on their contracts (StructuralPredicate, SemanticPredicate,
// SMTSolver, TreeParser).
package isla

import (
	"fmt"
	"strings"
)

// SymbolKind distinguishes the three kinds of symbol a tree node can carry.
// This is a closed tagged variant, not an open interface hierarchy: every
// pass over a Symbol is a total switch over SymbolKind.
type SymbolKind int

const (
	// SymbolNonterminal is a grammar nonterminal, e.g. "<stmt>".
	SymbolNonterminal SymbolKind = iota
	// SymbolTerminal is a terminal literal, e.g. ":=".
	SymbolTerminal
	// SymbolVariable is a bound-variable placeholder built by
	// NewVariableSymbol (a node whose identity names a Variable rather than
	// a raw grammar nonterminal). Bind matching and existential tree
	// insertion in this package create nonterminal nodes, not placeholders.
	SymbolVariable
)

// Symbol is the label carried by a tree node.
type Symbol struct {
	Kind SymbolKind
	// Name is the nonterminal name (Kind == SymbolNonterminal), the
	// terminal text (Kind == SymbolTerminal), or the bound variable's
	// nonterminal type (Kind == SymbolVariable).
	Name string
	// VarName is set only for SymbolVariable: the variable's own name,
	// distinct from its nonterminal type (Name).
	VarName string
}

// NewNonterminalSymbol builds a nonterminal symbol.
func NewNonterminalSymbol(name string) Symbol { return Symbol{Kind: SymbolNonterminal, Name: name} }

// NewTerminalSymbol builds a terminal symbol.
func NewTerminalSymbol(text string) Symbol { return Symbol{Kind: SymbolTerminal, Name: text} }

// NewVariableSymbol builds a bound-variable placeholder symbol.
func NewVariableSymbol(varName, nType string) Symbol {
	return Symbol{Kind: SymbolVariable, Name: nType, VarName: varName}
}

func (s Symbol) String() string {
	switch s.Kind {
	case SymbolTerminal:
		return s.Name
	case SymbolVariable:
		return s.VarName
	default:
		return s.Name
	}
}

// IsNonterminal reports whether the symbol is a grammar nonterminal.
func (s Symbol) IsNonterminal() bool { return s.Kind == SymbolNonterminal }

// Path addresses a node in a Tree by the sequence of child indices from the
// root. The empty path addresses the root itself.
type Path []int

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, x := range p {
		parts[i] = fmt.Sprintf("%d", x)
	}
	return strings.Join(parts, ".")
}

// Equal reports structural equality of two paths.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// IsPrefixOf reports whether p is a (non-strict) prefix of other.
func (p Path) IsPrefixOf(other Path) bool {
	if len(p) > len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Append returns a new path with idx appended; p is never mutated.
func (p Path) Append(idx int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = idx
	return out
}

// Tree is an immutable-by-rewrite n-ary derivation tree node. A node has a
// Symbol, an optional ordered sequence of children, and a process-unique
// identity (ID). Children == nil means the node is an "open" leaf (its
// Symbol must be a nonterminal or variable placeholder). Children != nil
// (including the empty, non-nil slice used by terminal leaves) means the
// node is expanded.
//
// Rewrite discipline: every transformation (Replace, expansion, bind
// substitution) returns a new *Tree; subtrees that did not change are
// shared by pointer with the original, never deep-copied. Nothing in this
// package mutates a *Tree in place after construction.
type Tree struct {
	id       int64
	symbol   Symbol
	children []*Tree
}

// NewOpenLeaf creates an open leaf for a nonterminal or variable symbol.
func NewOpenLeaf(sym Symbol) *Tree {
	return &Tree{id: nextTreeID(), symbol: sym}
}

// NewTerminalLeaf creates a complete terminal leaf (empty, non-nil children).
func NewTerminalLeaf(text string) *Tree {
	return &Tree{id: nextTreeID(), symbol: NewTerminalSymbol(text), children: []*Tree{}}
}

// NewInner creates a complete inner node with the given children.
func NewInner(sym Symbol, children ...*Tree) *Tree {
	cs := make([]*Tree, len(children))
	copy(cs, children)
	return &Tree{id: nextTreeID(), symbol: sym, children: cs}
}

// ID returns the tree node's process-unique, stable identity.
func (t *Tree) ID() int64 { return t.id }

// Symbol returns the node's label.
func (t *Tree) Symbol() Symbol { return t.symbol }

// Children returns the node's children, or nil if the node is open. Callers
// must not mutate the returned slice.
func (t *Tree) Children() []*Tree { return t.children }

// IsOpen reports whether this leaf has not yet been expanded.
func (t *Tree) IsOpen() bool { return t.children == nil }

// IsOpenConcrete reports whether this is an open leaf whose symbol is an
// actual grammar nonterminal (as opposed to a bound-variable placeholder).
func (t *Tree) IsOpenConcrete() bool {
	return t.IsOpen() && t.symbol.Kind == SymbolNonterminal
}

// IsComplete reports whether the tree has no open leaves anywhere.
func (t *Tree) IsComplete() bool {
	if t.IsOpen() {
		return false
	}
	for _, c := range t.children {
		if !c.IsComplete() {
			return false
		}
	}
	return true
}

// Get returns the subtree at path p, or nil if p is out of range.
func (t *Tree) Get(p Path) *Tree {
	cur := t
	for _, idx := range p {
		if cur.children == nil || idx < 0 || idx >= len(cur.children) {
			return nil
		}
		cur = cur.children[idx]
	}
	return cur
}

// Replace returns a new tree with the subtree at path p replaced by sub.
// Subtrees outside the path are shared by pointer with the receiver. The
// receiver is never mutated. Returns nil if p does not address a valid
// node in t.
func (t *Tree) Replace(p Path, sub *Tree) *Tree {
	if len(p) == 0 {
		return sub
	}
	if t.children == nil || p[0] < 0 || p[0] >= len(t.children) {
		return nil
	}
	newChild := t.children[p[0]].Replace(p[1:], sub)
	if newChild == nil {
		return nil
	}
	newChildren := make([]*Tree, len(t.children))
	copy(newChildren, t.children)
	newChildren[p[0]] = newChild
	return &Tree{id: t.id, symbol: t.symbol, children: newChildren}
}

// Paths returns the paths of every node in the tree, in pre-order,
// left-to-right.
func (t *Tree) Paths() []Path {
	var out []Path
	var walk func(n *Tree, p Path)
	walk = func(n *Tree, p Path) {
		out = append(out, p)
		for i, c := range n.children {
			walk(c, p.Append(i))
		}
	}
	walk(t, Path{})
	return out
}

// OpenLeaves returns the paths of every open leaf, in left-to-right order.
func (t *Tree) OpenLeaves() []Path {
	var out []Path
	var walk func(n *Tree, p Path)
	walk = func(n *Tree, p Path) {
		if n.IsOpen() {
			out = append(out, p)
			return
		}
		for i, c := range n.children {
			walk(c, p.Append(i))
		}
	}
	walk(t, Path{})
	return out
}

// Yield concatenates the terminal symbols of t in left-to-right order. Open
// leaves contribute nothing (their text is not yet determined).
func (t *Tree) Yield() string {
	var b strings.Builder
	var walk func(n *Tree)
	walk = func(n *Tree) {
		if n.IsOpen() {
			return
		}
		if n.symbol.Kind == SymbolTerminal {
			b.WriteString(n.symbol.Name)
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t)
	return b.String()
}

// Equal reports deep structural equality (same symbols and shape,
// independent of node identity).
func (t *Tree) Equal(other *Tree) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.symbol != other.symbol {
		return false
	}
	if (t.children == nil) != (other.children == nil) {
		return false
	}
	if len(t.children) != len(other.children) {
		return false
	}
	for i := range t.children {
		if !t.children[i].Equal(other.children[i]) {
			return false
		}
	}
	return true
}

// StructuralKey returns a string uniquely determined by t's structure
// (symbols and shape), suitable for deduplication maps. It ignores node
// identity.
func (t *Tree) StructuralKey() string {
	var b strings.Builder
	var walk func(n *Tree)
	walk = func(n *Tree) {
		fmt.Fprintf(&b, "(%d:%s", n.symbol.Kind, n.symbol.String())
		if n.children == nil {
			b.WriteString(" open)")
			return
		}
		for _, c := range n.children {
			b.WriteByte(' ')
			walk(c)
		}
		b.WriteByte(')')
	}
	walk(t)
	return b.String()
}

// String renders t using its yield if complete, or a bracketed sketch
// otherwise.
func (t *Tree) String() string {
	if t.IsComplete() {
		return t.Yield()
	}
	var b strings.Builder
	var walk func(n *Tree)
	walk = func(n *Tree) {
		if n.IsOpen() {
			fmt.Fprintf(&b, "%s", n.symbol.String())
			return
		}
		if n.symbol.Kind == SymbolTerminal {
			b.WriteString(n.symbol.Name)
			return
		}
		b.WriteByte('{')
		for i, c := range n.children {
			if i > 0 {
				b.WriteByte(' ')
			}
			walk(c)
		}
		b.WriteByte('}')
	}
	walk(t)
	return b.String()
}
