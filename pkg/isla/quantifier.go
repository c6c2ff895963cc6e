package isla

import "fmt"

// insertionDepthBound and insertionFanoutBound cap the breadth-first search
// performed by tree insertion (§4.5) so it terminates promptly even on
// grammars with large rule sets. This is a deliberate, documented
// simplification of "enumerate all grammar-respecting ways to insert an
// open node": a faithful unbounded enumerator would not terminate on
// infinite grammars, so both the original system and this port bound the
// search (see DESIGN.md).
const (
	insertionDepthBound  = 4
	insertionFanoutBound = 200
	insertionResultBound = 8
)

// resolveArgs resolves a predicate call's arguments into ResolvedArgs,
// reporting ok=false if any argument is still an unresolved Variable
// (§4.3 step 1: "whose arguments are all grounded").
func resolveArgs(args []PredicateArg) ([]ResolvedArg, bool) {
	out := make([]ResolvedArg, len(args))
	for i, a := range args {
		if a.IsVar() {
			return nil, false
		}
		if a.IsGround() {
			out[i] = NewResolvedTreeArg(a.GroundPath, a.GroundTree)
			continue
		}
		out[i] = NewResolvedLiteralArg(a.Literal)
	}
	return out, true
}

// InstantiatePredicates implements §4.3 step 1 over a single conjunction
// (or atomic formula): every top-level structural predicate whose
// arguments are all grounded is evaluated to true/false and replaced by
// the corresponding constant; every top-level semantic predicate whose
// arguments are all grounded is evaluated, and if it proposes a
// substitution the substitution is applied to t immediately (replacing
// each named argument's subtree) before continuing to the next conjunct,
// so later conjuncts in the same conjunction see the updated tree.
func InstantiatePredicates(f Formula, g Grammar, t *Tree) (Formula, *Tree, error) {
	switch n := f.(type) {
	case ConjunctiveFormula:
		parts := make([]Formula, len(n.Conjuncts))
		cur := t
		for i, c := range n.Conjuncts {
			nc, nt, err := InstantiatePredicates(c, g, cur)
			if err != nil {
				return nil, nil, err
			}
			parts[i] = nc
			cur = nt
		}
		return And(parts...), cur, nil
	case StructuralPredicateFormula:
		resolved, ground := resolveArgs(n.Args)
		if !ground {
			return n, t, nil
		}
		ok, err := n.Predicate.Eval(t, resolved)
		if err != nil {
			return nil, nil, err
		}
		if n.Negated {
			ok = !ok
		}
		if ok {
			return TrueConst{}, t, nil
		}
		return FalseConst{}, t, nil
	case SemanticPredicateFormula:
		resolved, ground := resolveArgs(n.Args)
		if !ground {
			return n, t, nil
		}
		result, err := n.Predicate.Eval(g, t, resolved)
		if err != nil {
			return nil, nil, err
		}
		switch result.Kind {
		case PredicateNotReady:
			return n, t, nil
		case PredicateReadyTrue, PredicateReadyFalse:
			ok := result.Kind == PredicateReadyTrue
			if n.Negated {
				ok = !ok
			}
			if ok {
				return TrueConst{}, t, nil
			}
			return FalseConst{}, t, nil
		case PredicateSubstitution:
			newTree := t
			for i, a := range n.Args {
				if !a.IsGround() {
					continue
				}
				if replacement, ok := result.Subst[resolved[i].Subtree]; ok {
					replaced := newTree.Replace(a.GroundPath, replacement)
					if replaced == nil {
						return nil, nil, &InvariantError{Reason: "semantic predicate substitution path no longer valid"}
					}
					newTree = replaced
				}
			}
			return TrueConst{}, newTree, nil
		}
		return n, t, nil
	default:
		return f, t, nil
	}
}

// insertionCandidate is one result of insertTreeNode: a replacement for the
// subtree originally rooted at the insertion point, plus the relative path
// (within that replacement) of the freshly available open leaf of the
// requested nonterminal type.
type insertionCandidate struct {
	Tree *Tree
	Path Path
}

// insertTreeNode enumerates grammar-respecting ways to make an open leaf of
// type ntype appear somewhere within root, by repeatedly expanding root's
// open leaves (breadth-first, shallowest expansions first). It returns
// root unchanged (Path == the leaf's own path) whenever root already has a
// matching open leaf.
func insertTreeNode(root *Tree, ntype string, g Grammar) []insertionCandidate {
	type state struct {
		tree  *Tree
		depth int
	}
	queue := []state{{tree: root, depth: 0}}
	visited := map[string]bool{root.StructuralKey(): true}
	var results []insertionCandidate
	seenResult := map[string]bool{}

	for len(queue) > 0 && len(results) < insertionResultBound && len(visited) < insertionFanoutBound {
		cur := queue[0]
		queue = queue[1:]

		for _, p := range cur.tree.OpenLeaves() {
			leaf := cur.tree.Get(p)
			if leaf.Symbol().Kind == SymbolNonterminal && leaf.Symbol().Name == ntype {
				key := cur.tree.StructuralKey() + "@" + p.String()
				if !seenResult[key] {
					seenResult[key] = true
					results = append(results, insertionCandidate{Tree: cur.tree, Path: p})
				}
			}
		}
		if cur.depth >= insertionDepthBound {
			continue
		}
		for _, p := range cur.tree.OpenLeaves() {
			leaf := cur.tree.Get(p)
			if leaf.Symbol().Name == ntype {
				continue // already recorded as a candidate; don't expand past it
			}
			alts, ok := g.Alternatives(leaf.Symbol().Name)
			if !ok {
				continue
			}
			for _, alt := range alts {
				children := make([]*Tree, len(alt))
				for i, sym := range alt {
					if g.IsGrammarNonterminal(sym.Name) {
						children[i] = NewOpenLeaf(sym)
					} else {
						children[i] = NewTerminalLeaf(sym.Name)
					}
				}
				expanded := &Tree{id: leaf.id, symbol: leaf.symbol, children: children}
				newRoot := cur.tree.Replace(p, expanded)
				if newRoot == nil {
					continue
				}
				key := newRoot.StructuralKey()
				if visited[key] {
					continue
				}
				visited[key] = true
				queue = append(queue, state{tree: newRoot, depth: cur.depth + 1})
				if len(visited) >= insertionFanoutBound {
					break
				}
			}
		}
	}
	return results
}

// joinPath concatenates a base path with a path relative to it.
func joinPath(base, rel Path) Path {
	out := make(Path, 0, len(base)+len(rel))
	out = append(out, base...)
	out = append(out, rel...)
	return out
}

// findPathByID locates the path to the node with the given id within t, by
// identity (node allocation id, §2): quantifier "in" subtrees are always
// the very same *Tree value reachable from the state's working tree, since
// trees are only ever grown by Replace, which preserves every untouched
// subtree's identity.
func findPathByID(t *Tree, id int64) (Path, bool) {
	if t.ID() == id {
		return Path{}, true
	}
	for _, p := range t.Paths() {
		if t.Get(p).ID() == id {
			return p, true
		}
	}
	return nil, false
}

// quantifierRoot resolves the subtree a quantifier ranges over (§4.2's
// "in" clause) plus that subtree's path within the state's working tree.
func quantifierRoot(state SolutionState, inTree *Tree) (Path, *Tree, error) {
	if inTree == nil {
		return Path{}, state.Tree, nil
	}
	p, ok := findPathByID(state.Tree, inTree.ID())
	if !ok {
		return nil, nil, &InvariantError{Reason: fmt.Sprintf("quantifier's in-tree (id %d) is not part of the working tree", inTree.ID())}
	}
	return p, inTree, nil
}

// ExistentialCanProgress reports whether EliminateExistential would
// actually produce a successor for f given state right now. With no bind
// expression, tree insertion is always attempted and may manufacture a
// witness, so this is unconditionally true. With a bind expression,
// insertion is not attempted (the shape it would need to manufacture is
// exactly the bind expression's, which plain grammar expansion already
// produces on its own), so progress requires an existing matching subtree.
// When false, dispatch (solver.go) must defer f — the bound type's
// bind-shaped instance simply hasn't been expanded into the tree yet —
// rather than dead-ending the search before ordinary leaf expansion gets a
// chance to create one.
func ExistentialCanProgress(state SolutionState, g Grammar, f ExistsFormula) (bool, error) {
	if f.Bind == nil {
		return true, nil
	}
	_, root, err := quantifierRoot(state, f.InTree)
	if err != nil {
		return false, err
	}
	return len(Matches(root, f.Bound, f.Bind)) > 0, nil
}

// EliminateExistential implements §4.5: it returns one successor
// SolutionState per way of satisfying f — one for each existing matching
// subtree, plus (when f has no bind expression) one for each
// grammar-respecting way of growing the working tree so a fresh position of
// the bound type appears. Each successor replaces the existential entirely
// by its instantiated inner formula; existentials need only one witness, so
// (unlike universals) the quantifier itself is never retained.
func EliminateExistential(state SolutionState, g Grammar, f ExistsFormula) ([]SolutionState, error) {
	rootPath, root, err := quantifierRoot(state, f.InTree)
	if err != nil {
		return nil, err
	}

	var out []SolutionState
	for _, m := range Matches(root, f.Bound, f.Bind) {
		inner := SubstituteFormula(f.Inner, m)
		out = append(out, state.WithFormula(inner))
	}

	if f.Bind == nil {
		for _, cand := range insertTreeNode(root, f.Bound.Type(), g) {
			newTree := state.Tree
			if cand.Tree != root {
				replaced := state.Tree.Replace(rootPath, cand.Tree)
				if replaced == nil {
					continue
				}
				newTree = replaced
			}
			leafPath := joinPath(rootPath, cand.Path)
			leaf := newTree.Get(leafPath)
			if leaf == nil {
				continue
			}
			m := Match{variableKey(f.Bound): {Var: f.Bound, Path: leafPath, Subtree: leaf}}
			inner := SubstituteFormula(f.Inner, m)
			out = append(out, state.WithTree(newTree).WithFormula(inner))
		}
	}
	return out, nil
}

// EliminateExistsInt discharges a numeric existential for the solver loop.
// Unlike EliminateExistential, f.Bound never names a tree position to match
// or insert: it is simply a fresh free variable occurring (as an SMTVarRef)
// somewhere in f.Inner. So there is nothing to search for here — the
// quantifier wrapper is dropped and f.Bound is left as an ordinary free
// variable for Case E's SMT bridge to solve for a concrete integer witness,
// exactly as it already does for any other free SMT variable (see
// EliminateSMT/distinctnessAtoms).
func EliminateExistsInt(state SolutionState, f ExistsIntFormula) []SolutionState {
	return []SolutionState{state.WithFormula(f.Inner)}
}

// forallVacuouslyTrue reports whether f.Bound's nonterminal type can no
// longer appear anywhere in tree (directly or via further expansion of its
// open leaves), which makes the (already-matched-exhausted) universal
// vacuously satisfied and safe to drop (§4.6).
func forallVacuouslyTrue(f ForallFormula, tree *Tree, g Grammar, fingerprint string) bool {
	graph := ReachabilityGraph(g, fingerprint)
	opens := OpenLeafNonterminals(tree)
	return !graph.ReachableFromAny(opens, f.Bound.Type())
}

// UniversalCanProgress reports whether MatchUniversal would actually change
// anything for f given state right now: either an unmatched position of the
// bound type currently exists, or the bound type has become (vacuously)
// unreachable from here on. When false, dispatch (solver.go) must defer f
// rather than process it — f's bound type simply hasn't been grown into the
// tree yet, which is the ordinary case for a universal quantifying over a
// nonterminal appearing later in the derivation; looping on it here would
// dead-end the search instead of letting leaf expansion make progress.
func UniversalCanProgress(state SolutionState, g Grammar, f ForallFormula, fingerprint string) bool {
	_, root, err := quantifierRoot(state, f.InTree)
	if err != nil {
		return false
	}
	if len(MatchesSkipping(root, f.Bound, f.Bind, f.QID, state)) > 0 {
		return true
	}
	return forallVacuouslyTrue(f, state.Tree, g, fingerprint)
}

// MatchUniversal implements §4.6: it returns one successor SolutionState per
// not-yet-matched position of f's bound type, each conjoining the
// instantiated inner formula with the retained quantifier (so future tree
// growth is still checked), recording the matched node id so it is not
// matched again. If no unmatched position exists and the bound type can no
// longer appear in the tree, the single returned successor drops the
// quantifier (vacuous truth) instead.
func MatchUniversal(state SolutionState, g Grammar, f ForallFormula, fingerprint string) []SolutionState {
	_, root, err := quantifierRoot(state, f.InTree)
	if err != nil {
		return nil
	}

	matches := MatchesSkipping(root, f.Bound, f.Bind, f.QID, state)
	if len(matches) == 0 {
		if forallVacuouslyTrue(f, state.Tree, g, fingerprint) {
			return []SolutionState{state.WithFormula(TrueConst{})}
		}
		return nil
	}

	out := make([]SolutionState, 0, len(matches))
	for _, m := range matches {
		b, ok := m.Get(f.Bound)
		if !ok {
			continue
		}
		inner := SubstituteFormula(f.Inner, m)
		retained := Formula(f)
		if forallVacuouslyTrue(f, state.Tree, g, fingerprint) {
			retained = TrueConst{}
		}
		next := state.WithMatch(f.QID, b.Subtree.ID()).WithFormula(And(inner, retained))
		out = append(out, next)
	}
	return out
}
