package isla

import "math/rand"

// ExpandLeaf implements §4.7: given one open leaf path in state.Tree, it
// returns one successor SolutionState per grammar alternative for that
// leaf's nonterminal, each with the leaf expanded one level (its children
// newly open) and the formula unchanged (expansion never touches the
// formula itself; only quantifier elimination and SMT solving do).
func ExpandLeaf(state SolutionState, g Grammar, leaf Path) ([]SolutionState, error) {
	node := state.Tree.Get(leaf)
	if node == nil || !node.IsOpenConcrete() {
		return nil, &InvariantError{Reason: "ExpandLeaf called on a non-open-nonterminal path"}
	}
	alts, ok := g.Alternatives(node.Symbol().Name)
	if !ok {
		return nil, &GrammarError{Nonterminal: node.Symbol().Name}
	}
	out := make([]SolutionState, 0, len(alts))
	for _, alt := range alts {
		children := make([]*Tree, len(alt))
		for i, sym := range alt {
			if g.IsGrammarNonterminal(sym.Name) {
				children[i] = NewOpenLeaf(sym)
			} else {
				children[i] = NewTerminalLeaf(sym.Name)
			}
		}
		expanded := NewInner(node.Symbol(), children...)
		newTree := state.Tree.Replace(leaf, expanded)
		if newTree == nil {
			continue
		}
		out = append(out, state.WithTree(newTree))
	}
	return out, nil
}

// FirstOpenLeaf returns the leftmost open leaf's path, or (nil, false) if
// the tree is already complete — the conventional expansion target per
// §4.3's dispatch order (leftmost-first keeps search behavior deterministic
// given a fixed Seed).
func FirstOpenLeaf(t *Tree) (Path, bool) {
	leaves := t.OpenLeaves()
	if len(leaves) == 0 {
		return nil, false
	}
	return leaves[0], true
}

// IsFreelyInstantiable reports whether an open leaf can be completed
// without further consideration of the formula: true whenever no
// surviving tree quantifier (forall or exists) still binds a variable whose
// type could reach into this leaf's subtree (§4.8); SMT atoms and predicate
// arguments are not consulted. Conservatively, a leaf of
// nonterminal type nt is freely instantiable with respect to f if nt is not
// reachable from any variable bound by a live quantifier in f (the
// quantifiers that remain are exactly those that might still need to
// inspect positions of that type).
func IsFreelyInstantiable(f Formula, nt string, g Grammar, fingerprint string) bool {
	graph := ReachabilityGraph(g, fingerprint)
	freelyBlocked := false
	Transform(f, func(sub Formula) (Formula, bool) {
		switch n := sub.(type) {
		case ForallFormula:
			if graph.Reachable(n.Bound.Type(), nt) || n.Bound.Type() == nt {
				freelyBlocked = true
			}
		case ExistsFormula:
			if graph.Reachable(n.Bound.Type(), nt) || n.Bound.Type() == nt {
				freelyBlocked = true
			}
		}
		return sub, false
	})
	return !freelyBlocked
}

// FreeInstantiate implements §4.8: it completes every open leaf of t that
// IsFreelyInstantiable permits, choosing among grammar alternatives at
// random (seeded by rng, §5's reproducibility requirement), producing
// maxTrees completions; they are drawn independently, so two of them can be
// identical. Leaves that are not freely instantiable are left
// open; a completion is only returned once all permitted leaves have been
// filled to completion or no further permitted leaf remains open.
func FreeInstantiate(state SolutionState, g Grammar, fingerprint string, rng *rand.Rand, maxTrees int) ([]*Tree, error) {
	if maxTrees <= 0 {
		maxTrees = 1
	}
	out := make([]*Tree, 0, maxTrees)
	for i := 0; i < maxTrees; i++ {
		tree, err := completeFreelyInstantiable(state.Tree, state.Formula, g, fingerprint, rng)
		if err != nil {
			return out, err
		}
		out = append(out, tree)
	}
	return out, nil
}

func completeFreelyInstantiable(t *Tree, f Formula, g Grammar, fingerprint string, rng *rand.Rand) (*Tree, error) {
	for {
		leaves := t.OpenLeaves()
		var target Path
		found := false
		for _, p := range leaves {
			node := t.Get(p)
			if !node.IsOpenConcrete() {
				continue
			}
			if IsFreelyInstantiable(f, node.Symbol().Name, g, fingerprint) {
				target = p
				found = true
				break
			}
		}
		if !found {
			return t, nil
		}
		node := t.Get(target)
		alts, ok := g.Alternatives(node.Symbol().Name)
		if !ok {
			return nil, &GrammarError{Nonterminal: node.Symbol().Name}
		}
		alt := alts[rng.Intn(len(alts))]
		children := make([]*Tree, len(alt))
		for i, sym := range alt {
			if g.IsGrammarNonterminal(sym.Name) {
				children[i] = NewOpenLeaf(sym)
			} else {
				children[i] = NewTerminalLeaf(sym.Name)
			}
		}
		expanded := NewInner(node.Symbol(), children...)
		newTree := t.Replace(target, expanded)
		if newTree == nil {
			return nil, &InvariantError{Reason: "free instantiation produced an invalid replacement path"}
		}
		t = newTree
	}
}
