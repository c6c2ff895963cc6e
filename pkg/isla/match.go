package isla

// Match is one assignment produced by Matches: the quantifier's bound
// variable, plus any bind-expression hole variables, each mapped to the
// tree position (path, subtree) they matched (§4.2, §3).
type Match map[string]MatchBinding

// MatchBinding pairs a matched variable with its tree position.
type MatchBinding struct {
	Var     Variable
	Path    Path
	Subtree *Tree
}

// Get returns the binding for v, if any.
func (m Match) Get(v Variable) (MatchBinding, bool) {
	b, ok := m[variableKey(v)]
	return b, ok
}

// Matches returns every assignment `{bound -> (path, subtree), extra bound
// vars -> (path, subtree)...}` such that subtree's root symbol equals
// bound's nonterminal type, and, when bind is non-nil, the subtree's
// outermost shape equals the bind expression's tree prefix with the extra
// bound variables located at their prescribed relative positions (§4.2).
//
// Edge case: if a candidate subtree is still open and bind requires a
// concrete shape, no match is produced for that position (the solver falls
// back to expansion, §4.6) rather than erroring.
func Matches(t *Tree, bound BoundVariable, bind *BindExpression) []Match {
	var out []Match
	for _, p := range t.Paths() {
		node := t.Get(p)
		if node.Symbol().Kind != SymbolNonterminal || node.Symbol().Name != bound.Type() {
			continue
		}
		if bind == nil {
			out = append(out, Match{variableKey(bound): {Var: bound, Path: p, Subtree: node}})
			continue
		}
		m, ok := matchBindShape(node, p, bound, bind)
		if ok {
			out = append(out, m)
		}
	}
	return out
}

func matchBindShape(node *Tree, path Path, bound BoundVariable, bind *BindExpression) (Match, bool) {
	if node.IsOpen() {
		return nil, false // shape not yet determined; defer to expansion
	}
	children := node.Children()
	if len(children) != len(bind.Elements) {
		return nil, false
	}
	m := Match{variableKey(bound): {Var: bound, Path: path, Subtree: node}}
	for i, elem := range bind.Elements {
		child := children[i]
		if elem.IsHole() {
			m[variableKey(elem.Var)] = MatchBinding{Var: elem.Var, Path: path.Append(i), Subtree: child}
			continue
		}
		if child.Symbol().Kind != SymbolTerminal || child.Symbol().Name != elem.Literal {
			return nil, false
		}
	}
	return m, true
}

// MatchesSkipping filters out matches whose bound position has already
// been recorded for qid in already (§4.6's "skipping already-matched tree
// ids"), and returns them in left-to-right path order (the tie-break rule
// of §4.6).
func MatchesSkipping(t *Tree, bound BoundVariable, bind *BindExpression, qid QuantifierID, state SolutionState) []Match {
	all := Matches(t, bound, bind)
	var out []Match
	for _, m := range all {
		b, ok := m.Get(bound)
		if !ok {
			continue
		}
		if state.IsMatched(qid, b.Subtree.ID()) {
			continue
		}
		out = append(out, m)
	}
	return out
}
