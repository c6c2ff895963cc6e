package isla

// SubstituteFormula replaces every free occurrence of a variable present in
// match by the tree position it matched, turning SMTVarRef into SMTTreeRef
// and variable-valued PredicateArgs into ground PredicateArgs. This is the
// substitution step of universal matching (§4.6) and existential insertion
// (§4.5): "substitute variables in the inner formula by the matched
// subtrees".
func SubstituteFormula(f Formula, match Match) Formula {
	switch n := f.(type) {
	case TrueConst, FalseConst:
		return f
	case SMTFormula:
		return SMTFormula{Atom: substituteSMTExpr(n.Atom, match)}
	case StructuralPredicateFormula:
		n.Args = substituteArgs(n.Args, match)
		return n
	case SemanticPredicateFormula:
		n.Args = substituteArgs(n.Args, match)
		return n
	case ConjunctiveFormula:
		parts := make([]Formula, len(n.Conjuncts))
		for i, c := range n.Conjuncts {
			parts[i] = SubstituteFormula(c, match)
		}
		return And(parts...)
	case DisjunctiveFormula:
		parts := make([]Formula, len(n.Disjuncts))
		for i, d := range n.Disjuncts {
			parts[i] = SubstituteFormula(d, match)
		}
		return Or(parts...)
	case NegatedFormula:
		return NegatedFormula{Inner: SubstituteFormula(n.Inner, match)}
	case ForallFormula:
		if shadows(match, n.Bound, n.Bind) {
			return n
		}
		n.Inner = SubstituteFormula(n.Inner, match)
		return n
	case ExistsFormula:
		if shadows(match, n.Bound, n.Bind) {
			return n
		}
		n.Inner = SubstituteFormula(n.Inner, match)
		return n
	case ForallIntFormula:
		if _, ok := match[variableKey(n.Bound)]; ok {
			return n
		}
		n.Inner = SubstituteFormula(n.Inner, match)
		return n
	case ExistsIntFormula:
		if _, ok := match[variableKey(n.Bound)]; ok {
			return n
		}
		n.Inner = SubstituteFormula(n.Inner, match)
		return n
	default:
		return f
	}
}

// shadows reports whether an inner quantifier rebinds (directly or via its
// bind expression's holes) any variable already present in match, in which
// case substitution must not descend into its body.
func shadows(match Match, bound BoundVariable, bind *BindExpression) bool {
	if _, ok := match[variableKey(bound)]; ok {
		return true
	}
	for _, h := range bind.HoleVariables() {
		if _, ok := match[variableKey(h)]; ok {
			return true
		}
	}
	return false
}

func substituteArgs(args []PredicateArg, match Match) []PredicateArg {
	out := make([]PredicateArg, len(args))
	for i, a := range args {
		if a.IsVar() {
			if b, ok := match.Get(a.Var); ok {
				out[i] = NewGroundArg(b.Path, b.Subtree)
				continue
			}
		}
		out[i] = a
	}
	return out
}

func substituteSMTExpr(e SMTExpr, match Match) SMTExpr {
	switch t := e.(type) {
	case SMTVarRef:
		if b, ok := match.Get(t.V); ok {
			return SMTTreeRef{Path: b.Path, Node: b.Subtree}
		}
		return e
	case SMTApp:
		args := make([]SMTExpr, len(t.Args))
		for i, a := range t.Args {
			args[i] = substituteSMTExpr(a, match)
		}
		return SMTApp{Op: t.Op, Args: args}
	default:
		return e
	}
}
