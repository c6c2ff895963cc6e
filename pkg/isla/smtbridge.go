package isla

import "context"

// splitSMT separates a single conjunction (or atomic formula) into its SMT
// atoms and its remaining (non-SMT) conjuncts, mirroring InstantiatePredicates'
// one-conjunction scope (§4.3, §4.4).
func splitSMT(f Formula) ([]SMTExpr, []Formula) {
	switch n := f.(type) {
	case ConjunctiveFormula:
		var atoms []SMTExpr
		var rest []Formula
		for _, c := range n.Conjuncts {
			if smtf, ok := c.(SMTFormula); ok {
				atoms = append(atoms, smtf.Atom)
				continue
			}
			rest = append(rest, c)
		}
		return atoms, rest
	case SMTFormula:
		return []SMTExpr{n.Atom}, nil
	default:
		return nil, []Formula{f}
	}
}

// smtTreeVar records that a synthetic SMT variable stands in for the
// string value at a specific, still-open tree position.
type smtTreeVar struct {
	path     Path
	node     *Tree
	variable Variable
}

// treeRefRewriter rewrites SMTTreeRef leaves (introduced by quantifier
// substitution, §4.5/§4.6) into plain SMTVarRefs an SMTSolver can reason
// about, recording the mapping back to tree positions and the grammar-
// shaped InRegex atom each fresh variable needs (§4.4: "seed the bridge
// with R(N) as the variable's domain").
type treeRefRewriter struct {
	g           Grammar
	fingerprint string
	vars        map[string]smtTreeVar
	extraAtoms  []SMTExpr
}

func (r *treeRefRewriter) rewrite(e SMTExpr) SMTExpr {
	switch t := e.(type) {
	case SMTTreeRef:
		if t.Node.IsComplete() {
			return SMTStringConst{S: t.Node.Yield()}
		}
		sv := NewConstant("$tree"+t.Path.String(), t.Node.Symbol().Name)
		key := variableKey(sv)
		if _, ok := r.vars[key]; !ok {
			r.vars[key] = smtTreeVar{path: t.Path, node: t.Node, variable: sv}
			r.extraAtoms = append(r.extraAtoms, InRegex(SMTVarRef{V: sv}, RegexApprox(r.g, r.fingerprint, t.Node.Symbol().Name)))
		}
		return SMTVarRef{V: sv}
	case SMTApp:
		args := make([]SMTExpr, len(t.Args))
		for i, a := range t.Args {
			args[i] = r.rewrite(a)
		}
		return SMTApp{Op: t.Op, Args: args}
	default:
		return e
	}
}

// EliminateSMT implements §4.4: it assembles the quantifier-free residue of
// a single conjunction into one or more SMTSolver queries, requesting up to
// cfg.MaxSMTInstantiations distinct models (each round excludes every prior
// model so repeated calls explore the space rather than looping on one
// answer), and for each model either replaces a still-open tree position
// (reparsing the model's string with parser) or substitutes a literal value
// for a free, non-tree-bound variable (e.g. a numeric witness) throughout
// the remaining formula. Returns one successor SolutionState per model.
func EliminateSMT(state SolutionState, g Grammar, cfg Config, solver SMTSolver, parser TreeParser) ([]SolutionState, error) {
	atoms, rest := splitSMT(state.Formula)
	if len(atoms) == 0 {
		return nil, nil
	}

	rewriter := &treeRefRewriter{g: g, fingerprint: cfg.GrammarFingerprint, vars: map[string]smtTreeVar{}}
	rewritten := make([]SMTExpr, len(atoms))
	for i, a := range atoms {
		rewritten[i] = rewriter.rewrite(a)
	}
	baseQuery := append(append([]SMTExpr{}, rewritten...), rewriter.extraAtoms...)

	varsByKey := map[string]Variable{}
	for _, a := range atoms {
		for _, v := range a.Variables() {
			varsByKey[variableKey(v)] = v
		}
	}
	for k, tv := range rewriter.vars {
		varsByKey[k] = tv.variable
	}

	var results []SolutionState
	var priorModels []SMTModel

	for i := 0; i < cfg.MaxSMTInstantiations; i++ {
		query := append([]SMTExpr{}, baseQuery...)
		for _, prior := range priorModels {
			query = append(query, distinctnessAtoms(prior, varsByKey)...)
		}
		outcome, err := solver.Solve(context.Background(), query, cfg.SMTTimeout)
		if err != nil {
			return results, err
		}
		if outcome.Status != SMTSat {
			break
		}
		priorModels = append(priorModels, outcome.Model)

		newTree := state.Tree
		ok := true
		for key, tv := range rewriter.vars {
			val, found := outcome.Model[key]
			if !found || tv.node.IsComplete() {
				continue
			}
			parsedTree, perr := parser.Parse(g, tv.node.Symbol().Name, val)
			if perr != nil {
				ok = false
				break
			}
			replaced := newTree.Replace(tv.path, parsedTree)
			if replaced == nil {
				ok = false
				break
			}
			newTree = replaced
		}
		if !ok {
			continue
		}

		newFormula := And(rest...)
		for key, val := range outcome.Model {
			if _, isTreeVar := rewriter.vars[key]; isTreeVar {
				continue
			}
			newFormula = substituteSMTLiteral(newFormula, key, val)
		}
		results = append(results, state.WithTree(newTree).WithFormula(newFormula))
	}
	return results, nil
}

// distinctnessAtoms builds one NotEq atom per assigned variable in model,
// so the next SMTSolver call is forced to find a different assignment to at
// least one of them (a simple, sound way to request successive distinct
// models from a Solve method that only ever returns one model per call).
// varsByKey resolves each model entry back to the Variable that was
// actually registered with the solver (tree-position placeholders
// included), since the solver keys everything by variableKey.
func distinctnessAtoms(model SMTModel, varsByKey map[string]Variable) []SMTExpr {
	out := make([]SMTExpr, 0, len(model))
	for k, v := range model {
		variable, ok := varsByKey[k]
		if !ok {
			continue
		}
		out = append(out, NotEq(SMTVarRef{V: variable}, SMTStringConst{S: v}))
	}
	return out
}

// substituteSMTLiteral replaces every remaining occurrence of the variable
// whose variableKey is key by the literal string value, throughout f (used
// for SMT model entries that are not tied to a tree position, e.g. a
// numeric existential witness).
func substituteSMTLiteral(f Formula, key, value string) Formula {
	switch n := f.(type) {
	case TrueConst, FalseConst:
		return f
	case SMTFormula:
		return SMTFormula{Atom: substituteSMTExprLiteral(n.Atom, key, value)}
	case StructuralPredicateFormula:
		n.Args = substituteArgsLiteral(n.Args, key, value)
		return n
	case SemanticPredicateFormula:
		n.Args = substituteArgsLiteral(n.Args, key, value)
		return n
	case ConjunctiveFormula:
		parts := make([]Formula, len(n.Conjuncts))
		for i, c := range n.Conjuncts {
			parts[i] = substituteSMTLiteral(c, key, value)
		}
		return And(parts...)
	case DisjunctiveFormula:
		parts := make([]Formula, len(n.Disjuncts))
		for i, d := range n.Disjuncts {
			parts[i] = substituteSMTLiteral(d, key, value)
		}
		return Or(parts...)
	case NegatedFormula:
		return NegatedFormula{Inner: substituteSMTLiteral(n.Inner, key, value)}
	case ForallFormula:
		n.Inner = substituteSMTLiteral(n.Inner, key, value)
		return n
	case ExistsFormula:
		n.Inner = substituteSMTLiteral(n.Inner, key, value)
		return n
	case ForallIntFormula:
		if variableKey(n.Bound) == key {
			return n
		}
		n.Inner = substituteSMTLiteral(n.Inner, key, value)
		return n
	case ExistsIntFormula:
		if variableKey(n.Bound) == key {
			return n
		}
		n.Inner = substituteSMTLiteral(n.Inner, key, value)
		return n
	default:
		return f
	}
}

func substituteSMTExprLiteral(e SMTExpr, key, value string) SMTExpr {
	switch t := e.(type) {
	case SMTVarRef:
		if variableKey(t.V) == key {
			return SMTStringConst{S: value}
		}
		return e
	case SMTApp:
		args := make([]SMTExpr, len(t.Args))
		for i, a := range t.Args {
			args[i] = substituteSMTExprLiteral(a, key, value)
		}
		return SMTApp{Op: t.Op, Args: args}
	default:
		return e
	}
}

func substituteArgsLiteral(args []PredicateArg, key, value string) []PredicateArg {
	out := make([]PredicateArg, len(args))
	for i, a := range args {
		if a.IsVar() && variableKey(a.Var) == key {
			out[i] = NewLiteralArg(value)
			continue
		}
		out[i] = a
	}
	return out
}
