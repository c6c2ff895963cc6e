package isla

import (
	"fmt"
	"strconv"
)

// TruthValue is the three-valued logic outcome of evaluating a formula
// against a (possibly partial) tree (§4.9): TRUE, FALSE, or UNKNOWN when
// the tree does not yet carry enough information to decide.
type TruthValue int

const (
	TruthUnknown TruthValue = iota
	TruthFalse
	TruthTrue
)

func (t TruthValue) String() string {
	switch t {
	case TruthTrue:
		return "TRUE"
	case TruthFalse:
		return "FALSE"
	default:
		return "UNKNOWN"
	}
}

// TruthNot is Kleene negation: UNKNOWN stays UNKNOWN.
func TruthNot(v TruthValue) TruthValue {
	switch v {
	case TruthTrue:
		return TruthFalse
	case TruthFalse:
		return TruthTrue
	default:
		return TruthUnknown
	}
}

// TruthAll is the Kleene "and" combinator (§12's ThreeValuedTruth.all):
// FALSE dominates (a single FALSE makes the whole conjunction FALSE even in
// the presence of UNKNOWN operands), otherwise any UNKNOWN operand yields
// UNKNOWN, otherwise TRUE.
func TruthAll(values ...TruthValue) TruthValue {
	sawUnknown := false
	for _, v := range values {
		switch v {
		case TruthFalse:
			return TruthFalse
		case TruthUnknown:
			sawUnknown = true
		}
	}
	if sawUnknown {
		return TruthUnknown
	}
	return TruthTrue
}

// TruthAny is the Kleene "or" combinator (§12's ThreeValuedTruth.any): dual
// of TruthAll.
func TruthAny(values ...TruthValue) TruthValue {
	sawUnknown := false
	for _, v := range values {
		switch v {
		case TruthTrue:
			return TruthTrue
		case TruthUnknown:
			sawUnknown = true
		}
	}
	if sawUnknown {
		return TruthUnknown
	}
	return TruthFalse
}

// Evaluate implements §4.9/§4.10: the three-valued evaluation of a formula
// against a working tree, given the formula's free variables already
// grounded to tree positions (via SubstituteFormula, as EvaluateClosed does
// for the conventional "start" constant). Evaluation never mutates tree or
// blocks: any atom whose value cannot yet be determined from the tree's
// current (possibly partial) shape evaluates to TruthUnknown rather than
// erroring.
func Evaluate(f Formula, ref *Tree, g Grammar, fingerprint string) (TruthValue, error) {
	switch n := f.(type) {
	case TrueConst:
		return TruthTrue, nil
	case FalseConst:
		return TruthFalse, nil
	case SMTFormula:
		return evalSMTAtom(n.Atom), nil
	case StructuralPredicateFormula:
		resolved, ground := resolveArgs(n.Args)
		if !ground {
			return TruthUnknown, nil
		}
		ok, err := n.Predicate.Eval(ref, resolved)
		if err != nil {
			return TruthUnknown, err
		}
		if n.Negated {
			ok = !ok
		}
		return boolTruth(ok), nil
	case SemanticPredicateFormula:
		resolved, ground := resolveArgs(n.Args)
		if !ground {
			return TruthUnknown, nil
		}
		result, err := n.Predicate.Eval(g, ref, resolved)
		if err != nil {
			return TruthUnknown, err
		}
		switch result.Kind {
		case PredicateReadyTrue:
			return boolTruth(!n.Negated), nil
		case PredicateReadyFalse:
			return boolTruth(n.Negated), nil
		default:
			return TruthUnknown, nil
		}
	case ConjunctiveFormula:
		vals := make([]TruthValue, len(n.Conjuncts))
		for i, c := range n.Conjuncts {
			v, err := Evaluate(c, ref, g, fingerprint)
			if err != nil {
				return TruthUnknown, err
			}
			vals[i] = v
		}
		return TruthAll(vals...), nil
	case DisjunctiveFormula:
		vals := make([]TruthValue, len(n.Disjuncts))
		for i, d := range n.Disjuncts {
			v, err := Evaluate(d, ref, g, fingerprint)
			if err != nil {
				return TruthUnknown, err
			}
			vals[i] = v
		}
		return TruthAny(vals...), nil
	case NegatedFormula:
		v, err := Evaluate(n.Inner, ref, g, fingerprint)
		return TruthNot(v), err
	case ForallFormula:
		return evalForall(n, ref, g, fingerprint)
	case ExistsFormula:
		return evalExists(n, ref, g, fingerprint)
	case ForallIntFormula, ExistsIntFormula:
		// §4.10 simplification: without a concrete pool of known numeric
		// constants to range over at evaluation time, numeric quantifiers
		// are reported UNKNOWN rather than guessed at; the solver resolves
		// them during search instead (queue.go/solver.go), where concrete
		// integer witnesses are actually chosen.
		return TruthUnknown, nil
	default:
		return TruthUnknown, fmt.Errorf("isla: Evaluate: unhandled formula type %T", f)
	}
}

func boolTruth(b bool) TruthValue {
	if b {
		return TruthTrue
	}
	return TruthFalse
}

func evalForall(f ForallFormula, ref *Tree, g Grammar, fingerprint string) (TruthValue, error) {
	root := f.InTree
	if root == nil {
		return TruthUnknown, nil
	}
	matches := Matches(root, f.Bound, f.Bind)
	vals := make([]TruthValue, 0, len(matches))
	for _, m := range matches {
		substituted := SubstituteFormula(f.Inner, m)
		v, err := Evaluate(substituted, ref, g, fingerprint)
		if err != nil {
			return TruthUnknown, err
		}
		vals = append(vals, v)
	}
	result := TruthAll(vals...)
	if result == TruthFalse {
		return TruthFalse, nil
	}
	if forallVacuouslyTrue(f, root, g, fingerprint) {
		return result, nil
	}
	return TruthAll(result, TruthUnknown), nil
}

func evalExists(f ExistsFormula, ref *Tree, g Grammar, fingerprint string) (TruthValue, error) {
	root := f.InTree
	if root == nil {
		return TruthUnknown, nil
	}
	matches := Matches(root, f.Bound, f.Bind)
	vals := make([]TruthValue, 0, len(matches))
	for _, m := range matches {
		substituted := SubstituteFormula(f.Inner, m)
		v, err := Evaluate(substituted, ref, g, fingerprint)
		if err != nil {
			return TruthUnknown, err
		}
		vals = append(vals, v)
	}
	result := TruthAny(vals...)
	if result == TruthTrue {
		return TruthTrue, nil
	}
	if forallVacuouslyTrue(ForallFormula{Bound: f.Bound, InTree: f.InTree}, root, g, fingerprint) {
		return result, nil
	}
	return TruthAny(result, TruthUnknown), nil
}

// EvaluateClosed evaluates f against the complete reference tree t, bound
// to the conventional "start" constant (§4.9's usual top-level entry
// point): every free occurrence of start is substituted by t before
// evaluation begins.
func EvaluateClosed(f Formula, t *Tree, g Grammar, fingerprint string) (TruthValue, error) {
	start := NewConstant(StartConstant, t.Symbol().Name)
	match := Match{variableKey(start): {Var: start, Path: Path{}, Subtree: t}}
	grounded := SubstituteFormula(f, match)
	grounded = groundQuantifierRoots(grounded, t)
	return Evaluate(grounded, t, g, fingerprint)
}

// groundQuantifierRoots fixes InTree on every quantifier whose InVar names
// the start constant, since SubstituteFormula only grounds SMT/predicate
// variable references, not a quantifier's own "in" clause.
func groundQuantifierRoots(f Formula, t *Tree) Formula {
	start := NewConstant(StartConstant, t.Symbol().Name)
	return Transform(f, func(sub Formula) (Formula, bool) {
		switch n := sub.(type) {
		case ForallFormula:
			if n.InTree == nil && n.InVar != nil && n.InVar.Equal(start) {
				n.InTree = t
				return n, true
			}
		case ExistsFormula:
			if n.InTree == nil && n.InVar != nil && n.InVar.Equal(start) {
				n.InTree = t
				return n, true
			}
		}
		return sub, false
	})
}

// resolveSMTValue evaluates e to a concrete string value if every tree
// position and constant it mentions is already known; otherwise known is
// false, meaning "cannot be determined yet, not an error".
func resolveSMTValue(e SMTExpr) (value string, isInt bool, known bool) {
	switch t := e.(type) {
	case SMTStringConst:
		return t.S, false, true
	case SMTIntConst:
		return strconv.Itoa(t.N), true, true
	case SMTTreeRef:
		if !t.Node.IsComplete() {
			return "", false, false
		}
		return t.Node.Yield(), false, true
	case SMTVarRef:
		return "", false, false
	case SMTApp:
		switch t.Op {
		case OpConcat:
			var out string
			for _, a := range t.Args {
				v, _, k := resolveSMTValue(a)
				if !k {
					return "", false, false
				}
				out += v
			}
			return out, false, true
		case OpLen:
			v, _, k := resolveSMTValue(t.Args[0])
			if !k {
				return "", false, false
			}
			return strconv.Itoa(len(v)), true, true
		case OpToInt:
			v, _, k := resolveSMTValue(t.Args[0])
			if !k {
				return "", false, false
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return "", false, false
			}
			return strconv.Itoa(n), true, true
		}
	}
	return "", false, false
}

// evalSMTAtom evaluates a single SMT-theory atom to a TruthValue, deferring
// to UNKNOWN whenever one of its operands is not yet fully determined.
func evalSMTAtom(atom SMTExpr) TruthValue {
	app, ok := atom.(SMTApp)
	if !ok {
		return TruthUnknown
	}
	switch app.Op {
	case OpEq, OpNotEq, OpLe, OpLt, OpGe, OpGt:
		if len(app.Args) != 2 {
			return TruthUnknown
		}
		lv, lInt, lKnown := resolveSMTValue(app.Args[0])
		rv, rInt, rKnown := resolveSMTValue(app.Args[1])
		if !lKnown || !rKnown {
			return TruthUnknown
		}
		if app.Op == OpEq || app.Op == OpNotEq {
			eq := lv == rv
			if app.Op == OpNotEq {
				eq = !eq
			}
			return boolTruth(eq)
		}
		var li, ri int
		var err1, err2 error
		if lInt {
			li, err1 = strconv.Atoi(lv)
		} else {
			li, err1 = strconv.Atoi(lv)
		}
		if rInt {
			ri, err2 = strconv.Atoi(rv)
		} else {
			ri, err2 = strconv.Atoi(rv)
		}
		if err1 != nil || err2 != nil {
			return TruthUnknown
		}
		switch app.Op {
		case OpLe:
			return boolTruth(li <= ri)
		case OpLt:
			return boolTruth(li < ri)
		case OpGe:
			return boolTruth(li >= ri)
		case OpGt:
			return boolTruth(li > ri)
		}
		return TruthUnknown
	case OpInRegex:
		if len(app.Args) != 2 {
			return TruthUnknown
		}
		v, _, known := resolveSMTValue(app.Args[0])
		if !known {
			return TruthUnknown
		}
		pat, ok := app.Args[1].(SMTStringConst)
		if !ok {
			return TruthUnknown
		}
		re, err := CompileApprox(pat.S)
		if err != nil {
			return TruthUnknown
		}
		return boolTruth(re.MatchString(v))
	default:
		return TruthUnknown
	}
}

// QuickUnsat implements §12's "propositionally_unsatisfiable" fast path: a
// cheap, purely propositional syntactic check that rejects formulas which
// are unsatisfiable independent of any tree (e.g. `false`, or a conjunction
// containing both an atom and its negation), letting the solver short-
// circuit before spending any search effort. It is intentionally
// conservative: returning false never means "satisfiable", only "not
// syntactically refutable by this cheap check".
func QuickUnsat(f Formula) bool {
	switch n := f.(type) {
	case FalseConst:
		return true
	case ConjunctiveFormula:
		seenTrue := map[string]bool{}
		seenFalse := map[string]bool{}
		for _, c := range n.Conjuncts {
			if QuickUnsat(c) {
				return true
			}
			key, negated, ok := atomIdentity(c)
			if !ok {
				continue
			}
			if negated {
				seenFalse[key] = true
			} else {
				seenTrue[key] = true
			}
			if seenTrue[key] && seenFalse[key] {
				return true
			}
		}
		return false
	case DisjunctiveFormula:
		for _, d := range n.Disjuncts {
			if !QuickUnsat(d) {
				return false
			}
		}
		return len(n.Disjuncts) > 0
	default:
		return false
	}
}

// atomIdentity returns a stable key for a predicate atom plus whether it is
// negated, used by QuickUnsat to spot a literal contradicting its own
// negation within one conjunction.
func atomIdentity(f Formula) (key string, negated bool, ok bool) {
	switch n := f.(type) {
	case StructuralPredicateFormula:
		return fmt.Sprintf("%s(%s)", n.Predicate.Name(), argsString(n.Args)), n.Negated, true
	case SemanticPredicateFormula:
		return fmt.Sprintf("%s(%s)", n.Predicate.Name(), argsString(n.Args)), n.Negated, true
	default:
		return "", false, false
	}
}
