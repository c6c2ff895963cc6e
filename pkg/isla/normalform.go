package isla

import (
	"fmt"
	"sort"
	"strings"
)

// Normalize rewrites f into the DNF-like normal form required by §4.1: a
// disjunction of conjunctions, where each conjunction's conjuncts appear in
// the fixed order SMT atoms, predicate atoms, existential quantifiers,
// universal quantifiers. Negation is pushed inward until it only wraps
// predicate atoms (or, for SMT comparison atoms, is absorbed into the
// atom's relation symbol) or a quantifier (converted to its dual via De
// Morgan).
func Normalize(f Formula) Formula {
	pushed := pushNegations(f)
	dnf := toDNF(pushed)
	return reorderDisjuncts(dnf)
}

func pushNegations(f Formula) Formula {
	switch n := f.(type) {
	case NegatedFormula:
		return negate(pushNegations(n.Inner))
	case ConjunctiveFormula:
		parts := make([]Formula, len(n.Conjuncts))
		for i, c := range n.Conjuncts {
			parts[i] = pushNegations(c)
		}
		return And(parts...)
	case DisjunctiveFormula:
		parts := make([]Formula, len(n.Disjuncts))
		for i, d := range n.Disjuncts {
			parts[i] = pushNegations(d)
		}
		return Or(parts...)
	case ForallFormula:
		n.Inner = pushNegations(n.Inner)
		return n
	case ExistsFormula:
		n.Inner = pushNegations(n.Inner)
		return n
	case ForallIntFormula:
		n.Inner = pushNegations(n.Inner)
		return n
	case ExistsIntFormula:
		n.Inner = pushNegations(n.Inner)
		return n
	default:
		return f
	}
}

// negate builds the negation of an already-negation-pushed formula f,
// applying De Morgan/duality so the result has negation only immediately
// around predicate atoms (or an absorbed SMT relation symbol).
func negate(f Formula) Formula {
	switch n := f.(type) {
	case TrueConst:
		return FalseConst{}
	case FalseConst:
		return TrueConst{}
	case NegatedFormula:
		return n.Inner // double negation
	case ConjunctiveFormula:
		parts := make([]Formula, len(n.Conjuncts))
		for i, c := range n.Conjuncts {
			parts[i] = negate(c)
		}
		return Or(parts...)
	case DisjunctiveFormula:
		parts := make([]Formula, len(n.Disjuncts))
		for i, d := range n.Disjuncts {
			parts[i] = negate(d)
		}
		return And(parts...)
	case SMTFormula:
		if app, ok := n.Atom.(SMTApp); ok {
			if negatedOp, ok := negateRelation(app.Op); ok {
				return SMTFormula{Atom: SMTApp{Op: negatedOp, Args: app.Args}}
			}
		}
		return NegatedFormula{Inner: n}
	case StructuralPredicateFormula:
		n.Negated = !n.Negated
		return n
	case SemanticPredicateFormula:
		n.Negated = !n.Negated
		return n
	case ForallFormula:
		return ExistsFormula{Bound: n.Bound, InVar: n.InVar, InTree: n.InTree, Bind: n.Bind, Inner: negate(n.Inner), QID: n.QID}
	case ExistsFormula:
		return ForallFormula{Bound: n.Bound, InVar: n.InVar, InTree: n.InTree, Bind: n.Bind, Inner: negate(n.Inner), QID: n.QID}
	case ForallIntFormula:
		return ExistsIntFormula{Bound: n.Bound, Inner: negate(n.Inner)}
	case ExistsIntFormula:
		return ForallIntFormula{Bound: n.Bound, Inner: negate(n.Inner)}
	default:
		return NegatedFormula{Inner: f}
	}
}

func negateRelation(op string) (string, bool) {
	switch op {
	case OpEq:
		return OpNotEq, true
	case OpNotEq:
		return OpEq, true
	case OpLe:
		return OpGt, true
	case OpLt:
		return OpGe, true
	case OpGe:
		return OpLt, true
	case OpGt:
		return OpLe, true
	default:
		return "", false
	}
}

// toDNF distributes conjunction over disjunction bottom-up, producing a
// DisjunctiveFormula of ConjunctiveFormulas (or a single non-disjunctive
// conjunction when there is exactly one disjunct).
func toDNF(f Formula) Formula {
	switch n := f.(type) {
	case ConjunctiveFormula:
		disjunctLists := [][]Formula{{}}
		for _, c := range n.Conjuncts {
			dnfC := toDNF(c)
			cDisjuncts := disjunctsOf(dnfC)
			var next [][]Formula
			for _, existing := range disjunctLists {
				for _, d := range cDisjuncts {
					combined := make([]Formula, len(existing)+1)
					copy(combined, existing)
					combined[len(existing)] = d
					next = append(next, combined)
				}
			}
			disjunctLists = next
		}
		disjuncts := make([]Formula, len(disjunctLists))
		for i, conjList := range disjunctLists {
			disjuncts[i] = And(conjList...)
		}
		return Or(disjuncts...)
	case DisjunctiveFormula:
		var all []Formula
		for _, d := range n.Disjuncts {
			all = append(all, disjunctsOf(toDNF(d))...)
		}
		return Or(all...)
	default:
		return f
	}
}

func disjunctsOf(f Formula) []Formula {
	if d, ok := f.(DisjunctiveFormula); ok {
		return d.Disjuncts
	}
	return []Formula{f}
}

// conjunctCategory assigns each conjunct its position in §4.1's fixed
// order: SMT atoms (0), predicate atoms (1), existentials (2), universals
// (3). Anything else (True/False constants, a residual bare negation)
// sorts alongside predicate atoms.
func conjunctCategory(f Formula) int {
	switch f.(type) {
	case SMTFormula:
		return 0
	case ExistsFormula, ExistsIntFormula:
		return 2
	case ForallFormula, ForallIntFormula:
		return 3
	default:
		return 1
	}
}

// reorderDisjuncts sorts each conjunction's conjuncts into the fixed order
// required by §4.1, using a stable sort so relative order within a
// category (e.g. among several SMT atoms) is preserved.
func reorderDisjuncts(f Formula) Formula {
	switch n := f.(type) {
	case DisjunctiveFormula:
		parts := make([]Formula, len(n.Disjuncts))
		for i, d := range n.Disjuncts {
			parts[i] = reorderConjunction(d)
		}
		return Or(parts...)
	case ConjunctiveFormula:
		return reorderConjunction(n)
	default:
		return f
	}
}

func reorderConjunction(f Formula) Formula {
	conj, ok := f.(ConjunctiveFormula)
	if !ok {
		return f
	}
	sorted := make([]Formula, len(conj.Conjuncts))
	copy(sorted, conj.Conjuncts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return conjunctCategory(sorted[i]) < conjunctCategory(sorted[j])
	})
	return ConjunctiveFormula{Conjuncts: sorted}
}

// CheckInvariant verifies the normal-form invariant of §4.1 defensively,
// returning an *InvariantError describing the first violation found (§7:
// "fail fast" on programmer error). Call this before each solver dispatch
// in debug/test builds; Normalize is expected to always produce an
// invariant-respecting formula, so a violation here indicates a bug in
// Normalize or in manually constructed Formula values bypassing it.
func CheckInvariant(f Formula) error {
	disjuncts := disjunctsOf(f)
	for _, d := range disjuncts {
		if _, ok := d.(DisjunctiveFormula); ok {
			return &InvariantError{Reason: "disjunction nested inside a conjunction"}
		}
		conjuncts := conjunctsOf(d)
		lastCategory := -1
		var foralls []ForallFormula
		for _, c := range conjuncts {
			if _, ok := c.(DisjunctiveFormula); ok {
				return &InvariantError{Reason: "disjunction found inside a conjunct"}
			}
			cat := conjunctCategory(c)
			if cat < lastCategory {
				return &InvariantError{Reason: "conjuncts out of order: expected SMT, predicate, exists, forall"}
			}
			lastCategory = cat
			if neg, ok := c.(NegatedFormula); ok {
				switch neg.Inner.(type) {
				case StructuralPredicateFormula, SemanticPredicateFormula:
				default:
					return &InvariantError{Reason: "negation is permitted only immediately around a predicate atom"}
				}
			}
			if ff, ok := c.(ForallFormula); ok {
				foralls = append(foralls, ff)
			}
		}
		if err := checkNoOverlappingForallPrefixes(foralls); err != nil {
			return err
		}
	}
	return nil
}

func conjunctsOf(f Formula) []Formula {
	if c, ok := f.(ConjunctiveFormula); ok {
		return c.Conjuncts
	}
	return []Formula{f}
}

// checkNoOverlappingForallPrefixes enforces: among co-occurring universal
// formulas in one disjunct, no two of their bound tree prefixes (bind
// expression literal skeletons) may be a prefix of the other, which would
// make matching ambiguous (§4.1).
func checkNoOverlappingForallPrefixes(foralls []ForallFormula) error {
	skeletons := make([]string, len(foralls))
	for i, f := range foralls {
		skeletons[i] = bindSkeleton(f.Bind)
	}
	for i := range skeletons {
		for j := range skeletons {
			if i == j || skeletons[i] == "" || skeletons[j] == "" {
				continue
			}
			if strings.HasPrefix(skeletons[j], skeletons[i]) && skeletons[i] != skeletons[j] {
				return &InvariantError{Reason: fmt.Sprintf(
					"universal quantifiers %d and %d have overlapping bind prefixes", i, j)}
			}
		}
	}
	return nil
}

func bindSkeleton(b *BindExpression) string {
	if b == nil {
		return ""
	}
	var sb strings.Builder
	for _, e := range b.Elements {
		if e.IsHole() {
			sb.WriteString("\x00")
		} else {
			sb.WriteString(e.Literal)
		}
	}
	return sb.String()
}
