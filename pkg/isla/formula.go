package isla

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Formula is the closed algebraic data type of §2/§3: SMT atom, structural
// predicate call, semantic predicate call, conjunction, disjunction,
// negation, universal/existential quantifier over tree positions, numeric
// quantifiers, and the true/false constants. Every pass over a Formula is a
// total type switch over these variants (e.g. Transform, FreeVariables); there
// is no open interface hierarchy to extend.
type Formula interface {
	isFormula()
	String() string
}

var quantifierIDSeq atomic.Int64

// QuantifierID uniquely identifies one quantifier occurrence in a formula,
// used as the key of SolutionState.AlreadyMatched (§3, §4.6).
type QuantifierID int64

func nextQuantifierID() QuantifierID {
	return QuantifierID(quantifierIDSeq.Add(1))
}

// ---- Constants ----

// TrueConst is the formula that is always true.
type TrueConst struct{}

func (TrueConst) isFormula()     {}
func (TrueConst) String() string { return "true" }

// FalseConst is the formula that is always false.
type FalseConst struct{}

func (FalseConst) isFormula()     {}
func (FalseConst) String() string { return "false" }

// ---- SMT atom ----

// SMTFormula wraps a single quantifier-free string-theory atom (no nested
// logical connectives or quantifiers: §4.1 forbids those inside one SMT
// atom). Atom is built from the small SMTExpr expression language in
// smt.go.
type SMTFormula struct {
	Atom SMTExpr
}

func (SMTFormula) isFormula()       {}
func (f SMTFormula) String() string { return f.Atom.String() }

// ---- Predicate atoms ----

// PredicateArg is one argument of a structural or semantic predicate call:
// a reference to a Variable (not yet resolved), a literal Go value, or a
// ground tree position (GroundPath/GroundTree), produced once quantifier
// elimination (§4.5, §4.6) has substituted a matched or inserted subtree
// for the Variable that originally appeared here.
type PredicateArg struct {
	Var        Variable
	Literal    interface{}
	GroundPath Path
	GroundTree *Tree
	isVar      bool
	isGround   bool
}

// NewVarArg builds a variable-reference predicate argument.
func NewVarArg(v Variable) PredicateArg { return PredicateArg{Var: v, isVar: true} }

// NewLiteralArg builds a literal predicate argument.
func NewLiteralArg(v interface{}) PredicateArg { return PredicateArg{Literal: v} }

// NewGroundArg builds a ground tree-position predicate argument.
func NewGroundArg(path Path, tree *Tree) PredicateArg {
	return PredicateArg{GroundPath: path, GroundTree: tree, isGround: true}
}

// IsVar reports whether this argument still names an unresolved Variable.
func (a PredicateArg) IsVar() bool { return a.isVar }

// IsGround reports whether this argument has been resolved to a tree
// position.
func (a PredicateArg) IsGround() bool { return a.isGround }

func (a PredicateArg) String() string {
	switch {
	case a.isVar:
		return a.Var.Name()
	case a.isGround:
		return a.GroundTree.String()
	default:
		return fmt.Sprintf("%v", a.Literal)
	}
}

// StructuralPredicateFormula calls a pure structural predicate (§6) on its
// grounded arguments.
type StructuralPredicateFormula struct {
	Predicate StructuralPredicate
	Args      []PredicateArg
	Negated   bool // §4.1: negation is permitted only immediately around a predicate atom
}

func (StructuralPredicateFormula) isFormula() {}
func (f StructuralPredicateFormula) String() string {
	s := fmt.Sprintf("%s(%s)", f.Predicate.Name(), argsString(f.Args))
	if f.Negated {
		return "not " + s
	}
	return s
}

// SemanticPredicateFormula calls a semantic predicate (§6) which may, once
// its arguments are grounded, propose a substitution rather than a plain
// boolean (§4.3 step 1).
type SemanticPredicateFormula struct {
	Predicate SemanticPredicate
	Args      []PredicateArg
	Negated   bool
}

func (SemanticPredicateFormula) isFormula() {}
func (f SemanticPredicateFormula) String() string {
	s := fmt.Sprintf("%s(%s)", f.Predicate.Name(), argsString(f.Args))
	if f.Negated {
		return "not " + s
	}
	return s
}

func argsString(args []PredicateArg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// ---- Propositional combinators ----

// ConjunctiveFormula is a (possibly empty, meaning true) conjunction of
// conjuncts. §4.1 requires a fixed conjunct order within a normalized
// disjunct (SMT atoms, predicate atoms, existentials, universals); that
// order is enforced by normalform.go, not by this constructor.
type ConjunctiveFormula struct {
	Conjuncts []Formula
}

// And builds a conjunction, flattening nested ConjunctiveFormulas.
func And(fs ...Formula) Formula {
	var out []Formula
	for _, f := range fs {
		if c, ok := f.(ConjunctiveFormula); ok {
			out = append(out, c.Conjuncts...)
			continue
		}
		if _, ok := f.(TrueConst); ok {
			continue
		}
		out = append(out, f)
	}
	for _, f := range out {
		if _, ok := f.(FalseConst); ok {
			return FalseConst{}
		}
	}
	if len(out) == 0 {
		return TrueConst{}
	}
	if len(out) == 1 {
		return out[0]
	}
	return ConjunctiveFormula{Conjuncts: out}
}

func (ConjunctiveFormula) isFormula() {}
func (f ConjunctiveFormula) String() string {
	parts := make([]string, len(f.Conjuncts))
	for i, c := range f.Conjuncts {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " and ") + ")"
}

// DisjunctiveFormula is a (non-empty) disjunction of disjuncts.
type DisjunctiveFormula struct {
	Disjuncts []Formula
}

// Or builds a disjunction, flattening nested DisjunctiveFormulas.
func Or(fs ...Formula) Formula {
	var out []Formula
	for _, f := range fs {
		if d, ok := f.(DisjunctiveFormula); ok {
			out = append(out, d.Disjuncts...)
			continue
		}
		if _, ok := f.(FalseConst); ok {
			continue
		}
		out = append(out, f)
	}
	for _, f := range out {
		if _, ok := f.(TrueConst); ok {
			return TrueConst{}
		}
	}
	if len(out) == 0 {
		return FalseConst{}
	}
	if len(out) == 1 {
		return out[0]
	}
	return DisjunctiveFormula{Disjuncts: out}
}

func (DisjunctiveFormula) isFormula() {}
func (f DisjunctiveFormula) String() string {
	parts := make([]string, len(f.Disjuncts))
	for i, d := range f.Disjuncts {
		parts[i] = d.String()
	}
	return "(" + strings.Join(parts, " or ") + ")"
}

// NegatedFormula negates its inner formula. §4.1's normal form only
// tolerates this immediately around a predicate atom; other uses are
// eliminated by normalform.go's pushNegations pass before dispatch.
type NegatedFormula struct{ Inner Formula }

func (NegatedFormula) isFormula()     {}
func (f NegatedFormula) String() string { return "not " + f.Inner.String() }

// ---- Quantifiers over tree positions ----

// ForallFormula is `forall Bound in InVar: Inner`, optionally constrained
// by a Bind expression fixing the shape of the matched subtree (§3, §4.2).
// When InTree is non-nil the quantifier ranges over a concrete ground tree
// (used by the evaluator applied to a closed reference tree) rather than a
// Variable resolved from the enclosing SolutionState.
type ForallFormula struct {
	Bound   BoundVariable
	InVar   Variable
	InTree  *Tree
	Bind    *BindExpression
	Inner   Formula
	QID     QuantifierID
}

// NewForall builds a ForallFormula over a variable, assigning it a fresh
// QuantifierID.
func NewForall(bound BoundVariable, inVar Variable, bind *BindExpression, inner Formula) ForallFormula {
	return ForallFormula{Bound: bound, InVar: inVar, Bind: bind, Inner: inner, QID: nextQuantifierID()}
}

func (ForallFormula) isFormula() {}
func (f ForallFormula) String() string {
	return fmt.Sprintf("forall %s in %s: %s", f.Bound.Name(), inVarName(f.InVar, f.InTree), f.Inner.String())
}

// ExistsFormula is `exists Bound in InVar: Inner`, the dual of ForallFormula
// (§4.5).
type ExistsFormula struct {
	Bound  BoundVariable
	InVar  Variable
	InTree *Tree
	Bind   *BindExpression
	Inner  Formula
	QID    QuantifierID
}

// NewExists builds an ExistsFormula, assigning it a fresh QuantifierID.
func NewExists(bound BoundVariable, inVar Variable, bind *BindExpression, inner Formula) ExistsFormula {
	return ExistsFormula{Bound: bound, InVar: inVar, Bind: bind, Inner: inner, QID: nextQuantifierID()}
}

func (ExistsFormula) isFormula() {}
func (f ExistsFormula) String() string {
	return fmt.Sprintf("exists %s in %s: %s", f.Bound.Name(), inVarName(f.InVar, f.InTree), f.Inner.String())
}

func inVarName(v Variable, t *Tree) string {
	if v != nil {
		return v.Name()
	}
	if t != nil {
		return t.String()
	}
	return "?"
}

// ForallIntFormula is `forall int Bound: Inner`, ranging over all integers
// currently bound as numeric constants known to the enclosing context
// (§4.10 instantiates these from known numeric constants).
type ForallIntFormula struct {
	Bound BoundVariable
	Inner Formula
}

func (ForallIntFormula) isFormula() {}
func (f ForallIntFormula) String() string {
	return fmt.Sprintf("forall int %s: %s", f.Bound.Name(), f.Inner.String())
}

// ExistsIntFormula is `exists int Bound: Inner`.
type ExistsIntFormula struct {
	Bound BoundVariable
	Inner Formula
}

func (ExistsIntFormula) isFormula() {}
func (f ExistsIntFormula) String() string {
	return fmt.Sprintf("exists int %s: %s", f.Bound.Name(), f.Inner.String())
}

// ---- Free/bound variable collection (§12 "VariablesCollector-equivalent") ----

// FreeVariables returns the free variables of f: Constants always free,
// and any BoundVariable not (yet) bound by an enclosing quantifier in f.
func FreeVariables(f Formula) []Variable {
	bound := map[string]bool{}
	seen := map[string]bool{}
	var out []Variable
	var walk func(Formula)
	add := func(v Variable) {
		if v == nil || bound[variableKey(v)] {
			return
		}
		k := variableKey(v)
		if !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
	}
	walkArgs := func(args []PredicateArg) {
		for _, a := range args {
			if a.IsVar() {
				add(a.Var)
			}
		}
	}
	walk = func(f Formula) {
		switch n := f.(type) {
		case TrueConst, FalseConst:
		case SMTFormula:
			for _, v := range n.Atom.Variables() {
				add(v)
			}
		case StructuralPredicateFormula:
			walkArgs(n.Args)
		case SemanticPredicateFormula:
			walkArgs(n.Args)
		case ConjunctiveFormula:
			for _, c := range n.Conjuncts {
				walk(c)
			}
		case DisjunctiveFormula:
			for _, d := range n.Disjuncts {
				walk(d)
			}
		case NegatedFormula:
			walk(n.Inner)
		case ForallFormula:
			if n.InVar != nil {
				add(n.InVar)
			}
			was := bound[variableKey(n.Bound)]
			bound[variableKey(n.Bound)] = true
			for _, h := range n.Bind.HoleVariables() {
				bound[variableKey(h)] = true
			}
			walk(n.Inner)
			bound[variableKey(n.Bound)] = was
		case ExistsFormula:
			if n.InVar != nil {
				add(n.InVar)
			}
			was := bound[variableKey(n.Bound)]
			bound[variableKey(n.Bound)] = true
			for _, h := range n.Bind.HoleVariables() {
				bound[variableKey(h)] = true
			}
			walk(n.Inner)
			bound[variableKey(n.Bound)] = was
		case ForallIntFormula:
			was := bound[variableKey(n.Bound)]
			bound[variableKey(n.Bound)] = true
			walk(n.Inner)
			bound[variableKey(n.Bound)] = was
		case ExistsIntFormula:
			was := bound[variableKey(n.Bound)]
			bound[variableKey(n.Bound)] = true
			walk(n.Inner)
			bound[variableKey(n.Bound)] = was
		}
	}
	walk(f)
	return out
}

// BoundVariables returns every BoundVariable introduced by a quantifier or
// bind expression anywhere in f (not just those currently in scope).
func BoundVariables(f Formula) []Variable {
	seen := map[string]bool{}
	var out []Variable
	add := func(v Variable) {
		k := variableKey(v)
		if !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
	}
	var walk func(Formula)
	walk = func(f Formula) {
		switch n := f.(type) {
		case ConjunctiveFormula:
			for _, c := range n.Conjuncts {
				walk(c)
			}
		case DisjunctiveFormula:
			for _, d := range n.Disjuncts {
				walk(d)
			}
		case NegatedFormula:
			walk(n.Inner)
		case ForallFormula:
			add(n.Bound)
			for _, h := range n.Bind.HoleVariables() {
				add(h)
			}
			walk(n.Inner)
		case ExistsFormula:
			add(n.Bound)
			for _, h := range n.Bind.HoleVariables() {
				add(h)
			}
			walk(n.Inner)
		case ForallIntFormula:
			add(n.Bound)
			walk(n.Inner)
		case ExistsIntFormula:
			add(n.Bound)
			walk(n.Inner)
		}
	}
	walk(f)
	return out
}

// ---- Generic rewrite (§12 "FilterVisitor/replace_formula-equivalent") ----

// Transform performs a bottom-up rewrite of f: fn is applied to every
// subformula after its children have already been transformed; if fn
// returns (replacement, true) the replacement is substituted, otherwise the
// (possibly rebuilt) node is kept as-is. Used by normalform.go and
// quantifier.go instead of hand-duplicating a tree-walk per pass: a single
// recursive traversal reused by multiple callers.
func Transform(f Formula, fn func(Formula) (Formula, bool)) Formula {
	rebuilt := f
	switch n := f.(type) {
	case ConjunctiveFormula:
		newConjuncts := make([]Formula, len(n.Conjuncts))
		for i, c := range n.Conjuncts {
			newConjuncts[i] = Transform(c, fn)
		}
		rebuilt = And(newConjuncts...)
	case DisjunctiveFormula:
		newDisjuncts := make([]Formula, len(n.Disjuncts))
		for i, d := range n.Disjuncts {
			newDisjuncts[i] = Transform(d, fn)
		}
		rebuilt = Or(newDisjuncts...)
	case NegatedFormula:
		rebuilt = NegatedFormula{Inner: Transform(n.Inner, fn)}
	case ForallFormula:
		n.Inner = Transform(n.Inner, fn)
		rebuilt = n
	case ExistsFormula:
		n.Inner = Transform(n.Inner, fn)
		rebuilt = n
	case ForallIntFormula:
		n.Inner = Transform(n.Inner, fn)
		rebuilt = n
	case ExistsIntFormula:
		n.Inner = Transform(n.Inner, fn)
		rebuilt = n
	}
	if replacement, ok := fn(rebuilt); ok {
		return replacement
	}
	return rebuilt
}
