package isla

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestAndFlattensDropsTrueShortCircuitsFalse(t *testing.T) {
	p := StructuralPredicateFormula{Predicate: testBeforePredicate{}, Args: []PredicateArg{NewLiteralArg(1), NewLiteralArg(2)}}

	if got := And(); got != (TrueConst{}) {
		t.Errorf("And() with no conjuncts = %v, want TrueConst", got)
	}
	if got := And(p); !reflect.DeepEqual(got, Formula(p)) {
		t.Errorf("And(p) = %v, want p unwrapped", got)
	}
	if got := And(TrueConst{}, p); !reflect.DeepEqual(got, Formula(p)) {
		t.Errorf("And(true, p) = %v, want p alone (true dropped)", got)
	}
	if got := And(p, FalseConst{}); got != (FalseConst{}) {
		t.Errorf("And(p, false) = %v, want FalseConst (short-circuit)", got)
	}

	nested := And(And(p, p), p)
	conj, ok := nested.(ConjunctiveFormula)
	if !ok {
		t.Fatalf("And(And(p,p), p) did not produce a ConjunctiveFormula: %T", nested)
	}
	if len(conj.Conjuncts) != 3 {
		t.Errorf("nested And did not flatten: got %d conjuncts, want 3", len(conj.Conjuncts))
	}
}

func TestOrFlattensDropsFalseShortCircuitsTrue(t *testing.T) {
	p := StructuralPredicateFormula{Predicate: testBeforePredicate{}, Args: []PredicateArg{NewLiteralArg(1), NewLiteralArg(2)}}

	if got := Or(); got != (FalseConst{}) {
		t.Errorf("Or() with no disjuncts = %v, want FalseConst", got)
	}
	if got := Or(FalseConst{}, p); !reflect.DeepEqual(got, Formula(p)) {
		t.Errorf("Or(false, p) = %v, want p alone (false dropped)", got)
	}
	if got := Or(p, TrueConst{}); got != (TrueConst{}) {
		t.Errorf("Or(p, true) = %v, want TrueConst (short-circuit)", got)
	}

	nested := Or(Or(p, p), p)
	disj, ok := nested.(DisjunctiveFormula)
	if !ok {
		t.Fatalf("Or(Or(p,p), p) did not produce a DisjunctiveFormula: %T", nested)
	}
	if len(disj.Disjuncts) != 3 {
		t.Errorf("nested Or did not flatten: got %d disjuncts, want 3", len(disj.Disjuncts))
	}
}

func TestFreeVariablesExcludesQuantifierBoundAndHoles(t *testing.T) {
	start := NewConstant("start", "<start>")
	bound := NewBoundVariable("u", "<use>")
	hole := NewBoundVariable("uv", "<var>")
	free := NewConstant("extra", "<var>")

	bind := NewBindExpression(NewBindHole(hole))
	inner := And(
		StructuralPredicateFormula{Predicate: testBeforePredicate{}, Args: []PredicateArg{NewVarArg(hole), NewVarArg(free)}},
	)
	f := NewForall(bound, start, bind, inner)

	got := FreeVariables(f)
	want := []Variable{start, free}
	opt := cmpopts.SortSlices(func(a, b Variable) bool { return a.Name() < b.Name() })
	if diff := cmp.Diff(want, got, opt); diff != "" {
		t.Errorf("FreeVariables() mismatch (-want +got):\n%s", diff)
	}
}

func TestBoundVariablesCollectsQuantifiedAndHoles(t *testing.T) {
	start := NewConstant("start", "<start>")
	bound := NewBoundVariable("u", "<use>")
	hole := NewBoundVariable("uv", "<var>")
	bind := NewBindExpression(NewBindHole(hole))
	f := NewForall(bound, start, bind, TrueConst{})

	got := BoundVariables(f)
	want := []Variable{bound, hole}
	opt := cmpopts.SortSlices(func(a, b Variable) bool { return a.Name() < b.Name() })
	if diff := cmp.Diff(want, got, opt); diff != "" {
		t.Errorf("BoundVariables() mismatch (-want +got):\n%s", diff)
	}
}

func TestTransformBottomUpRewrite(t *testing.T) {
	p := StructuralPredicateFormula{Predicate: testBeforePredicate{}, Args: []PredicateArg{NewLiteralArg(1), NewLiteralArg(2)}}
	f := And(p, p)

	rewritten := Transform(f, func(n Formula) (Formula, bool) {
		if _, ok := n.(StructuralPredicateFormula); ok {
			return TrueConst{}, true
		}
		return nil, false
	})

	if rewritten != (TrueConst{}) {
		t.Errorf("Transform(And(p,p)) with p->true rewrite = %v, want TrueConst (And drops true conjuncts down to empty -> true)", rewritten)
	}
}
