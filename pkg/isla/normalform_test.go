package isla

import "testing"

func predAtom(name string) Formula {
	return StructuralPredicateFormula{Predicate: testBeforePredicate{}, Args: []PredicateArg{NewLiteralArg(name)}}
}

func smtAtom(n int) Formula {
	return SMTFormula{Atom: Eq(SMTIntConst{N: n}, SMTIntConst{N: n})}
}

func TestNormalizeOrdersConjunctsByCategory(t *testing.T) {
	start := NewConstant(StartConstant, "<start>")
	bound := NewBoundVariable("x", "<var>")
	forall := NewForall(bound, start, nil, TrueConst{})
	exists := NewExists(bound, start, nil, TrueConst{})

	f := And(forall, predAtom("p"), exists, smtAtom(1))
	got := Normalize(f)

	conj, ok := got.(ConjunctiveFormula)
	if !ok {
		t.Fatalf("Normalize() did not produce a ConjunctiveFormula: %T", got)
	}
	gotCats := make([]int, len(conj.Conjuncts))
	for i, c := range conj.Conjuncts {
		gotCats[i] = conjunctCategory(c)
	}
	want := []int{0, 1, 2, 3}
	for i, c := range gotCats {
		if c != want[i] {
			t.Errorf("Normalize() conjunct %d has category %d, want non-decreasing starting at SMT(0); got order %v", i, c, gotCats)
			break
		}
	}
	if err := CheckInvariant(got); err != nil {
		t.Errorf("CheckInvariant() on Normalize's output = %v, want nil", err)
	}
}

func TestNormalizeDistributesConjunctionOverDisjunction(t *testing.T) {
	f := And(Or(predAtom("a"), predAtom("b")), predAtom("c"))
	got := Normalize(f)

	disj, ok := got.(DisjunctiveFormula)
	if !ok {
		t.Fatalf("Normalize(And(Or(a,b), c)) did not produce a DisjunctiveFormula: %T", got)
	}
	if len(disj.Disjuncts) != 2 {
		t.Fatalf("Normalize(And(Or(a,b), c)) has %d disjuncts, want 2", len(disj.Disjuncts))
	}
	for _, d := range disj.Disjuncts {
		if _, ok := d.(ConjunctiveFormula); !ok {
			if _, ok2 := d.(StructuralPredicateFormula); !ok2 {
				t.Errorf("disjunct %v is neither a conjunction nor a bare atom", d)
			}
		}
	}
}

func TestNegateInvolutionAndDeMorgan(t *testing.T) {
	a, b := predAtom("a"), predAtom("b")
	f := NegatedFormula{Inner: And(a, b)}
	got := Normalize(f)

	disj, ok := got.(DisjunctiveFormula)
	if !ok {
		t.Fatalf("not(a and b), normalized = %T, want a disjunction (De Morgan)", got)
	}
	if len(disj.Disjuncts) != 2 {
		t.Errorf("not(a and b) normalized to %d disjuncts, want 2", len(disj.Disjuncts))
	}
	for _, d := range disj.Disjuncts {
		sp, ok := d.(StructuralPredicateFormula)
		if !ok {
			t.Fatalf("disjunct %v is not a StructuralPredicateFormula", d)
		}
		if !sp.Negated {
			t.Errorf("disjunct %v lost its negation under De Morgan", d)
		}
	}
}

func TestNegateSMTRelationAbsorbsIntoOperator(t *testing.T) {
	atom := SMTFormula{Atom: Eq(SMTVarRef{V: NewConstant("x", "<x>")}, SMTStringConst{S: "y"})}
	got := negate(atom)
	smt, ok := got.(SMTFormula)
	if !ok {
		t.Fatalf("negate(a=b) = %T, want SMTFormula with absorbed != operator", got)
	}
	app, ok := smt.Atom.(SMTApp)
	if !ok || app.Op != OpNotEq {
		t.Errorf("negate(a=b) operator = %v, want %q", smt.Atom, OpNotEq)
	}
}

func TestNegateQuantifierDualizes(t *testing.T) {
	start := NewConstant(StartConstant, "<start>")
	bound := NewBoundVariable("x", "<var>")
	forall := NewForall(bound, start, nil, predAtom("p"))

	got := negate(forall)
	ex, ok := got.(ExistsFormula)
	if !ok {
		t.Fatalf("negate(forall) = %T, want ExistsFormula", got)
	}
	if ex.Bound != bound {
		t.Errorf("negate(forall) changed the bound variable")
	}
}

func TestCheckInvariantRejectsOutOfOrderConjuncts(t *testing.T) {
	start := NewConstant(StartConstant, "<start>")
	bound := NewBoundVariable("x", "<var>")
	forall := NewForall(bound, start, nil, TrueConst{})
	// Deliberately bypass Normalize to build an out-of-order conjunction.
	bad := ConjunctiveFormula{Conjuncts: []Formula{forall, smtAtom(1)}}
	if err := CheckInvariant(bad); err == nil {
		t.Errorf("CheckInvariant() accepted a forall-before-SMT-atom conjunction")
	}
}

func TestCheckInvariantRejectsNestedDisjunction(t *testing.T) {
	bad := ConjunctiveFormula{Conjuncts: []Formula{DisjunctiveFormula{Disjuncts: []Formula{predAtom("a"), predAtom("b")}}}}
	if err := CheckInvariant(bad); err == nil {
		t.Errorf("CheckInvariant() accepted a disjunction nested inside a conjunction")
	}
}
