package isla

import "testing"

func TestTruthAllKleeneLaws(t *testing.T) {
	if got := TruthAll(TruthTrue, TruthTrue); got != TruthTrue {
		t.Errorf("TruthAll(T,T) = %v, want TRUE", got)
	}
	if got := TruthAll(TruthTrue, TruthFalse, TruthUnknown); got != TruthFalse {
		t.Errorf("TruthAll(T,F,U) = %v, want FALSE (false dominates)", got)
	}
	if got := TruthAll(TruthTrue, TruthUnknown); got != TruthUnknown {
		t.Errorf("TruthAll(T,U) = %v, want UNKNOWN", got)
	}
}

func TestTruthAnyKleeneLaws(t *testing.T) {
	if got := TruthAny(TruthFalse, TruthFalse); got != TruthFalse {
		t.Errorf("TruthAny(F,F) = %v, want FALSE", got)
	}
	if got := TruthAny(TruthFalse, TruthTrue, TruthUnknown); got != TruthTrue {
		t.Errorf("TruthAny(F,T,U) = %v, want TRUE (true dominates)", got)
	}
	if got := TruthAny(TruthFalse, TruthUnknown); got != TruthUnknown {
		t.Errorf("TruthAny(F,U) = %v, want UNKNOWN", got)
	}
}

func TestTruthNotLeavesUnknownFixed(t *testing.T) {
	if TruthNot(TruthTrue) != TruthFalse {
		t.Errorf("TruthNot(TRUE) != FALSE")
	}
	if TruthNot(TruthFalse) != TruthTrue {
		t.Errorf("TruthNot(FALSE) != TRUE")
	}
	if TruthNot(TruthUnknown) != TruthUnknown {
		t.Errorf("TruthNot(UNKNOWN) != UNKNOWN")
	}
}

func TestEvaluateUngroundedPredicateIsUnknown(t *testing.T) {
	v := NewBoundVariable("x", "<var>")
	f := StructuralPredicateFormula{Predicate: testBeforePredicate{}, Args: []PredicateArg{NewVarArg(v), NewVarArg(v)}}
	got, err := Evaluate(f, NewOpenLeaf(nt("<start>")), nil, "eval-ungrounded")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if got != TruthUnknown {
		t.Errorf("Evaluate() on a predicate over unresolved variables = %v, want UNKNOWN", got)
	}
}

// buildAssignUseTree builds a complete two-statement derivation in
// assignmentGrammar(): "<assign-var>:=0;<use-var>".
func buildAssignUseTree(assignLetter, useLetter string) *Tree {
	varNode := func(letter string) *Tree { return NewInner(nt("<var>"), NewTerminalLeaf(letter)) }
	digit := NewInner(nt("<digit>"), NewTerminalLeaf("0"))
	assign := NewInner(nt("<assign>"), varNode(assignLetter), NewTerminalLeaf(":="), digit)
	assignStmt := NewInner(nt("<stmt>"), assign)
	use := NewInner(nt("<use>"), varNode(useLetter))
	useStmt := NewInner(nt("<stmt>"), use)
	innerStmts := NewInner(nt("<stmts>"), useStmt)
	outerStmts := NewInner(nt("<stmts>"), assignStmt, NewTerminalLeaf(";"), innerStmts)
	return NewInner(nt("<start>"), outerStmts)
}

func TestEvaluateClosedDefBeforeUseTrueWhenVariablesMatch(t *testing.T) {
	tree := buildAssignUseTree("a", "a")
	got, err := EvaluateClosed(defBeforeUseFormula(), tree, assignmentGrammar(), "evaluator-defbeforeuse")
	if err != nil {
		t.Fatalf("EvaluateClosed() error = %v", err)
	}
	if got != TruthTrue {
		t.Errorf("EvaluateClosed() on a well-formed def-before-use tree = %v, want TRUE", got)
	}
}

func TestEvaluateClosedDefBeforeUseFalseWhenVariablesDiffer(t *testing.T) {
	tree := buildAssignUseTree("a", "b")
	got, err := EvaluateClosed(defBeforeUseFormula(), tree, assignmentGrammar(), "evaluator-defbeforeuse")
	if err != nil {
		t.Fatalf("EvaluateClosed() error = %v", err)
	}
	if got != TruthFalse {
		t.Errorf("EvaluateClosed() on a tree using an undefined variable = %v, want FALSE", got)
	}
}

func TestQuickUnsatDetectsFalseConst(t *testing.T) {
	if !QuickUnsat(FalseConst{}) {
		t.Errorf("QuickUnsat(false) = false, want true")
	}
	if QuickUnsat(TrueConst{}) {
		t.Errorf("QuickUnsat(true) = true, want false")
	}
}

func TestQuickUnsatDetectsAtomAndItsNegation(t *testing.T) {
	p := StructuralPredicateFormula{Predicate: testBeforePredicate{}, Args: []PredicateArg{NewLiteralArg(1), NewLiteralArg(2)}}
	notP := p
	notP.Negated = true

	f := And(p, notP)
	if !QuickUnsat(f) {
		t.Errorf("QuickUnsat(p and not p) = false, want true")
	}

	fOK := And(p, predAtom("other"))
	if QuickUnsat(fOK) {
		t.Errorf("QuickUnsat(p and other) = true, want false (no contradiction)")
	}
}

func TestQuickUnsatAllDisjunctsUnsat(t *testing.T) {
	allUnsat := DisjunctiveFormula{Disjuncts: []Formula{FalseConst{}, FalseConst{}}}
	if !QuickUnsat(allUnsat) {
		t.Errorf("QuickUnsat(false or false) = false, want true")
	}
	mixed := DisjunctiveFormula{Disjuncts: []Formula{FalseConst{}, TrueConst{}}}
	if QuickUnsat(mixed) {
		t.Errorf("QuickUnsat(false or true) = true, want false")
	}
}
