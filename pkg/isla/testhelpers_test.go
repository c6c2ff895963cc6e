package isla

import "fmt"

// nt and term are terse constructors used throughout the tests to build
// grammars the way a caller of this package would: Alternatives of Symbols.
func nt(name string) Symbol  { return NewNonterminalSymbol(name) }
func term(text string) Symbol { return NewTerminalSymbol(text) }

// testBeforePredicate is a minimal StructuralPredicate implementation of
// ISLa's standard `before(n1, n2)` predicate: true when n1's position
// precedes n2's in ref's pre-order node sequence. The real predicate library
// is an external collaborator (§6); this stands in for it in tests exactly
// as a caller's own predicate implementation would.
type testBeforePredicate struct{}

func (testBeforePredicate) Name() string { return "before" }
func (testBeforePredicate) Arity() int    { return 2 }

func (testBeforePredicate) Eval(ref *Tree, args []ResolvedArg) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("before: want 2 args, got %d", len(args))
	}
	index := func(target Path) int {
		for i, p := range ref.Paths() {
			if p.Equal(target) {
				return i
			}
		}
		return -1
	}
	ia, ib := index(args[0].Path), index(args[1].Path)
	if ia < 0 || ib < 0 {
		return false, fmt.Errorf("before: argument position not found in reference tree")
	}
	return ia < ib, nil
}

// assignmentGrammar builds a small "definition before use" language:
//
//	<start>  ::= <stmts>
//	<stmts>  ::= <stmt> ";" <stmts> | <stmt>
//	<stmt>   ::= <assign> | <use>
//	<assign> ::= <var> ":=" <digit>
//	<use>    ::= <var>
//	<var>    ::= "a" | "b" | "c"
//	<digit>  ::= "0" | "1"
func assignmentGrammar() Grammar {
	return Grammar{
		"<start>": {{nt("<stmts>")}},
		"<stmts>": {
			{nt("<stmt>"), term(";"), nt("<stmts>")},
			{nt("<stmt>")},
		},
		"<stmt>": {
			{nt("<assign>")},
			{nt("<use>")},
		},
		"<assign>": {{nt("<var>"), term(":="), nt("<digit>")}},
		"<use>":    {{nt("<var>")}},
		"<var>":    {{term("a")}, {term("b")}, {term("c")}},
		"<digit>":  {{term("0")}, {term("1")}},
	}
}

// defBeforeUseFormula builds: forall u:<use> in start: exists a:<assign> in
// start: before(a, u) and (the <assign>'s <var> text equals u's <var> text).
func defBeforeUseFormula() Formula {
	start := NewConstant(StartConstant, "<start>")

	assignVar := NewBoundVariable("av", "<var>")
	digitVar := NewBoundVariable("dv", "<digit>")
	assignBound := NewBoundVariable("a", "<assign>")
	assignBind := NewBindExpression(NewBindHole(assignVar), NewBindLiteral(":="), NewBindHole(digitVar))

	useVar := NewBoundVariable("uv", "<var>")
	useBound := NewBoundVariable("u", "<use>")
	useBind := NewBindExpression(NewBindHole(useVar))

	inner := And(
		SMTFormula{Atom: Eq(SMTVarRef{V: assignVar}, SMTVarRef{V: useVar})},
		StructuralPredicateFormula{
			Predicate: testBeforePredicate{},
			Args:      []PredicateArg{NewVarArg(assignBound), NewVarArg(useBound)},
		},
	)
	exists := NewExists(assignBound, start, assignBind, inner)
	return NewForall(useBound, start, useBind, exists)
}
