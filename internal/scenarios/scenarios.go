// Package scenarios builds the grammar+formula pairs that cmd/islac runs,
// so the CLI can drive any of them by name without duplicating their
// grammar and constraint construction. Each scenario is grounded on a worked example in
// SPEC_FULL.md §8/§13.
package scenarios

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gitrdm/gokando-isla/pkg/isla"
)

// Scenario bundles everything a driver needs to run a search: the grammar,
// the starting tree shape (always a fresh open <start> leaf), and the
// constraint itself.
type Scenario struct {
	Name    string
	Grammar isla.Grammar
	Formula isla.Formula
}

// startLeaf returns a fresh open leaf of the given nonterminal, the
// conventional starting point for every scenario here.
func startLeaf(ntype string) *isla.Tree {
	return isla.NewOpenLeaf(isla.NewNonterminalSymbol(ntype))
}

// ByName looks up a scenario by its registered name, for cmd/islac's
// --scenario flag.
func ByName(name string) (Scenario, error) {
	switch name {
	case "assignments":
		return Assignments(), nil
	case "echo":
		return Echo(), nil
	case "tar":
		return Tar(), nil
	case "scriptsizec":
		return ScriptSizeC(), nil
	default:
		return Scenario{}, fmt.Errorf("scenarios: unknown scenario %q (want one of %v)", name, Names())
	}
}

// Names lists every registered scenario name, in the order ByName accepts
// them.
func Names() []string { return []string{"assignments", "echo", "tar", "scriptsizec"} }

// Start returns a fresh open <start> leaf appropriate for s.
func (s Scenario) Start() *isla.Tree { return startLeaf("<start>") }

// ---- scenario 1: def-before-use (SPEC_FULL.md §8 scenario 1) ----

// beforePredicate reports whether its first argument's tree position occurs
// strictly before its second's, by pre-order index — the same structural
// test `tar.py`'s link_constraint and the ISLa paper's own examples use for
// textual ordering.
type beforePredicate struct{}

func (beforePredicate) Name() string { return "before" }
func (beforePredicate) Arity() int   { return 2 }

func (beforePredicate) Eval(ref *isla.Tree, args []isla.ResolvedArg) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("before: want 2 args, got %d", len(args))
	}
	paths := ref.Paths()
	index := func(p isla.Path) int {
		for i, q := range paths {
			if p.Equal(q) {
				return i
			}
		}
		return -1
	}
	ia, ib := index(args[0].Path), index(args[1].Path)
	if ia < 0 || ib < 0 {
		return false, fmt.Errorf("before: argument not found in reference tree")
	}
	return ia < ib, nil
}

// assignmentGrammar is a tiny assignment language:
//
//	<start>  ::= <stmts>
//	<stmts>  ::= <stmt> ";" <stmts> | <stmt>
//	<stmt>   ::= <assign> | <use>
//	<assign> ::= <var> ":=" <digit>
//	<use>    ::= <var>
//	<var>    ::= "a" | "b" | "c"
//	<digit>  ::= "0" | "1"
func assignmentGrammar() isla.Grammar {
	nt := isla.NewNonterminalSymbol
	term := isla.NewTerminalSymbol
	return isla.Grammar{
		"<start>":  {{nt("<stmts>")}},
		"<stmts>":  {{nt("<stmt>"), term(";"), nt("<stmts>")}, {nt("<stmt>")}},
		"<stmt>":   {{nt("<assign>")}, {nt("<use>")}},
		"<assign>": {{nt("<var>"), term(":="), nt("<digit>")}},
		"<use>":    {{nt("<var>")}},
		"<var>":    {{term("a")}, {term("b")}, {term("c")}},
		"<digit>":  {{term("0")}, {term("1")}},
	}
}

// Assignments builds:
//
//	forall u in <use> in start:
//	  exists a in <assign> in start, bound a:=d:
//	    (a = u) and before(a-node, u-node)
func Assignments() Scenario {
	start := isla.NewConstant(isla.StartConstant, "<start>")

	assignVar := isla.NewBoundVariable("av", "<var>")
	digitVar := isla.NewBoundVariable("dv", "<digit>")
	assignBound := isla.NewBoundVariable("a", "<assign>")
	assignBind := isla.NewBindExpression(isla.NewBindHole(assignVar), isla.NewBindLiteral(":="), isla.NewBindHole(digitVar))

	useVar := isla.NewBoundVariable("uv", "<var>")
	useBound := isla.NewBoundVariable("u", "<use>")
	useBind := isla.NewBindExpression(isla.NewBindHole(useVar))

	inner := isla.And(
		isla.SMTFormula{Atom: isla.Eq(isla.SMTVarRef{V: assignVar}, isla.SMTVarRef{V: useVar})},
		isla.StructuralPredicateFormula{
			Predicate: beforePredicate{},
			Args:      []isla.PredicateArg{isla.NewVarArg(assignBound), isla.NewVarArg(useBound)},
		},
	)
	exists := isla.NewExists(assignBound, start, assignBind, inner)

	return Scenario{
		Name:    "assignments",
		Grammar: assignmentGrammar(),
		Formula: isla.NewForall(useBound, start, useBind, exists),
	}
}

// ---- scenario 4: echo/exit, every exit code nonzero (SPEC_FULL.md §8 scenario 4) ----

// echoGrammar is a tiny command language:
//
//	<start> ::= <line>
//	<line>  ::= "echo " <word> | "exit " <code>
//	<word>  ::= <letter> <word> | <letter>
//	<letter> ::= "a" | "b" | "c"
//	<code>  ::= "0" | "1" | "2"
func echoGrammar() isla.Grammar {
	nt := isla.NewNonterminalSymbol
	term := isla.NewTerminalSymbol
	return isla.Grammar{
		"<start>":  {{nt("<line>")}},
		"<line>":   {{term("echo "), nt("<word>")}, {term("exit "), nt("<code>")}},
		"<word>":   {{nt("<letter>"), nt("<word>")}, {nt("<letter>")}},
		"<letter>": {{term("a")}, {term("b")}, {term("c")}},
		"<code>":   {{term("0")}, {term("1")}, {term("2")}},
	}
}

// Echo builds:
//
//	forall c in <code> in start:
//	  exists int n: (n = str.to.int(c)) and (n > 0)
//
// A numeric existential rather than a direct equality check, so the
// witness n is genuinely solved for by the SMT bridge rather than just
// read off the grammar's three-way choice.
func Echo() Scenario {
	start := isla.NewConstant(isla.StartConstant, "<start>")
	codeVar := isla.NewBoundVariable("c", "<code>")
	n := isla.NewBoundVariable("n", isla.NumericType)

	witness := isla.ExistsIntFormula{
		Bound: n,
		Inner: isla.And(
			isla.SMTFormula{Atom: isla.Eq(isla.SMTVarRef{V: n}, isla.ToInt(isla.SMTVarRef{V: codeVar}))},
			isla.SMTFormula{Atom: isla.Gt(isla.SMTVarRef{V: n}, isla.SMTIntConst{N: 0})},
		),
	}

	return Scenario{
		Name:    "echo",
		Grammar: echoGrammar(),
		Formula: isla.NewForall(codeVar, start, nil, witness),
	}
}

// ---- scenario 2: length-bounded tar field (SPEC_FULL.md §8 scenario 2) ----

const (
	tarFieldWidth = 3
	tarFieldFill  = "0"
	tarRangeLow   = 10
	tarRangeHigh  = 100
)

// tarGrammar is tar's octal file_size field, trimmed to the digits alone
// (the real field also carries a trailing NUL; see tar.py's <file_size>):
//
//	<start>        ::= <file_size>
//	<file_size>    ::= <octal_digits> " "
//	<octal_digits> ::= <octal_digit> | <octal_digit> <octal_digits>
//	<octal_digit>  ::= "0" | "1" | ... | "7"
func tarGrammar() isla.Grammar {
	nt := isla.NewNonterminalSymbol
	term := isla.NewTerminalSymbol
	digits := make([]isla.Alternative, 8)
	for i := 0; i < 8; i++ {
		digits[i] = isla.Alternative{term(strconv.Itoa(i))}
	}
	return isla.Grammar{
		"<start>":        {{nt("<file_size>")}},
		"<file_size>":    {{nt("<octal_digits>"), term(" ")}},
		"<octal_digits>": {{nt("<octal_digit>")}, {nt("<octal_digit>"), nt("<octal_digits>")}},
		"<octal_digit>":  digits,
	}
}

// rjustCropOctal is tar.py's rjust_crop_tar, narrowed to the one grammar
// shape this example needs: it right-justifies o's digit string to width
// with fillchar, cropping from the left if o is already longer. Unlike the
// general ljust_crop/rjust_crop pair (which reparse the padded string with
// a full tar parser), this grammar is simple enough that the padded
// <octal_digits> subtree is built directly.
type rjustCropOctal struct{}

func (rjustCropOctal) Name() string    { return "rjust_crop_octal" }
func (rjustCropOctal) Arity() int      { return 3 }
func (rjustCropOctal) BindsTree() bool { return true }

func (rjustCropOctal) Eval(g isla.Grammar, ref *isla.Tree, args []isla.ResolvedArg) (isla.PredicateResult, error) {
	if len(args) != 3 {
		return isla.PredicateResult{}, fmt.Errorf("rjust_crop_octal: want 3 args, got %d", len(args))
	}
	width, ok := args[1].Literal.(int)
	if !ok {
		return isla.PredicateResult{}, fmt.Errorf("rjust_crop_octal: width must be an int literal")
	}
	fill, ok := args[2].Literal.(string)
	if !ok {
		return isla.PredicateResult{}, fmt.Errorf("rjust_crop_octal: fillchar must be a string literal")
	}

	node := ref.Get(args[0].Path)
	if node == nil {
		return isla.PredicateResult{}, fmt.Errorf("rjust_crop_octal: argument path not found in reference tree")
	}
	if !node.IsComplete() {
		return isla.NotReady(), nil
	}

	current := node.Yield()
	if len(current) == width {
		return isla.Ready(true), nil
	}

	padded := current
	if len(padded) < width {
		padded = strings.Repeat(fill, width-len(padded)) + padded
	} else {
		padded = padded[len(padded)-width:]
	}
	replacement := buildOctalDigits(padded)
	return isla.Substitutions(map[*isla.Tree]*isla.Tree{args[0].Subtree: replacement}), nil
}

// buildOctalDigits constructs a complete <octal_digits> subtree for the
// given non-empty digit string, following the grammar's right-recursive
// shape: <octal_digit> <octal_digits> | <octal_digit>.
func buildOctalDigits(digits string) *isla.Tree {
	digitNode := func(d byte) *isla.Tree {
		return isla.NewInner(isla.NewNonterminalSymbol("<octal_digit>"), isla.NewTerminalLeaf(string(d)))
	}
	if len(digits) == 1 {
		return isla.NewInner(isla.NewNonterminalSymbol("<octal_digits>"), digitNode(digits[0]))
	}
	return isla.NewInner(isla.NewNonterminalSymbol("<octal_digits>"),
		digitNode(digits[0]), buildOctalDigits(digits[1:]))
}

// octalToDecimalRange fuses tar.py's octal_to_decimal_tar and the
// surrounding str.to_int range check into one predicate. The original
// threads the converted value through a second variable typed NUM, which
// ISLa's semantic predicates can bind directly as a substitution target;
// this port's SemanticPredicate interface only accepts Var/Literal/Ground
// PredicateArgs (formula.go), and its own numeric existentials
// (ExistsIntFormula) are resolved later by the SMT bridge
// (quantifier.go's EliminateExistsInt), not by predicate substitution — so
// there is no second argument slot for a NUM variable to occupy without
// adding a new PredicateArg kind across the core. Rather than extend core
// solver machinery for the sake of one example, the conversion and the
// range check are computed together, in Go, inside a single
// boolean-valued predicate.
type octalToDecimalRange struct{}

func (octalToDecimalRange) Name() string    { return "octal_to_decimal_range" }
func (octalToDecimalRange) Arity() int      { return 3 }
func (octalToDecimalRange) BindsTree() bool { return false }

func (octalToDecimalRange) Eval(g isla.Grammar, ref *isla.Tree, args []isla.ResolvedArg) (isla.PredicateResult, error) {
	if len(args) != 3 {
		return isla.PredicateResult{}, fmt.Errorf("octal_to_decimal_range: want 3 args, got %d", len(args))
	}
	lo, ok := args[1].Literal.(int)
	if !ok {
		return isla.PredicateResult{}, fmt.Errorf("octal_to_decimal_range: lo must be an int literal")
	}
	hi, ok := args[2].Literal.(int)
	if !ok {
		return isla.PredicateResult{}, fmt.Errorf("octal_to_decimal_range: hi must be an int literal")
	}

	node := ref.Get(args[0].Path)
	if node == nil {
		return isla.PredicateResult{}, fmt.Errorf("octal_to_decimal_range: argument path not found in reference tree")
	}
	if !node.IsComplete() {
		return isla.NotReady(), nil
	}

	decimal, err := strconv.ParseInt(node.Yield(), 8, 64)
	if err != nil {
		return isla.PredicateResult{}, fmt.Errorf("octal_to_decimal_range: %w", err)
	}
	return isla.Ready(decimal >= int64(lo) && decimal <= int64(hi)), nil
}

// Tar builds:
//
//	forall o in <octal_digits> in start:
//	  rjust_crop_octal(o, 3, "0") and octal_to_decimal_range(o, 10, 100)
func Tar() Scenario {
	start := isla.NewConstant(isla.StartConstant, "<start>")
	o := isla.NewBoundVariable("o", "<octal_digits>")

	inner := isla.And(
		isla.SemanticPredicateFormula{
			Predicate: rjustCropOctal{},
			Args: []isla.PredicateArg{
				isla.NewVarArg(o),
				isla.NewLiteralArg(tarFieldWidth),
				isla.NewLiteralArg(tarFieldFill),
			},
		},
		isla.SemanticPredicateFormula{
			Predicate: octalToDecimalRange{},
			Args: []isla.PredicateArg{
				isla.NewVarArg(o),
				isla.NewLiteralArg(tarRangeLow),
				isla.NewLiteralArg(tarRangeHigh),
			},
		},
	)

	return Scenario{
		Name:    "tar",
		Grammar: tarGrammar(),
		Formula: isla.NewForall(o, start, nil, inner),
	}
}

// ---- scoped def-before-use in a tiny-C-like language (SPEC_FULL.md §12/§13 supplemented feature, grounded on scriptsizec.py) ----

// samePosition reports whether a and b address the identical tree node, the
// reflexivity check `scriptsizec.py`'s no-redefinition constraint uses to
// exclude comparing a declaration against itself.
type samePosition struct{}

func (samePosition) Name() string { return "same_position" }
func (samePosition) Arity() int   { return 2 }

func (samePosition) Eval(ref *isla.Tree, args []isla.ResolvedArg) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("same_position: want 2 args, got %d", len(args))
	}
	return args[0].Path.Equal(args[1].Path), nil
}

// declaredInEnclosingBlock reports whether decl is visible at use's
// position under simple lexical block scoping: decl's nearest enclosing
// <block> (or the whole tree, if decl sits at the top level outside any
// block) must also enclose use.
//
// scriptsizec.py expresses the same requirement with a generic
// `level("GE", "<block>", decl, expr)` structural predicate (comparing the
// two positions' <block>-nesting depth), but the predicate's own
// implementation isn't present in this pack's retrieved original_source —
// only the call site and its surrounding comment ("occurs before use_id and
// on the same or a higher <block> level") are. Rather than guess at a
// generic depth-comparison predicate's exact tie-breaking rules, this
// reconstructs the property it exists to check directly: decl is visible at
// use's position iff the nearest <block> containing decl is an ancestor of
// (or identical to the block containing) use — checked with Path.IsPrefixOf
// against the nearest enclosing <block> found by walking decl's path
// upward.
type declaredInEnclosingBlock struct{}

func (declaredInEnclosingBlock) Name() string { return "declared_in_enclosing_block" }
func (declaredInEnclosingBlock) Arity() int   { return 2 }

func (declaredInEnclosingBlock) Eval(ref *isla.Tree, args []isla.ResolvedArg) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("declared_in_enclosing_block: want 2 args, got %d", len(args))
	}
	declPath, usePath := args[0].Path, args[1].Path
	blockPath := nearestBlockAncestor(ref, declPath)
	return blockPath.IsPrefixOf(usePath), nil
}

// nearestBlockAncestor returns the path of the closest strict ancestor of p
// whose symbol is <block>, or the empty path (the tree root) if p has no
// such ancestor.
func nearestBlockAncestor(ref *isla.Tree, p isla.Path) isla.Path {
	for i := len(p) - 1; i >= 0; i-- {
		prefix := p[:i]
		if node := ref.Get(prefix); node != nil && node.Symbol().Name == "<block>" {
			return prefix
		}
	}
	return isla.Path{}
}

// scriptSizeCGrammar is a tiny-C-like statement language, trimmed from
// `scriptsizec.py`'s SCRIPTSIZE_C_GRAMMAR down to blocks, declarations, and
// arithmetic expressions over single-letter identifiers (dropping
// if/while/do loops, which contribute nothing further to the scoping
// constraint below):
//
//	<start>           ::= <statement>
//	<statement>       ::= <block> | <declaration> | <expr> ";"
//	<block>           ::= "{" <statements> "}"
//	<statements>      ::= <block_statement> | <block_statement> <statements>
//	<block_statement> ::= <statement>
//	<declaration>     ::= "int " <id> " = " <expr> ";"
//	<expr>            ::= <id> " = " <expr> | <sum>
//	<sum>             ::= <sum> " + " <term> | <term>
//	<term>            ::= <id> | <int>
//	<id>              ::= "a" | "b" | "c"
//	<int>             ::= "0" | "1" | "2"
func scriptSizeCGrammar() isla.Grammar {
	nt := isla.NewNonterminalSymbol
	term := isla.NewTerminalSymbol
	return isla.Grammar{
		"<start>": {{nt("<statement>")}},
		"<statement>": {{nt("<block>")}, {nt("<declaration>")}, {nt("<expr>"), term(";")}},
		"<block>": {{term("{"), nt("<statements>"), term("}")}},
		"<statements>": {{nt("<block_statement>")}, {nt("<block_statement>"), nt("<statements>")}},
		"<block_statement>": {{nt("<statement>")}},
		"<declaration>": {{term("int "), nt("<id>"), term(" = "), nt("<expr>"), term(";")}},
		"<expr>": {{nt("<id>"), term(" = "), nt("<expr>")}, {nt("<sum>")}},
		"<sum>": {{nt("<sum>"), term(" + "), nt("<term>")}, {nt("<term>")}},
		"<term>": {{nt("<id>")}, {nt("<int>")}},
		"<id>": {{term("a")}, {term("b")}, {term("c")}},
		"<int>": {{term("0")}, {term("1")}, {term("2")}},
	}
}

// declarationBind builds the bind expression shared by both scriptsizec
// constraints: "int {<id> idVar} = {<expr> rhsVar};", capturing the
// declared identifier while leaving the right-hand side unconstrained.
func declarationBind(idVar, rhsVar isla.BoundVariable) *isla.BindExpression {
	return isla.NewBindExpression(
		isla.NewBindLiteral("int "),
		isla.NewBindHole(idVar),
		isla.NewBindLiteral(" = "),
		isla.NewBindHole(rhsVar),
		isla.NewBindLiteral(";"),
	)
}

// ScriptSizeC builds the conjunction of scriptsizec.py's two constraints,
// trimmed to this grammar:
//
//	forall e in <expr> in start:
//	  forall u in <id> in e:
//	    exists d in <declaration> in start, bind "int {<id> def_id} = {<expr> rhs};":
//	      before(d, e) and declared_in_enclosing_block(d, e) and (def_id = u)
//
//	and
//
//	forall d1 in <declaration> in start, bind "int {<id> def_id1} = {<expr> rhs1};":
//	  forall d2 in <declaration> in start, bind "int {<id> def_id2} = {<expr> rhs2};":
//	    same_position(d1, d2) or (not same_position(d1, d2) and def_id1 != def_id2)
func ScriptSizeC() Scenario {
	start := isla.NewConstant(isla.StartConstant, "<start>")

	exprVar := isla.NewBoundVariable("e", "<expr>")
	useVar := isla.NewBoundVariable("u", "<id>")
	declVar := isla.NewBoundVariable("d", "<declaration>")
	defIDVar := isla.NewBoundVariable("def_id", "<id>")
	rhsVar := isla.NewBoundVariable("rhs", "<expr>")

	defUseInner := isla.And(
		isla.StructuralPredicateFormula{
			Predicate: beforePredicate{},
			Args:      []isla.PredicateArg{isla.NewVarArg(declVar), isla.NewVarArg(exprVar)},
		},
		isla.StructuralPredicateFormula{
			Predicate: declaredInEnclosingBlock{},
			Args:      []isla.PredicateArg{isla.NewVarArg(declVar), isla.NewVarArg(exprVar)},
		},
		isla.SMTFormula{Atom: isla.Eq(isla.SMTVarRef{V: defIDVar}, isla.SMTVarRef{V: useVar})},
	)
	defUseExists := isla.NewExists(declVar, start, declarationBind(defIDVar, rhsVar), defUseInner)
	defUse := isla.NewForall(exprVar, start, nil, isla.NewForall(useVar, exprVar, nil, defUseExists))

	decl1 := isla.NewBoundVariable("d1", "<declaration>")
	def1 := isla.NewBoundVariable("def_id1", "<id>")
	rhs1 := isla.NewBoundVariable("rhs1", "<expr>")
	decl2 := isla.NewBoundVariable("d2", "<declaration>")
	def2 := isla.NewBoundVariable("def_id2", "<id>")
	rhs2 := isla.NewBoundVariable("rhs2", "<expr>")

	noRedefInner := isla.Or(
		isla.StructuralPredicateFormula{
			Predicate: samePosition{},
			Args:      []isla.PredicateArg{isla.NewVarArg(decl1), isla.NewVarArg(decl2)},
		},
		isla.And(
			isla.StructuralPredicateFormula{
				Predicate: samePosition{},
				Args:      []isla.PredicateArg{isla.NewVarArg(decl1), isla.NewVarArg(decl2)},
				Negated:   true,
			},
			isla.SMTFormula{Atom: isla.NotEq(isla.SMTVarRef{V: def1}, isla.SMTVarRef{V: def2})},
		),
	)
	noRedef := isla.NewForall(decl1, start, declarationBind(def1, rhs1),
		isla.NewForall(decl2, start, declarationBind(def2, rhs2), noRedefInner))

	return Scenario{
		Name:    "scriptsizec",
		Grammar: scriptSizeCGrammar(),
		Formula: isla.And(defUse, noRedef),
	}
}
