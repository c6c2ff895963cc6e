package isla

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SMTExpr is the small expression language used to build the quantifier-
// free string-theory atoms of §4.1/§4.4: string/integer terms and the
// atomic relations built over them (no nested logical connectives inside a
// single atom — conjunction/disjunction/negation of atoms lives one level
// up, in Formula).
type SMTExpr interface {
	isSMTExpr()
	String() string
	// Variables returns the free Variables occurring in this expression.
	Variables() []Variable
}

// SMTVarRef is a reference to a Variable as a string- or integer-valued
// term (depending on the variable's Type()).
type SMTVarRef struct{ V Variable }

func (SMTVarRef) isSMTExpr()       {}
func (e SMTVarRef) String() string { return e.V.Name() }
func (e SMTVarRef) Variables() []Variable { return []Variable{e.V} }

// SMTStringConst is a literal string term.
type SMTStringConst struct{ S string }

func (SMTStringConst) isSMTExpr()         {}
func (e SMTStringConst) String() string   { return fmt.Sprintf("%q", e.S) }
func (e SMTStringConst) Variables() []Variable { return nil }

// SMTTreeRef is a reference to a specific tree position's string value,
// created when quantifier elimination (§4.5, §4.6) substitutes a matched
// or inserted subtree for a variable that previously appeared in an SMT
// atom. If Node is already complete its string value (Node.Yield()) is
// already determined; otherwise it names an as-yet-undetermined value that
// the SMT bridge (smtbridge.go) must treat as a fresh free variable
// constrained by a regex approximation of Node's nonterminal type, to be
// grounded by parsing a model string back into a tree and *replacing* (not
// inserting) the subtree at Path.
type SMTTreeRef struct {
	Path Path
	Node *Tree
}

func (SMTTreeRef) isSMTExpr() {}
func (e SMTTreeRef) String() string {
	if e.Node.IsComplete() {
		return fmt.Sprintf("%q@%s", e.Node.Yield(), e.Path)
	}
	return fmt.Sprintf("?@%s", e.Path)
}
func (e SMTTreeRef) Variables() []Variable { return nil }

// SMTIntConst is a literal integer term.
type SMTIntConst struct{ N int }

func (SMTIntConst) isSMTExpr()         {}
func (e SMTIntConst) String() string   { return fmt.Sprintf("%d", e.N) }
func (e SMTIntConst) Variables() []Variable { return nil }

// SMTApp is an application of a string-theory function or relation symbol
// to arguments: equality, ordering, string concatenation, length, regex
// membership, and int<->string conversion.
type SMTApp struct {
	Op   string
	Args []SMTExpr
}

func (SMTApp) isSMTExpr() {}
func (e SMTApp) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("(%s %s)", e.Op, strings.Join(parts, " "))
}
func (e SMTApp) Variables() []Variable {
	var out []Variable
	for _, a := range e.Args {
		out = append(out, a.Variables()...)
	}
	return out
}

// Relation/function symbols recognized by the reference string solver
// (stringsolver.go). A custom SMTSolver may support a larger vocabulary.
const (
	OpEq      = "="
	OpNotEq   = "!="
	OpLe      = "<="
	OpLt      = "<"
	OpGe      = ">="
	OpGt      = ">"
	OpInRegex = "str.in.re"
	OpConcat  = "str.++"
	OpLen     = "str.len"
	OpToInt   = "str.to.int"
)

// Eq builds `a = b`.
func Eq(a, b SMTExpr) SMTExpr { return SMTApp{Op: OpEq, Args: []SMTExpr{a, b}} }

// NotEq builds `a != b`.
func NotEq(a, b SMTExpr) SMTExpr { return SMTApp{Op: OpNotEq, Args: []SMTExpr{a, b}} }

// Le, Lt, Ge, Gt build numeric comparisons.
func Le(a, b SMTExpr) SMTExpr { return SMTApp{Op: OpLe, Args: []SMTExpr{a, b}} }
func Lt(a, b SMTExpr) SMTExpr { return SMTApp{Op: OpLt, Args: []SMTExpr{a, b}} }
func Ge(a, b SMTExpr) SMTExpr { return SMTApp{Op: OpGe, Args: []SMTExpr{a, b}} }
func Gt(a, b SMTExpr) SMTExpr { return SMTApp{Op: OpGt, Args: []SMTExpr{a, b}} }

// InRegex builds `InRe(v, pattern)`, pattern being a Go regexp (anchored
// full-match semantics).
func InRegex(v SMTExpr, pattern string) SMTExpr {
	return SMTApp{Op: OpInRegex, Args: []SMTExpr{v, SMTStringConst{S: pattern}}}
}

// Concat builds string concatenation of its arguments.
func Concat(args ...SMTExpr) SMTExpr { return SMTApp{Op: OpConcat, Args: args} }

// Len builds the string length of s.
func Len(s SMTExpr) SMTExpr { return SMTApp{Op: OpLen, Args: []SMTExpr{s}} }

// ToInt builds the integer value of string s (in base 10).
func ToInt(s SMTExpr) SMTExpr { return SMTApp{Op: OpToInt, Args: []SMTExpr{s}} }

// ---- SMT backend contract (§6) ----

// SMTStatus is the three-way outcome of one SMT call.
type SMTStatus int

const (
	SMTSat SMTStatus = iota
	SMTUnsat
	SMTUnknown // timeout, per §7
)

// SMTOutcome is the result of one call to SMTSolver.Solve.
type SMTOutcome struct {
	Status SMTStatus
	Model  SMTModel
}

// SMTModel maps each free Variable of a query to its assigned string value
// (numeric variables are represented by their decimal string form).
type SMTModel map[string]string

// SMTSolver is the external SMT backend contract of §6: string sort,
// InRe, boolean combinators (the bridge only ever asks for a single
// conjunction of atoms, so "boolean combinators" reduces to "conjunction of
// atoms" here — see smtbridge.go), string equality, model extraction, and a
// per-call timeout.
type SMTSolver interface {
	// Solve attempts to satisfy the conjunction of atoms within the given
	// timeout, returning one model on SMTSat.
	Solve(ctx context.Context, atoms []SMTExpr, timeout time.Duration) (SMTOutcome, error)
}
