package isla

import "fmt"

// NumericType is the distinguished nonterminal type used for numeric
// (ExistsInt/ForallInt) bound variables, which do not range over tree
// positions at all but over integers.
const NumericType = "NUM"

// Variable is a logic variable ranging over derivation subtrees (or, when
// its Type() is NumericType, over integers). There are exactly two
// variants, matching the closed set in §3: Constant (free, user-visible)
// and BoundVariable (bound by a quantifier or bind expression).
type Variable interface {
	// Name returns the variable's display name.
	Name() string
	// Type returns the variable's nonterminal type, or NumericType.
	Type() string
	// IsNumeric reports whether this is a numeric variable.
	IsNumeric() bool
	// Equal reports whether two variables denote the same logic variable.
	Equal(other Variable) bool
	String() string
}

type variableBase struct {
	name  string
	ntype string
}

func (v variableBase) Name() string       { return v.name }
func (v variableBase) Type() string       { return v.ntype }
func (v variableBase) IsNumeric() bool    { return v.ntype == NumericType }
func (v variableBase) String() string     { return v.name }

// Constant is a free, user-visible variable: the subject of a top-level
// `const` declaration, or the implicit `start` constant bound to the whole
// reference tree.
type Constant struct{ variableBase }

// NewConstant creates a free constant of the given nonterminal type.
func NewConstant(name, ntype string) Constant {
	return Constant{variableBase{name: name, ntype: ntype}}
}

// Equal reports whether other is the same Constant (same name and type).
func (c Constant) Equal(other Variable) bool {
	oc, ok := other.(Constant)
	return ok && oc.name == c.name && oc.ntype == c.ntype
}

// BoundVariable is bound by an enclosing quantifier, or by a bind
// expression inside a quantifier's matched subtree.
type BoundVariable struct{ variableBase }

// NewBoundVariable creates a bound variable of the given nonterminal type.
func NewBoundVariable(name, ntype string) BoundVariable {
	return BoundVariable{variableBase{name: name, ntype: ntype}}
}

// Equal reports whether other is the same BoundVariable (same name and
// type). Two BoundVariable values created independently with the same name
// and type are considered the same variable within a single formula: the
// identity that matters is which variable a quantifier or bind expression
// declared, and formulas are built by sharing these values by Go value
// equality, not by allocating fresh unique tokens per occurrence.
func (b BoundVariable) Equal(other Variable) bool {
	ob, ok := other.(BoundVariable)
	return ok && ob.name == b.name && ob.ntype == b.ntype
}

// StartConstant is the conventional name of the constant bound to the
// fully expanded reference tree when evaluating a closed formula.
const StartConstant = "start"

func variableKey(v Variable) string {
	kind := "c"
	if _, ok := v.(BoundVariable); ok {
		kind = "b"
	}
	return fmt.Sprintf("%s:%s:%s", kind, v.Name(), v.Type())
}
