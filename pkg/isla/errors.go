package isla

import "fmt"

// GrammarError reports an unknown nonterminal reached during expansion
// (§7): a structural error that terminates iteration.
type GrammarError struct {
	Nonterminal string
}

func (e *GrammarError) Error() string {
	return fmt.Sprintf("isla: unknown nonterminal %q", e.Nonterminal)
}

// WellFormednessError reports that a formula failed the normal-form
// invariant pre-pass (§4.1, §7); the caller must not invoke the solver on
// it.
type WellFormednessError struct {
	Reason string
}

func (e *WellFormednessError) Error() string {
	return fmt.Sprintf("isla: constraint is not well-formed: %s", e.Reason)
}

// InvariantError reports a programmer error: an internal invariant was
// violated after the well-formedness pre-pass should have ruled it out
// (§7: "fail fast").
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("isla: internal invariant violated: %s", e.Reason)
}
