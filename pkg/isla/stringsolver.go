package isla

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// DefaultSMTSolver is the reference SMTSolver (§6) shipped with this
// package: a bounded, deterministic enumerator over regex-approximated
// candidate strings, not a full decision procedure. It is adequate for the
// bounded, small-alphabet grammars exercised by the package's tests and
// examples; production use is expected to plug in a real string-theory
// solver (e.g. a z3 binding) behind the same SMTSolver interface — nothing
// in smtbridge.go or solver.go depends on this file.
//
// Non-goal (per §1): this is not a complete decision procedure. Exhausting
// its bounded candidate space without a match is reported as SMTUnsat even
// though a satisfying assignment might exist outside the bound; callers
// needing soundness-complete UNSAT should supply their own SMTSolver.
type DefaultSMTSolver struct {
	// MaxCandidateLen bounds the length of enumerated string candidates.
	MaxCandidateLen int
	// MaxCandidatesPerVar bounds how many candidates are enumerated per
	// free variable before giving up.
	MaxCandidatesPerVar int
}

// NewDefaultSMTSolver builds a DefaultSMTSolver with practical bounds.
func NewDefaultSMTSolver() *DefaultSMTSolver {
	return &DefaultSMTSolver{MaxCandidateLen: 12, MaxCandidatesPerVar: 64}
}

// Solve implements SMTSolver.
func (s *DefaultSMTSolver) Solve(ctx context.Context, atoms []SMTExpr, timeout time.Duration) (SMTOutcome, error) {
	deadline := time.Now().Add(timeout)

	varPatterns := map[string][]string{}
	varOrder := []string{}
	registerVar := func(v Variable) {
		k := variableKey(v)
		if _, ok := varPatterns[k]; !ok {
			varPatterns[k] = nil
			varOrder = append(varOrder, k)
		}
	}
	byKey := map[string]Variable{}
	for _, atom := range atoms {
		for _, v := range atom.Variables() {
			registerVar(v)
			byKey[variableKey(v)] = v
		}
		if app, ok := atom.(SMTApp); ok && app.Op == OpInRegex {
			if vref, ok := app.Args[0].(SMTVarRef); ok {
				if pat, ok := app.Args[1].(SMTStringConst); ok {
					k := variableKey(vref.V)
					varPatterns[k] = append(varPatterns[k], pat.S)
				}
			}
		}
	}
	sort.Strings(varOrder)

	candidates := make(map[string][]string, len(varOrder))
	for _, k := range varOrder {
		pats := varPatterns[k]
		pattern := ".*"
		if len(pats) > 0 {
			pattern = pats[0]
		}
		cands, err := enumRegexStrings(pattern, s.effectiveMaxLen(), s.effectiveMaxCandidates())
		if err != nil {
			return SMTOutcome{Status: SMTUnknown}, fmt.Errorf("isla: enumerating candidates for %s: %w", k, err)
		}
		// Intersect against any additional InRegex constraints on the same
		// variable by re-checking membership (cheap, since candidates are
		// already small).
		for _, extra := range pats[1:] {
			re, err := CompileApprox(extra)
			if err != nil {
				continue
			}
			filtered := cands[:0:0]
			for _, c := range cands {
				if re.MatchString(c) {
					filtered = append(filtered, c)
				}
			}
			cands = filtered
		}
		candidates[k] = cands
	}

	assignment := map[string]string{}
	result, found := s.search(ctx, deadline, varOrder, candidates, 0, assignment, atoms)
	if !found {
		if time.Now().After(deadline) || ctx.Err() != nil {
			return SMTOutcome{Status: SMTUnknown}, nil
		}
		return SMTOutcome{Status: SMTUnsat}, nil
	}
	model := make(SMTModel, len(result))
	for k, v := range result {
		model[k] = v
	}
	return SMTOutcome{Status: SMTSat, Model: model}, nil
}

func (s *DefaultSMTSolver) effectiveMaxLen() int {
	if s.MaxCandidateLen > 0 {
		return s.MaxCandidateLen
	}
	return 12
}

func (s *DefaultSMTSolver) effectiveMaxCandidates() int {
	if s.MaxCandidatesPerVar > 0 {
		return s.MaxCandidatesPerVar
	}
	return 64
}

// search performs a bounded depth-first product search over each
// variable's candidate list, checking all atoms once every variable has an
// assignment. Deterministic order (varOrder is sorted, candidates are
// enumerated shortest-first) keeps results reproducible across runs.
func (s *DefaultSMTSolver) search(
	ctx context.Context,
	deadline time.Time,
	varOrder []string,
	candidates map[string][]string,
	idx int,
	assignment map[string]string,
	atoms []SMTExpr,
) (map[string]string, bool) {
	if ctx.Err() != nil || time.Now().After(deadline) {
		return nil, false
	}
	if idx == len(varOrder) {
		if allAtomsHold(assignment, atoms) {
			out := make(map[string]string, len(assignment))
			for k, v := range assignment {
				out[k] = v
			}
			return out, true
		}
		return nil, false
	}
	k := varOrder[idx]
	for _, cand := range candidates[k] {
		assignment[k] = cand
		if result, ok := s.search(ctx, deadline, varOrder, candidates, idx+1, assignment, atoms); ok {
			return result, true
		}
	}
	delete(assignment, k)
	return nil, false
}

func allAtomsHold(assignment map[string]string, atoms []SMTExpr) bool {
	for _, atom := range atoms {
		app, ok := atom.(SMTApp)
		if !ok {
			continue
		}
		if app.Op == OpInRegex {
			continue // already enforced by candidate generation
		}
		ok2, err := evalBoolAtom(assignment, app)
		if err != nil || !ok2 {
			return false
		}
	}
	return true
}

func evalBoolAtom(assignment map[string]string, app SMTApp) (bool, error) {
	switch app.Op {
	case OpEq, OpNotEq, OpLe, OpLt, OpGe, OpGt:
		if len(app.Args) != 2 {
			return false, fmt.Errorf("isla: %s expects 2 args", app.Op)
		}
		lv, lIsInt, err := evalTerm(assignment, app.Args[0])
		if err != nil {
			return false, err
		}
		rv, rIsInt, err := evalTerm(assignment, app.Args[1])
		if err != nil {
			return false, err
		}
		if app.Op == OpEq || app.Op == OpNotEq {
			eq := lv == rv
			if app.Op == OpNotEq {
				eq = !eq
			}
			return eq, nil
		}
		if !lIsInt || !rIsInt {
			li, err1 := strconv.Atoi(lv)
			ri, err2 := strconv.Atoi(rv)
			if err1 != nil || err2 != nil {
				return false, fmt.Errorf("isla: ordering on non-numeric terms %q %q", lv, rv)
			}
			return compareInts(app.Op, li, ri), nil
		}
		li, _ := strconv.Atoi(lv)
		ri, _ := strconv.Atoi(rv)
		return compareInts(app.Op, li, ri), nil
	default:
		return false, fmt.Errorf("isla: unsupported top-level atom operator %q", app.Op)
	}
}

func compareInts(op string, l, r int) bool {
	switch op {
	case OpLe:
		return l <= r
	case OpLt:
		return l < r
	case OpGe:
		return l >= r
	case OpGt:
		return l > r
	}
	return false
}

// evalTerm evaluates a string-theory term to its string value, also
// reporting whether the term is conventionally integer-typed (ToInt, or an
// integer literal).
func evalTerm(assignment map[string]string, e SMTExpr) (string, bool, error) {
	switch t := e.(type) {
	case SMTVarRef:
		v, ok := assignment[variableKey(t.V)]
		if !ok {
			return "", false, fmt.Errorf("isla: unassigned variable %s", t.V.Name())
		}
		return v, t.V.IsNumeric(), nil
	case SMTStringConst:
		return t.S, false, nil
	case SMTIntConst:
		return strconv.Itoa(t.N), true, nil
	case SMTApp:
		switch t.Op {
		case OpConcat:
			var out string
			for _, a := range t.Args {
				v, _, err := evalTerm(assignment, a)
				if err != nil {
					return "", false, err
				}
				out += v
			}
			return out, false, nil
		case OpLen:
			v, _, err := evalTerm(assignment, t.Args[0])
			if err != nil {
				return "", false, err
			}
			return strconv.Itoa(len(v)), true, nil
		case OpToInt:
			v, _, err := evalTerm(assignment, t.Args[0])
			if err != nil {
				return "", false, err
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return "", false, fmt.Errorf("isla: str.to.int on non-numeric %q: %w", v, err)
			}
			return strconv.Itoa(n), true, nil
		}
	}
	return "", false, fmt.Errorf("isla: cannot evaluate term %s as a value", e.String())
}
