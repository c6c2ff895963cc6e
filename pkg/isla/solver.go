package isla

import (
	"context"
	"errors"
	"math/rand"
)

// ErrExhausted is returned by Solver.Next once the search space has been
// fully explored (the queue is empty) without finding another solution —
// the pull-based iterator's analogue of io.EOF.
var ErrExhausted = errors.New("isla: solver exhausted the search space")

// Solver drives the best-first search of §3/§4.3 to completion, one
// solution at a time, pulled by repeated calls to Next. It owns the
// priority queue (queue.go), the grammar, the external collaborators named
// in §6 (SMTSolver, TreeParser), and an optional SolverTrace.
type Solver struct {
	grammar Grammar
	cfg     Config
	smt     SMTSolver
	parser  TreeParser
	trace   *SolverTrace
	rng     *rand.Rand

	queue *StateQueue
}

// NewSolver builds a Solver for the initial constraint f over the partial
// tree start (§3's starting SolutionState), enqueuing it as the search's
// sole starting point. smt and parser supply the external collaborators of
// §6; pass DefaultSMTSolver/ReferenceParser (or your own) as appropriate.
// trace may be nil to disable instrumentation.
func NewSolver(f Formula, start *Tree, g Grammar, cfg Config, smt SMTSolver, parser TreeParser, trace *SolverTrace) *Solver {
	s := &Solver{
		grammar: g,
		cfg:     cfg,
		smt:     smt,
		parser:  parser,
		trace:   trace,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		queue:   NewStateQueue(cfg.WeightVector),
	}
	s.enqueue([]SolutionState{NewSolutionState(Normalize(f), start)})
	return s
}

func (s *Solver) enqueue(states []SolutionState) {
	n := 0
	for _, st := range states {
		if s.queue.Push(st) {
			n++
		}
	}
	s.trace.recordEnqueue(n)
}

// Next advances the search until it produces another complete, constraint-
// satisfying derivation tree, returns ErrExhausted once no further states
// remain, or returns ctx's error if ctx is cancelled mid-search.
func (s *Solver) Next(ctx context.Context) (*Tree, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		state, ok := s.queue.Pop()
		if !ok {
			return nil, ErrExhausted
		}
		s.trace.recordDequeue()

		next, solution, err := s.advance(state)
		if err != nil {
			return nil, err
		}
		if solution != nil {
			s.trace.recordSolution()
			return solution, nil
		}
		s.enqueue(next)
	}
}

// advance implements one step of dispatch (§4.3's Cases A-E) over a single
// disjunct of state.Formula: it normalizes predicates, then classifies the
// residue into exactly one of a handful of cases, in each case returning
// the successor states produced. Returns (nil, tree, nil) when state is
// itself a complete solution.
func (s *Solver) advance(state SolutionState) ([]SolutionState, *Tree, error) {
	// Case: a disjunction splits into independently pursued alternatives,
	// one SolutionState per disjunct, sharing the current tree.
	if d, ok := state.Formula.(DisjunctiveFormula); ok {
		out := make([]SolutionState, len(d.Disjuncts))
		for i, disj := range d.Disjuncts {
			out[i] = state.WithFormula(disj)
		}
		return out, nil, nil
	}

	formula, tree, err := InstantiatePredicates(state.Formula, s.grammar, state.Tree)
	if err != nil {
		return nil, nil, err
	}
	state = state.WithTree(tree).WithFormula(formula)

	// Case A: propositionally unsatisfiable — drop this branch.
	if QuickUnsat(state.Formula) {
		s.trace.recordQuickUnsat()
		return nil, nil, nil
	}
	if _, ok := state.Formula.(FalseConst); ok {
		return nil, nil, nil
	}

	// Case B: the constraint is discharged; yield the tree once it is a
	// complete derivation, otherwise finish it off with free instantiation.
	if _, ok := state.Formula.(TrueConst); ok {
		if state.Tree.IsComplete() {
			return nil, state.Tree, nil
		}
		trees, ferr := FreeInstantiate(state, s.grammar, s.cfg.GrammarFingerprint, s.rng, s.cfg.MaxFreeInstantiations)
		if ferr != nil {
			return nil, nil, ferr
		}
		s.trace.recordFreeInstantiated(len(trees))
		out := make([]SolutionState, len(trees))
		for i, t := range trees {
			out[i] = state.WithTree(t)
		}
		return out, nil, nil
	}

	conjuncts := conjunctsOf(state.Formula)

	// Case C: eliminate the first existential quantifier encountered that
	// can currently make progress (§4.1's fixed conjunct order guarantees
	// existentials are tried before universals). A bind-shaped existential
	// with no matching subtree yet is left in place — see
	// ExistentialCanProgress — so dispatch falls through to ordinary leaf
	// expansion instead of dead-ending before the bind shape has a chance
	// to appear. A numeric existential (exists int) never needs to wait on
	// the tree, so it is always eliminated immediately.
	for i, c := range conjuncts {
		switch cc := c.(type) {
		case ExistsFormula:
			progress, perr := ExistentialCanProgress(state, s.grammar, cc)
			if perr != nil {
				return nil, nil, perr
			}
			if !progress {
				continue
			}
			rest := restConjuncts(conjuncts, i)
			substates, eerr := EliminateExistential(state, s.grammar, cc)
			if eerr != nil {
				return nil, nil, eerr
			}
			s.trace.recordExistentialElim()
			return attachRest(substates, rest), nil, nil
		case ExistsIntFormula:
			rest := restConjuncts(conjuncts, i)
			substates := EliminateExistsInt(state, cc)
			s.trace.recordExistentialElim()
			return attachRest(substates, rest), nil, nil
		}
	}

	// Case D: match (or vacuously drop) the first universal quantifier that
	// can currently make progress. A universal whose bound type hasn't
	// appeared in the tree yet (and isn't vacuously unreachable) is left in
	// place for a later round — see UniversalCanProgress — so dispatch
	// falls through to SMT discharge or leaf expansion instead of
	// dead-ending on a quantifier with nothing to match yet.
	for i, c := range conjuncts {
		if ff, ok := c.(ForallFormula); ok && UniversalCanProgress(state, s.grammar, ff, s.cfg.GrammarFingerprint) {
			rest := restConjuncts(conjuncts, i)
			substates := MatchUniversal(state, s.grammar, ff, s.cfg.GrammarFingerprint)
			s.trace.recordUniversalMatch()
			return attachRest(substates, rest), nil, nil
		}
	}

	// Case E: discharge any remaining SMT atoms.
	if hasSMTAtom(conjuncts) {
		substates, serr := EliminateSMT(state, s.grammar, s.cfg, s.smt, s.parser)
		if serr != nil {
			return nil, nil, serr
		}
		s.trace.recordSMTQuery()
		s.trace.recordSMTModels(len(substates))
		return substates, nil, nil
	}

	// Fallback: the residue is neither a constant nor headed by a case this
	// dispatch understands (typically an ungrounded predicate atom waiting
	// on more tree structure); grow the leftmost open leaf one level and let
	// the next round's InstantiatePredicates re-check it.
	leaf, ok := FirstOpenLeaf(state.Tree)
	if !ok {
		return nil, nil, nil
	}
	substates, xerr := ExpandLeaf(state, s.grammar, leaf)
	if xerr != nil {
		return nil, nil, xerr
	}
	s.trace.recordExpansion()
	return substates, nil, nil
}

// restConjuncts returns every conjunct of conjuncts except the one at skip.
func restConjuncts(conjuncts []Formula, skip int) Formula {
	out := make([]Formula, 0, len(conjuncts)-1)
	for i, c := range conjuncts {
		if i == skip {
			continue
		}
		out = append(out, c)
	}
	return And(out...)
}

// attachRest conjoins rest onto every successor's formula: EliminateExistential
// and MatchUniversal only know about the one quantifier they were given, so
// the remaining conjuncts of the original conjunction must be reattached
// here before the successor is requeued.
func attachRest(states []SolutionState, rest Formula) []SolutionState {
	out := make([]SolutionState, len(states))
	for i, st := range states {
		out[i] = st.WithFormula(And(st.Formula, rest))
	}
	return out
}

func hasSMTAtom(conjuncts []Formula) bool {
	for _, c := range conjuncts {
		if _, ok := c.(SMTFormula); ok {
			return true
		}
	}
	return false
}

// Trace returns the Solver's SolverTrace (nil if instrumentation was
// disabled at construction).
func (s *Solver) Trace() *SolverTrace { return s.trace }
