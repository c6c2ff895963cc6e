package isla

import (
	"sync/atomic"
	"time"
)

// SolverTrace is lock-free, opt-in solver instrumentation (§10): every
// record* method is safe to call on a nil *SolverTrace, so instrumentation
// can be wired unconditionally into the dispatch loop without an extra nil
// check at every call site, and every counter is updated atomically so a
// Solver may be driven from more than one goroutine's perspective (e.g. a
// CLI progress reporter polling Snapshot concurrently with the search
// itself).
type SolverTrace struct {
	existentialElims atomic.Int64
	universalMatches atomic.Int64
	smtQueries       atomic.Int64
	smtModels        atomic.Int64
	expansions       atomic.Int64
	freeInstantiated atomic.Int64
	quickUnsatHits   atomic.Int64
	statesDequeued   atomic.Int64
	statesEnqueued   atomic.Int64
	solutionsFound   atomic.Int64
	startTime        time.Time
}

// NewSolverTrace starts a fresh trace, timestamping its own creation so
// TraceSnapshot.Elapsed is meaningful relative to when search began.
func NewSolverTrace() *SolverTrace {
	return &SolverTrace{startTime: time.Now()}
}

func (t *SolverTrace) recordExistentialElim() {
	if t == nil {
		return
	}
	t.existentialElims.Add(1)
}

func (t *SolverTrace) recordUniversalMatch() {
	if t == nil {
		return
	}
	t.universalMatches.Add(1)
}

func (t *SolverTrace) recordSMTQuery() {
	if t == nil {
		return
	}
	t.smtQueries.Add(1)
}

func (t *SolverTrace) recordSMTModels(n int) {
	if t == nil {
		return
	}
	t.smtModels.Add(int64(n))
}

func (t *SolverTrace) recordExpansion() {
	if t == nil {
		return
	}
	t.expansions.Add(1)
}

func (t *SolverTrace) recordFreeInstantiated(n int) {
	if t == nil {
		return
	}
	t.freeInstantiated.Add(int64(n))
}

func (t *SolverTrace) recordQuickUnsat() {
	if t == nil {
		return
	}
	t.quickUnsatHits.Add(1)
}

func (t *SolverTrace) recordDequeue() {
	if t == nil {
		return
	}
	t.statesDequeued.Add(1)
}

func (t *SolverTrace) recordEnqueue(n int) {
	if t == nil {
		return
	}
	t.statesEnqueued.Add(int64(n))
}

func (t *SolverTrace) recordSolution() {
	if t == nil {
		return
	}
	t.solutionsFound.Add(1)
}

// TraceSnapshot is a read of a SolverTrace's counters (§10); each counter
// is loaded atomically on its own, not all of them as one atomic unit.
type TraceSnapshot struct {
	ExistentialEliminations int64
	UniversalMatches        int64
	SMTQueries              int64
	SMTModels               int64
	Expansions              int64
	FreeInstantiations      int64
	QuickUnsatHits          int64
	StatesDequeued          int64
	StatesEnqueued          int64
	SolutionsFound          int64
	Elapsed                 time.Duration
}

// Snapshot reads every counter into a TraceSnapshot. Safe on a nil receiver
// (returns the zero value).
func (t *SolverTrace) Snapshot() TraceSnapshot {
	if t == nil {
		return TraceSnapshot{}
	}
	return TraceSnapshot{
		ExistentialEliminations: t.existentialElims.Load(),
		UniversalMatches:        t.universalMatches.Load(),
		SMTQueries:              t.smtQueries.Load(),
		SMTModels:               t.smtModels.Load(),
		Expansions:              t.expansions.Load(),
		FreeInstantiations:      t.freeInstantiated.Load(),
		QuickUnsatHits:          t.quickUnsatHits.Load(),
		StatesDequeued:          t.statesDequeued.Load(),
		StatesEnqueued:          t.statesEnqueued.Load(),
		SolutionsFound:          t.solutionsFound.Load(),
		Elapsed:                 time.Since(t.startTime),
	}
}
