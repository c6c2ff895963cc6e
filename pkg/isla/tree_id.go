package isla

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// idMode selects how nextTreeID() allocates identities. The default,
// deterministic counter keeps the solver's output ordering reproducible
// across runs with identical inputs (§5 of the design: "the sequence of
// yielded trees is deterministic given the grammar, the SMT solver's
// determinism, and any configured random-expansion seed"). A UUID-backed
// mode is offered for callers who serialize trees across process
// boundaries and need identities that won't collide with another process's
// counter.
type idMode int32

const (
	idModeCounter idMode = iota
	idModeUUID
)

var (
	currentIDMode  atomic.Int32
	counterIDNext atomic.Int64
	uuidIDMu      sync.Mutex
)

func init() {
	currentIDMode.Store(int32(idModeCounter))
	counterIDNext.Store(1)
}

// SetUUIDNodeIdentities switches new tree node identities to be derived
// from a UUID generator rather than a monotonic counter. This does not
// affect trees already constructed. Intended for embedding trees produced
// by independent solver instances (e.g. across goroutines or processes)
// without fear of ID collision; it trades away the default run's exact
// reproducibility of numeric IDs (the structural/textual outputs are
// unaffected).
func SetUUIDNodeIdentities() { currentIDMode.Store(int32(idModeUUID)) }

// SetCounterNodeIdentities restores the default deterministic counter mode.
func SetCounterNodeIdentities() { currentIDMode.Store(int32(idModeCounter)) }

func nextTreeID() int64 {
	if idMode(currentIDMode.Load()) == idModeUUID {
		return nextUUIDDerivedID()
	}
	return counterIDNext.Add(1) - 1
}

// nextUUIDDerivedID folds a fresh UUID's low 63 bits into a non-negative
// int64 so that Tree.ID() keeps a uniform type across both identity modes.
func nextUUIDDerivedID() int64 {
	uuidIDMu.Lock()
	defer uuidIDMu.Unlock()
	u := uuid.New()
	var v int64
	for _, b := range u[8:] {
		v = (v << 8) | int64(b)
	}
	return v & (1<<63 - 1)
}
