package isla

import "sync"

// StartSymbol is the conventional grammar start nonterminal.
const StartSymbol = "<start>"

// Grammar is the canonical form described in §6: a mapping from nonterminal
// name to an ordered list of alternatives, each alternative an ordered list
// of symbols (nonterminal or terminal literal). Concrete-syntax BNF loading
// is an external collaborator; this package only consumes the canonical
// map.
type Grammar map[string][]Alternative

// Alternative is one right-hand-side choice for a nonterminal: an ordered
// list of symbols. A terminal symbol in an alternative is recognized by
// IsGrammarNonterminal returning false for its Name.
type Alternative []Symbol

// IsGrammarNonterminal reports whether name is a key of g (i.e. a defined
// nonterminal), independent of any particular Symbol's Kind tag. Grammar
// services use this rather than trusting a Symbol's own Kind, since
// alternatives are built directly from literal Go values by callers.
func (g Grammar) IsGrammarNonterminal(name string) bool {
	_, ok := g[name]
	return ok
}

// Alternatives returns the alternatives for nonterminal name, or (nil,
// false) if name is unknown to the grammar (a Grammar error per §7).
func (g Grammar) Alternatives(name string) ([]Alternative, bool) {
	alts, ok := g[name]
	return alts, ok
}

// reachability is the process-wide, write-once-then-read memoization of a
// grammar's nonterminal reachability graph, keyed by the caller-supplied
// fingerprint string passed to ReachabilityGraph (a Go map value has no
// usable identity to key on). This is an insert-once-then-read cache
// guarded by a mutex rather than relying on implicit mutation.
type reachability struct {
	mu     sync.RWMutex
	direct map[string]map[string]bool // A -> set of nonterminals directly reachable in one step
	trans  map[string]map[string]bool // memoized transitive closure
}

var reachCache = struct {
	mu sync.Mutex
	m  map[string]*reachability
}{m: map[string]*reachability{}}

// ReachabilityGraph returns the (cached) reachability graph for g, computing
// it on first use. fingerprint should uniquely identify g among grammars
// used in a process (callers typically pass the start symbol plus a nonce,
// or simply reuse a single Grammar value and its string identity).
func ReachabilityGraph(g Grammar, fingerprint string) *reachability {
	reachCache.mu.Lock()
	defer reachCache.mu.Unlock()
	if r, ok := reachCache.m[fingerprint]; ok {
		return r
	}
	r := buildReachability(g)
	reachCache.m[fingerprint] = r
	return r
}

func buildReachability(g Grammar) *reachability {
	direct := make(map[string]map[string]bool, len(g))
	for nt, alts := range g {
		set := map[string]bool{}
		for _, alt := range alts {
			for _, sym := range alt {
				if g.IsGrammarNonterminal(sym.Name) {
					set[sym.Name] = true
				}
			}
		}
		direct[nt] = set
	}
	return &reachability{direct: direct, trans: map[string]map[string]bool{}}
}

// Reachable reports whether to is reachable from from via zero or more
// grammar expansion steps (from itself counts as reachable from from).
func (r *reachability) Reachable(from, to string) bool {
	if from == to {
		return true
	}
	r.mu.RLock()
	if closure, ok := r.trans[from]; ok {
		r.mu.RUnlock()
		return closure[to]
	}
	r.mu.RUnlock()

	closure := map[string]bool{}
	visited := map[string]bool{}
	var visit func(nt string)
	visit = func(nt string) {
		if visited[nt] {
			return
		}
		visited[nt] = true
		for next := range r.direct[nt] {
			closure[next] = true
			visit(next)
		}
	}
	visit(from)

	r.mu.Lock()
	r.trans[from] = closure
	r.mu.Unlock()
	return closure[to]
}

// ReachableFromAny reports whether to is reachable from any of froms.
func (r *reachability) ReachableFromAny(froms []string, to string) bool {
	for _, f := range froms {
		if r.Reachable(f, to) {
			return true
		}
	}
	return false
}

// OpenLeafNonterminals returns the distinct nonterminal symbols (not
// variable placeholders) of t's open leaves.
func OpenLeafNonterminals(t *Tree) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range t.OpenLeaves() {
		n := t.Get(p)
		if n.Symbol().Kind == SymbolNonterminal && !seen[n.Symbol().Name] {
			seen[n.Symbol().Name] = true
			out = append(out, n.Symbol().Name)
		}
	}
	return out
}
