package isla

import (
	"fmt"
	"regexp"
	"regexp/syntax"
	"strings"
	"sync"
)

// regexApproxCache is the process-wide, write-once-then-read memoization of
// nonterminal -> approximating regex conversions, keyed by grammar
// fingerprint and nonterminal name (§5: "the regex cache" is read-only
// after construction, guarded by insert-once-then-read memoization).
var regexApproxCache = struct {
	mu sync.Mutex
	m  map[string]string
}{m: map[string]string{}}

// RegexApprox returns R(N), a regular expression over-approximating the
// language L(G, N) generated by nonterminal N in grammar g (§4.4). Cyclic
// productions are approximated by unrolling up to maxRegexDepth and then
// substituting a permissive wildcard (`.*`) for whatever remains
// unexpanded, which keeps the result a true over-approximation (every
// string derivable from N matches R(N), though R(N) may also admit strings
// G cannot derive) — adequate for seeding SMT enumeration candidates and
// for pruning assignments the grammar could never parse back.
func RegexApprox(g Grammar, fingerprint, nonterminal string) string {
	key := fingerprint + "::" + nonterminal
	regexApproxCache.mu.Lock()
	if cached, ok := regexApproxCache.m[key]; ok {
		regexApproxCache.mu.Unlock()
		return cached
	}
	regexApproxCache.mu.Unlock()

	pattern := approxNonterminal(g, nonterminal, maxRegexDepth, map[string]int{})

	regexApproxCache.mu.Lock()
	regexApproxCache.m[key] = pattern
	regexApproxCache.mu.Unlock()
	return pattern
}

// maxRegexDepth bounds the unrolling of recursive nonterminals when
// building a regex over-approximation.
const maxRegexDepth = 4

func approxNonterminal(g Grammar, nt string, depth int, visiting map[string]int) string {
	if depth <= 0 || visiting[nt] > 1 {
		return ".*"
	}
	alts, ok := g.Alternatives(nt)
	if !ok || len(alts) == 0 {
		return ""
	}
	visiting[nt]++
	defer func() { visiting[nt]-- }()

	altPatterns := make([]string, 0, len(alts))
	for _, alt := range alts {
		var b strings.Builder
		for _, sym := range alt {
			if g.IsGrammarNonterminal(sym.Name) {
				b.WriteString(approxNonterminal(g, sym.Name, depth-1, visiting))
			} else {
				b.WriteString(regexp.QuoteMeta(sym.Name))
			}
		}
		altPatterns = append(altPatterns, b.String())
	}
	if len(altPatterns) == 1 {
		return altPatterns[0]
	}
	return "(?:" + strings.Join(altPatterns, "|") + ")"
}

// CompileApprox compiles a full-match anchored regexp from an approximation
// pattern built by RegexApprox.
func CompileApprox(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + pattern + ")$")
}

// validatePattern rejects patterns regexp/syntax cannot parse, used before
// handing a pattern to the bounded enumerator (regex_enum.go).
func validatePattern(pattern string) error {
	_, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return fmt.Errorf("isla: invalid regex approximation %q: %w", pattern, err)
	}
	return nil
}
