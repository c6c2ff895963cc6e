package isla

import (
	"regexp/syntax"
	"sort"
)

// maxWildcardRepeat bounds how many times a `*`/`+`/bounded-repeat node is
// unrolled during enumeration.
const maxWildcardRepeat = 3

func wildcardAlphabet() []rune {
	return []rune("0123456789abcdefghijklmnopqrstuvwxyz")
}

func expandCharClass(ranges []rune) []rune {
	var out []rune
	for i := 0; i+1 < len(ranges); i += 2 {
		lo, hi := ranges[i], ranges[i+1]
		for r := lo; r <= hi && len(out) < 128; r++ {
			out = append(out, r)
		}
	}
	return out
}

// enumRegexStrings deterministically enumerates up to limit distinct
// strings matched by pattern, each no longer than maxLen runes, in a fixed
// left-to-right, shortest-first order. This is the reference string-theory
// model generator used by the default SMTSolver (stringsolver.go): rather
// than a real SMT decision procedure, it produces candidate assignments by
// walking the regex's syntax tree, an adequate stand-in for the bounded,
// small-alphabet grammars ISLa constraints typically range over.
//
// A `.*`/`.+` wildcard introduced by RegexApprox's cyclic-nonterminal
// fallback is expanded over a small representative alphabet (digits and
// lowercase letters) rather than the full Unicode range, keeping
// enumeration finite and fast; callers needing other alphabets should
// supply a tighter grammar-derived pattern instead of relying on the
// wildcard fallback.
func enumRegexStrings(pattern string, maxLen, limit int) ([]string, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, err
	}
	re = re.Simplify()

	seen := map[string]bool{}
	var out []string

	// emit records a fully-built candidate and reports whether the caller
	// should keep searching for more (false once limit is reached).
	emit := func(s string) bool {
		if len(s) <= maxLen && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
		return len(out) < limit
	}

	// walkOne enumerates completions of node appended to prefix, calling
	// cont on each full string; walkSeq/walkRepeat/walkExactly are its
	// mutually recursive helpers for concatenation and bounded repetition.
	var walkOne func(node *syntax.Regexp, prefix string, cont func(string) bool) bool
	var walkSeq func(nodes []*syntax.Regexp, prefix string, cont func(string) bool) bool
	var walkRepeat func(sub *syntax.Regexp, prefix string, min, max int, cont func(string) bool) bool
	var walkExactly func(sub *syntax.Regexp, prefix string, n int, cont func(string) bool) bool

	walkOne = func(node *syntax.Regexp, prefix string, cont func(string) bool) bool {
		if len(out) >= limit || len(prefix) > maxLen {
			return len(out) < limit
		}
		switch node.Op {
		case syntax.OpEmptyMatch, syntax.OpBeginText, syntax.OpEndText, syntax.OpBeginLine, syntax.OpEndLine:
			return cont(prefix)
		case syntax.OpLiteral:
			s := prefix
			for _, r := range node.Rune {
				s += string(r)
			}
			return cont(s)
		case syntax.OpCharClass:
			for _, r := range expandCharClass(node.Rune) {
				if !cont(prefix + string(r)) {
					return false
				}
			}
			return true
		case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
			for _, r := range wildcardAlphabet() {
				if !cont(prefix + string(r)) {
					return false
				}
			}
			return true
		case syntax.OpCapture:
			return walkOne(node.Sub[0], prefix, cont)
		case syntax.OpConcat:
			return walkSeq(node.Sub, prefix, cont)
		case syntax.OpAlternate:
			for _, sub := range node.Sub {
				if !walkOne(sub, prefix, cont) {
					return false
				}
			}
			return true
		case syntax.OpStar:
			return walkRepeat(node.Sub[0], prefix, 0, maxWildcardRepeat, cont)
		case syntax.OpPlus:
			return walkRepeat(node.Sub[0], prefix, 1, maxWildcardRepeat, cont)
		case syntax.OpQuest:
			if !cont(prefix) {
				return false
			}
			return walkOne(node.Sub[0], prefix, cont)
		case syntax.OpRepeat:
			lo, hi := node.Min, node.Max
			if hi < 0 || hi > maxWildcardRepeat {
				hi = maxWildcardRepeat
			}
			return walkRepeat(node.Sub[0], prefix, lo, hi, cont)
		default:
			// Unsupported node kinds (anchors, word boundaries, etc.) are
			// treated as matching the empty string: a deliberate
			// over-approximation consistent with RegexApprox's own
			// over-approximating contract.
			return cont(prefix)
		}
	}

	walkSeq = func(nodes []*syntax.Regexp, prefix string, cont func(string) bool) bool {
		if len(nodes) == 0 {
			return cont(prefix)
		}
		return walkOne(nodes[0], prefix, func(s string) bool {
			return walkSeq(nodes[1:], s, cont)
		})
	}

	walkRepeat = func(sub *syntax.Regexp, prefix string, min, max int, cont func(string) bool) bool {
		for n := min; n <= max; n++ {
			if !walkExactly(sub, prefix, n, cont) {
				return false
			}
		}
		return true
	}

	walkExactly = func(sub *syntax.Regexp, prefix string, n int, cont func(string) bool) bool {
		if n == 0 {
			return cont(prefix)
		}
		return walkOne(sub, prefix, func(s string) bool {
			return walkExactly(sub, s, n-1, cont)
		})
	}

	walkOne(re, "", emit)

	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		return out[i] < out[j]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
