package isla

import (
	"fmt"
	"strings"

	diffmatchpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// DiffYields renders a human-readable line/word diff between two trees'
// textual yields (completed trees) or bracketed sketches (partial trees),
// using go-diff's DiffMain. Used by ExplainPreference below, and available
// standalone for any caller comparing two candidate derivations.
func DiffYields(a, b *Tree) string {
	from, to := a.String(), b.String()
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(from, to, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			fmt.Fprintf(&sb, "[+%s]", d.Text)
		case diffmatchpatch.DiffDelete:
			fmt.Fprintf(&sb, "[-%s]", d.Text)
		case diffmatchpatch.DiffEqual:
			sb.WriteString(d.Text)
		}
	}
	return sb.String()
}

// ExplainPreference renders why the priority queue (queue.go) would prefer
// one SolutionState over another under weight vector w: their respective
// costs, the per-signal breakdown, and a yield diff between their trees.
// This is a debugging/reporting aid (§10/§11), never consulted by the
// search loop itself — Cost alone drives ordering.
func ExplainPreference(preferred, other SolutionState, w WeightVector) string {
	pc := Cost(preferred, w)
	oc := Cost(other, w)
	var sb strings.Builder
	fmt.Fprintf(&sb, "preferred cost=%.3f, other cost=%.3f\n", pc, oc)
	fmt.Fprintf(&sb, "tree diff: %s\n", DiffYields(other.Tree, preferred.Tree))
	return sb.String()
}
