// Package embedded provides default assets baked into the rqst binary:
// a post-checkout reminder hook, used when a quest clone carries none of its
// own, and a fallback label palette for packages built from a label-less
// repository.
package embedded

import (
	_ "embed"

	"github.com/repoquest/rqst/internal/entity"
)

// PostCheckoutHook is written to .githooks/post-checkout by
// internal/vcs.InstallHooks when a quest clone has no such file, and
// core.hooksPath is pointed at .githooks. It reminds the learner which
// chapter they just checked out; it never blocks or rewrites the checkout.
//
//go:embed hooks/post-checkout
var PostCheckoutHook []byte

// DefaultLabels is the label set questpkg.Builder.Build stores in a new
// Quest Package when the live remote has no labels beyond the code host's
// defaults. A quest generated directly from an upstream repository copies
// only the upstream's own labels and does not receive these.
func DefaultLabels() []entity.Label {
	return []entity.Label{
		{Name: "quest:reset", Color: "d93f0b", Description: "Filed by rqst to reset quest progress"},
		{Name: "quest:starter", Color: "1d76db", Description: "Starter pull request for a chapter"},
		{Name: "quest:solution", Color: "0e8a16", Description: "Solution pull request for a chapter"},
	}
}
