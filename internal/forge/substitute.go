package forge

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/sirupsen/logrus"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([\w.-]+)\s+(pr|issue)\s*\}\}`)

// Resolver looks up an entity's number by chapter label, returning false if
// no such entity exists in the target repository yet.
type Resolver interface {
	ResolvePRNumber(label string) (int, bool)
	ResolveIssueNumber(label string) (int, bool)
}

// SubstitutePlaceholders rewrites `{{ <label> <kind> }}` placeholders in
// body into `#<number>` references, resolved against resolver. Unresolvable
// placeholders are logged and left untouched. Replacements are applied
// right-to-left so earlier byte offsets in body stay valid as later ones
// are rewritten.
func SubstitutePlaceholders(resolver Resolver, body string) string {
	matches := placeholderPattern.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return body
	}

	result := body
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		start, end := m[0], m[1]
		label := body[m[2]:m[3]]
		kind := body[m[4]:m[5]]

		var number int
		var ok bool
		switch kind {
		case "pr":
			number, ok = resolver.ResolvePRNumber(label)
		case "issue":
			number, ok = resolver.ResolveIssueNumber(label)
		}

		if !ok {
			logrus.WithFields(logrus.Fields{
				"component": "forge",
				"label":     label,
				"kind":      kind,
			}).Warn("unresolved chapter placeholder, leaving untouched")
			continue
		}

		result = result[:start] + "#" + strconv.Itoa(number) + result[end:]
	}
	return result
}

// conflictNotice is appended to a copied pull request's body when the merge
// engine fell back to a reset (StarterReset or SolutionReset).
func conflictNotice(mergeType string) string {
	return fmt.Sprintf("\n\n---\n_This chapter's starter code conflicted with your prior changes; %s was applied instead._", mergeType)
}
