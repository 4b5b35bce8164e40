package typed

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxEditDistance bounds suggestions that are not subsequence matches
const maxEditDistance = 2

// suggest returns a "did you mean" hint for name among candidates, or "" when
// nothing is close enough.
func suggest(name string, candidates []string) string {
	if best, ok := closest(name, candidates); ok {
		return fmt.Sprintf("did you mean `%s`?", best)
	}
	return ""
}

func closest(name string, candidates []string) (string, bool) {
	if name == "" || len(candidates) == 0 {
		return "", false
	}

	// Abbreviations and dropped letters: `prntln` -> `println`
	ranks := fuzzy.RankFindNormalizedFold(name, candidates)
	if len(ranks) > 0 {
		sort.Stable(ranks)
		return ranks[0].Target, true
	}

	// Transpositions and typos: `pritnln` -> `println`
	best, bestDist := "", maxEditDistance+1
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ""
}

// builtinHint lists the valid builtins, leading with the closest match
func builtinHint(name string) string {
	names := BuiltinNames()
	list := "`" + strings.Join(names, "!`, `") + "!`"
	if best, ok := closest(name, names); ok {
		return fmt.Sprintf("did you mean `%s!`? valid builtins are %s", best, list)
	}
	return "valid builtins are " + list
}
