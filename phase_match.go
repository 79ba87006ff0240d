package batch

import "strings"

// MatchesSuffix reports whether fileName ends with one of the given
// suffixes, case-insensitively. Phases use this to classify which input
// files participate in their discovery pass.
func MatchesSuffix(fileName string, suffixes []string) bool {
	lower := strings.ToLower(fileName)
	for _, suffix := range suffixes {
		if strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}
