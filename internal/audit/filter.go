package audit

import "strings"

const (
	globAnyRunWildcardConstant  = '*'
	globSingleCharacterWildcard = '?'
)

// ShouldIncludePipeline reports whether the pipeline name passes the pattern
// filter. An empty pattern list disables filtering and includes every name;
// otherwise the name is included when it matches any pattern, short-circuiting
// on the first hit.
func ShouldIncludePipeline(pipelineName string, patternList []string) bool {
	if len(patternList) == 0 {
		return true
	}

	loweredPipelineName := strings.ToLower(pipelineName)
	for _, pattern := range patternList {
		if matchGlobPattern(strings.ToLower(pattern), loweredPipelineName) {
			return true
		}
	}

	return false
}

// matchGlobPattern performs shell-style matching where '*' spans any run of
// characters and '?' matches exactly one. Matching is byte-wise over the
// already-lowercased inputs.
func matchGlobPattern(pattern string, candidate string) bool {
	patternIndex, candidateIndex := 0, 0
	starPatternIndex, starCandidateIndex := -1, -1

	for candidateIndex < len(candidate) {
		switch {
		case patternIndex < len(pattern) && (pattern[patternIndex] == globSingleCharacterWildcard || pattern[patternIndex] == candidate[candidateIndex]):
			patternIndex++
			candidateIndex++
		case patternIndex < len(pattern) && pattern[patternIndex] == globAnyRunWildcardConstant:
			starPatternIndex = patternIndex
			starCandidateIndex = candidateIndex
			patternIndex++
		case starPatternIndex >= 0:
			patternIndex = starPatternIndex + 1
			starCandidateIndex++
			candidateIndex = starCandidateIndex
		default:
			return false
		}
	}

	for patternIndex < len(pattern) && pattern[patternIndex] == globAnyRunWildcardConstant {
		patternIndex++
	}

	return patternIndex == len(pattern)
}
