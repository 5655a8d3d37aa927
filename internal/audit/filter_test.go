package audit_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/azdo_scripts/internal/audit"
)

const (
	filterSubtestNameTemplateConstant = "%d_%s"
)

func TestShouldIncludePipeline(testInstance *testing.T) {
	testCases := []struct {
		name           string
		pipelineName   string
		patternList    []string
		expectIncluded bool
	}{
		{
			name:           "empty_pattern_list_includes_everything",
			pipelineName:   "Nightly Build",
			patternList:    nil,
			expectIncluded: true,
		},
		{
			name:           "exact_match",
			pipelineName:   "Nightly Build",
			patternList:    []string{"Nightly Build"},
			expectIncluded: true,
		},
		{
			name:           "wildcard_prefix_match",
			pipelineName:   "Nightly Build",
			patternList:    []string{"Nightly*"},
			expectIncluded: true,
		},
		{
			name:           "wildcard_suffix_match",
			pipelineName:   "Nightly Build",
			patternList:    []string{"*Build"},
			expectIncluded: true,
		},
		{
			name:           "wildcard_infix_match",
			pipelineName:   "service-release-pipeline",
			patternList:    []string{"service*pipeline"},
			expectIncluded: true,
		},
		{
			name:           "case_insensitive_match",
			pipelineName:   "NIGHTLY build",
			patternList:    []string{"nightly*"},
			expectIncluded: true,
		},
		{
			name:           "single_character_wildcard_match",
			pipelineName:   "build-1",
			patternList:    []string{"build-?"},
			expectIncluded: true,
		},
		{
			name:           "any_pattern_suffices",
			pipelineName:   "Nightly Build",
			patternList:    []string{"release*", "*Build"},
			expectIncluded: true,
		},
		{
			name:           "no_pattern_matches",
			pipelineName:   "Nightly Build",
			patternList:    []string{"release*", "deploy*"},
			expectIncluded: false,
		},
		{
			name:           "wildcard_spans_entire_name",
			pipelineName:   "anything at all",
			patternList:    []string{"*"},
			expectIncluded: true,
		},
		{
			name:           "partial_literal_does_not_match",
			pipelineName:   "Nightly Build",
			patternList:    []string{"Nightly"},
			expectIncluded: false,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(filterSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			included := audit.ShouldIncludePipeline(testCase.pipelineName, testCase.patternList)
			require.Equal(testInstance, testCase.expectIncluded, included)
		})
	}
}
