package settings

import (
	"fmt"
	"strings"
)

const (
	// PersonalAccessTokenEnvironmentVariableName is the lowest-priority source for the access token.
	PersonalAccessTokenEnvironmentVariableName = "AZDO_PAT"

	organizationFieldNameConstant        = "organization name"
	projectFieldNameConstant             = "project name"
	personalAccessTokenFieldNameConstant = "personal access token"

	organizationFlagSourceConstant      = "--organization flag"
	projectFlagSourceConstant           = "--project flag"
	personalAccessTokenFlagSource       = "--pat flag"
	organizationFileSourceConstant      = "configuration file field OrganizationName"
	projectFileSourceConstant           = "configuration file field ProjectName"
	personalAccessTokenFileSource       = "configuration file field Pat"
	personalAccessTokenEnvSourceName    = "environment variable " + PersonalAccessTokenEnvironmentVariableName
	missingSettingErrorTemplateConstant = "%s is not configured (checked %s)"
	checkedSourceSeparatorConstant      = ", "
)

// Settings captures the effective configuration for one run. Values are
// resolved once and never mutated afterwards.
type Settings struct {
	OrganizationName      string
	ProjectName           string
	PersonalAccessToken   string
	BuildPipelinePatterns []string
}

// FileSettings mirrors the recognized configuration file fields.
type FileSettings struct {
	OrganizationName      string   `mapstructure:"OrganizationName"`
	ProjectName           string   `mapstructure:"ProjectName"`
	PersonalAccessToken   string   `mapstructure:"Pat"`
	BuildPipelinePatterns []string `mapstructure:"BuildPipelinePatterns"`
}

// PatternSelectionState enumerates the tri-state outcome of pattern list parsing.
type PatternSelectionState string

// Pattern selection states.
const (
	PatternSelectionUnset           PatternSelectionState = "unset"
	PatternSelectionExplicitlyEmpty PatternSelectionState = "explicitly_empty"
	PatternSelectionProvided        PatternSelectionState = "provided"
)

// PatternSelection records whether the pattern list flag was supplied and the
// sanitized values it carried. An explicitly supplied empty list disables
// filtering and must not fall back to the configuration file list.
type PatternSelection struct {
	State    PatternSelectionState
	Patterns []string
}

// NewPatternSelection derives the tri-state selection from flag supply
// tracking and the raw flag values.
func NewPatternSelection(explicitlySupplied bool, rawPatterns []string) PatternSelection {
	if !explicitlySupplied {
		return PatternSelection{State: PatternSelectionUnset}
	}

	sanitizedPatterns := sanitizeList(rawPatterns)
	if len(sanitizedPatterns) == 0 {
		return PatternSelection{State: PatternSelectionExplicitlyEmpty}
	}

	return PatternSelection{State: PatternSelectionProvided, Patterns: sanitizedPatterns}
}

// CommandLineValues carries the flag values supplied to a command invocation.
type CommandLineValues struct {
	OrganizationName    string
	ProjectName         string
	PersonalAccessToken string
	PatternSelection    PatternSelection
}

// MissingSettingError reports a required setting that no source supplied.
type MissingSettingError struct {
	FieldName      string
	CheckedSources []string
}

// Error names the missing field and every source consulted.
func (missingError MissingSettingError) Error() string {
	return fmt.Sprintf(missingSettingErrorTemplateConstant, missingError.FieldName, strings.Join(missingError.CheckedSources, checkedSourceSeparatorConstant))
}

func sanitizeList(rawValues []string) []string {
	sanitizedValues := make([]string, 0, len(rawValues))
	for index := range rawValues {
		trimmedValue := strings.TrimSpace(rawValues[index])
		if len(trimmedValue) == 0 {
			continue
		}
		sanitizedValues = append(sanitizedValues, trimmedValue)
	}
	return sanitizedValues
}
