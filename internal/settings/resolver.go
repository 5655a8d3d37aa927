package settings

import (
	"os"
	"strings"
)

// EnvironmentLookup retrieves an environment variable value by name.
type EnvironmentLookup func(variableName string) string

// Resolver layers command-line values, configuration file fields, and
// environment variables into effective settings. Precedence per field, first
// non-empty wins: command-line flag, configuration file field, environment
// variable. The environment applies to the personal access token only.
type Resolver struct {
	environmentLookup EnvironmentLookup
}

// NewResolver constructs a resolver using the provided environment lookup,
// defaulting to the process environment when none is supplied.
func NewResolver(environmentLookup EnvironmentLookup) Resolver {
	if environmentLookup == nil {
		environmentLookup = os.Getenv
	}
	return Resolver{environmentLookup: environmentLookup}
}

// Resolve produces immutable settings or a MissingSettingError naming the
// first required field that no source supplied.
func (resolver Resolver) Resolve(commandLineValues CommandLineValues, fileSettings FileSettings) (Settings, error) {
	organizationName := firstNonEmptyValue(commandLineValues.OrganizationName, fileSettings.OrganizationName)
	if len(organizationName) == 0 {
		return Settings{}, MissingSettingError{
			FieldName:      organizationFieldNameConstant,
			CheckedSources: []string{organizationFlagSourceConstant, organizationFileSourceConstant},
		}
	}

	projectName := firstNonEmptyValue(commandLineValues.ProjectName, fileSettings.ProjectName)
	if len(projectName) == 0 {
		return Settings{}, MissingSettingError{
			FieldName:      projectFieldNameConstant,
			CheckedSources: []string{projectFlagSourceConstant, projectFileSourceConstant},
		}
	}

	personalAccessToken := firstNonEmptyValue(
		commandLineValues.PersonalAccessToken,
		fileSettings.PersonalAccessToken,
		resolver.environmentLookup(PersonalAccessTokenEnvironmentVariableName),
	)
	if len(personalAccessToken) == 0 {
		return Settings{}, MissingSettingError{
			FieldName:      personalAccessTokenFieldNameConstant,
			CheckedSources: []string{personalAccessTokenFlagSource, personalAccessTokenFileSource, personalAccessTokenEnvSourceName},
		}
	}

	resolvedSettings := Settings{
		OrganizationName:      organizationName,
		ProjectName:           projectName,
		PersonalAccessToken:   personalAccessToken,
		BuildPipelinePatterns: resolvePatternList(commandLineValues.PatternSelection, fileSettings.BuildPipelinePatterns),
	}

	return resolvedSettings, nil
}

// resolvePatternList honors the tri-state selection: an explicitly supplied
// list (even an empty one) wins outright; only an unset flag falls back to the
// configuration file list.
func resolvePatternList(patternSelection PatternSelection, filePatterns []string) []string {
	switch patternSelection.State {
	case PatternSelectionProvided:
		return patternSelection.Patterns
	case PatternSelectionExplicitlyEmpty:
		return nil
	default:
		return sanitizeList(filePatterns)
	}
}

func firstNonEmptyValue(candidateValues ...string) string {
	for _, candidateValue := range candidateValues {
		trimmedValue := strings.TrimSpace(candidateValue)
		if len(trimmedValue) > 0 {
			return trimmedValue
		}
	}
	return ""
}
