package audit_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/azdo_scripts/internal/audit"
	"github.com/temirov/azdo_scripts/internal/settings"
)

const (
	testOrganizationFlagConstant = "--organization=example-organization"
	testProjectFlagConstant      = "--project=example-project"
	testPatFlagConstant          = "--pat=example-token"
	testEmptyPatternsFlagLiteral = "--patterns="
	testFinishedTrailerConstant  = "finished\n"
)

func buildAuditCommandForTest(testInstance *testing.T, builder *audit.CommandBuilder, arguments []string) (*bytes.Buffer, error) {
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs(arguments)

	return outputBuffer, command.Execute()
}

func TestCommandAbortsBeforeAnyNetworkCallWhenSettingsMissing(testInstance *testing.T) {
	clientFactoryCalls := 0
	builder := &audit.CommandBuilder{
		ClientFactory: func(resolvedSettings settings.Settings) (audit.PipelineAuditClient, error) {
			clientFactoryCalls++
			return &stubAuditClient{}, nil
		},
	}

	outputBuffer, executionError := buildAuditCommandForTest(testInstance, builder, nil)
	require.Error(testInstance, executionError)

	var missingSettingError settings.MissingSettingError
	require.ErrorAs(testInstance, executionError, &missingSettingError)
	require.Zero(testInstance, clientFactoryCalls)
	require.Contains(testInstance, outputBuffer.String(), testFinishedTrailerConstant)
}

func TestCommandPrintsTrailerOnSuccess(testInstance *testing.T) {
	client := &stubAuditClient{}
	builder := &audit.CommandBuilder{
		ClientFactory: func(resolvedSettings settings.Settings) (audit.PipelineAuditClient, error) {
			return client, nil
		},
	}

	arguments := []string{testOrganizationFlagConstant, testProjectFlagConstant, testPatFlagConstant}
	outputBuffer, executionError := buildAuditCommandForTest(testInstance, builder, arguments)
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, outputBuffer.String(), testFinishedTrailerConstant)
	require.Equal(testInstance, 1, client.buildListCalls)
	require.Equal(testInstance, 1, client.releaseListCalls)
}

func TestCommandHonorsExplicitlyEmptyPatternList(testInstance *testing.T) {
	var resolvedPatterns []string
	builder := &audit.CommandBuilder{
		FileSettingsProvider: func() settings.FileSettings {
			return settings.FileSettings{BuildPipelinePatterns: []string{"configured-*"}}
		},
		ClientFactory: func(resolvedSettings settings.Settings) (audit.PipelineAuditClient, error) {
			resolvedPatterns = resolvedSettings.BuildPipelinePatterns
			return &stubAuditClient{}, nil
		},
	}

	arguments := []string{testOrganizationFlagConstant, testProjectFlagConstant, testPatFlagConstant, testEmptyPatternsFlagLiteral}
	_, executionError := buildAuditCommandForTest(testInstance, builder, arguments)
	require.NoError(testInstance, executionError)
	require.Empty(testInstance, resolvedPatterns)
}

func TestCommandFallsBackToConfiguredPatternListWhenFlagUnset(testInstance *testing.T) {
	var resolvedPatterns []string
	builder := &audit.CommandBuilder{
		FileSettingsProvider: func() settings.FileSettings {
			return settings.FileSettings{BuildPipelinePatterns: []string{"configured-*"}}
		},
		ClientFactory: func(resolvedSettings settings.Settings) (audit.PipelineAuditClient, error) {
			resolvedPatterns = resolvedSettings.BuildPipelinePatterns
			return &stubAuditClient{}, nil
		},
	}

	arguments := []string{testOrganizationFlagConstant, testProjectFlagConstant, testPatFlagConstant}
	_, executionError := buildAuditCommandForTest(testInstance, builder, arguments)
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, []string{"configured-*"}, resolvedPatterns)
}
