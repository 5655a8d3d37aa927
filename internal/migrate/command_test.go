package migrate_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/azdo_scripts/internal/migrate"
	"github.com/temirov/azdo_scripts/internal/settings"
)

const (
	testOrganizationFlagConstant      = "--organization=example-organization"
	testProjectFlagConstant           = "--project=example-project"
	testPatFlagConstant               = "--pat=example-token"
	testSourceSprintFlagConstant      = "--from=Sprint1"
	testDestinationSprintFlagConstant = "--to=Sprint2"
	testFinishedTrailerConstant       = "finished\n"
)

func buildMigrateCommandForTest(testInstance *testing.T, builder *migrate.CommandBuilder, arguments []string) (*bytes.Buffer, error) {
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs(arguments)

	return outputBuffer, command.Execute()
}

func TestCommandRequiresSprintFlags(testInstance *testing.T) {
	builder := &migrate.CommandBuilder{
		ClientFactory: func(resolvedSettings settings.Settings) (migrate.WorkItemMigrationClient, error) {
			return &stubMigrationClient{}, nil
		},
	}

	arguments := []string{testOrganizationFlagConstant, testProjectFlagConstant, testPatFlagConstant}
	_, executionError := buildMigrateCommandForTest(testInstance, builder, arguments)
	require.Error(testInstance, executionError)
}

func TestCommandAbortsBeforeAnyNetworkCallWhenSettingsMissing(testInstance *testing.T) {
	clientFactoryCalls := 0
	builder := &migrate.CommandBuilder{
		ClientFactory: func(resolvedSettings settings.Settings) (migrate.WorkItemMigrationClient, error) {
			clientFactoryCalls++
			return &stubMigrationClient{}, nil
		},
	}

	arguments := []string{testSourceSprintFlagConstant, testDestinationSprintFlagConstant}
	outputBuffer, executionError := buildMigrateCommandForTest(testInstance, builder, arguments)
	require.Error(testInstance, executionError)

	var missingSettingError settings.MissingSettingError
	require.ErrorAs(testInstance, executionError, &missingSettingError)
	require.Zero(testInstance, clientFactoryCalls)
	require.Contains(testInstance, outputBuffer.String(), testFinishedTrailerConstant)
}

func TestCommandRunsMigrationWithResolvedSettings(testInstance *testing.T) {
	client := &stubMigrationClient{
		teamIterations:      defaultTeamIterations(),
		workItemIdentifiers: []int{1, 2},
	}
	builder := &migrate.CommandBuilder{
		FileSettingsProvider: func() settings.FileSettings {
			return settings.FileSettings{PersonalAccessToken: "file-token"}
		},
		ClientFactory: func(resolvedSettings settings.Settings) (migrate.WorkItemMigrationClient, error) {
			require.Equal(testInstance, "file-token", resolvedSettings.PersonalAccessToken)
			return client, nil
		},
	}

	arguments := []string{testOrganizationFlagConstant, testProjectFlagConstant, testSourceSprintFlagConstant, testDestinationSprintFlagConstant}
	outputBuffer, executionError := buildMigrateCommandForTest(testInstance, builder, arguments)
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, []int{1, 2}, client.updatedIdentifiers)
	require.Contains(testInstance, outputBuffer.String(), testFinishedTrailerConstant)
}
