package migrate

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/azdo_scripts/internal/azdo"
	"github.com/temirov/azdo_scripts/internal/settings"
)

const (
	commandUseConstant              = "sprint-migrate"
	commandShortDescriptionConstant = "Move unfinished work items between sprint iterations"
	commandLongDescriptionConstant  = "sprint-migrate looks up the source and destination sprints in the team iteration schedule, selects the source sprint's work items that are neither Done nor Closed, and reassigns their iteration path to the destination sprint in batches."
	organizationFlagNameConstant    = "organization"
	organizationFlagUsageConstant   = "Azure DevOps organization name."
	projectFlagNameConstant         = "project"
	projectFlagUsageConstant        = "Azure DevOps project name."
	patFlagNameConstant             = "pat"
	patFlagUsageConstant            = "Personal access token used for API authentication."
	sourceSprintFlagNameConstant    = "from"
	sourceSprintFlagUsageConstant   = "Name of the sprint to move work items out of."
	destinationSprintFlagName       = "to"
	destinationSprintFlagUsage      = "Name of the sprint to move work items into."
	dryRunFlagNameConstant          = "dry-run"
	dryRunFlagUsageConstant         = "Report what would move without updating any work item."
	runFinishedMessageConstant      = "finished"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// FileSettingsProvider supplies the configuration file fields feeding settings resolution.
type FileSettingsProvider func() settings.FileSettings

// ClientFactory builds a work item migration client from resolved settings.
type ClientFactory func(resolvedSettings settings.Settings) (WorkItemMigrationClient, error)

// CommandBuilder assembles the sprint-migrate cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider       LoggerProvider
	FileSettingsProvider FileSettingsProvider
	ClientFactory        ClientFactory
}

// Build constructs the cobra command for the sprint migration workflow.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(organizationFlagNameConstant, "", organizationFlagUsageConstant)
	command.Flags().String(projectFlagNameConstant, "", projectFlagUsageConstant)
	command.Flags().String(patFlagNameConstant, "", patFlagUsageConstant)
	command.Flags().String(sourceSprintFlagNameConstant, "", sourceSprintFlagUsageConstant)
	command.Flags().String(destinationSprintFlagName, "", destinationSprintFlagUsage)
	command.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagUsageConstant)

	if markError := command.MarkFlagRequired(sourceSprintFlagNameConstant); markError != nil {
		return nil, markError
	}
	if markError := command.MarkFlagRequired(destinationSprintFlagName); markError != nil {
		return nil, markError
	}

	return command, nil
}

// run resolves settings, constructs the client, and executes the migration.
// The trailer prints on every exit path, including configuration failures.
func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	defer fmt.Fprintln(command.OutOrStdout(), runFinishedMessageConstant)

	resolvedSettings, resolutionError := builder.resolveSettings(command)
	if resolutionError != nil {
		return resolutionError
	}

	client, clientError := builder.resolveClient(resolvedSettings)
	if clientError != nil {
		return clientError
	}

	service := NewService(client, command.OutOrStdout(), builder.resolveLogger())

	sourceSprintFlagValue, _ := command.Flags().GetString(sourceSprintFlagNameConstant)
	destinationSprintFlagValue, _ := command.Flags().GetString(destinationSprintFlagName)
	dryRunFlagValue, _ := command.Flags().GetBool(dryRunFlagNameConstant)

	options := CommandOptions{
		ProjectName:           resolvedSettings.ProjectName,
		SourceSprintName:      sourceSprintFlagValue,
		DestinationSprintName: destinationSprintFlagValue,
		DryRun:                dryRunFlagValue,
	}

	_, migrationError := service.Run(command.Context(), options)
	return migrationError
}

func (builder *CommandBuilder) resolveSettings(command *cobra.Command) (settings.Settings, error) {
	organizationFlagValue, _ := command.Flags().GetString(organizationFlagNameConstant)
	projectFlagValue, _ := command.Flags().GetString(projectFlagNameConstant)
	patFlagValue, _ := command.Flags().GetString(patFlagNameConstant)

	commandLineValues := settings.CommandLineValues{
		OrganizationName:    organizationFlagValue,
		ProjectName:         projectFlagValue,
		PersonalAccessToken: patFlagValue,
	}

	return settings.NewResolver(nil).Resolve(commandLineValues, builder.resolveFileSettings())
}

func (builder *CommandBuilder) resolveFileSettings() settings.FileSettings {
	if builder.FileSettingsProvider == nil {
		return settings.FileSettings{}
	}
	return builder.FileSettingsProvider()
}

func (builder *CommandBuilder) resolveClient(resolvedSettings settings.Settings) (WorkItemMigrationClient, error) {
	if builder.ClientFactory != nil {
		return builder.ClientFactory(resolvedSettings)
	}

	client, clientError := azdo.NewClient(azdo.ClientOptions{
		OrganizationName:    resolvedSettings.OrganizationName,
		PersonalAccessToken: resolvedSettings.PersonalAccessToken,
	})
	if clientError != nil {
		return nil, clientError
	}

	return client, nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
