package audit

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/azdo_scripts/internal/azdo"
	"github.com/temirov/azdo_scripts/internal/settings"
)

const (
	commandUseConstant              = "audit"
	commandShortDescriptionConstant = "Report the agent pool configuration of build and release pipelines"
	commandLongDescriptionConstant  = "audit fetches every build and release pipeline definition for the configured project and reports each pipeline's agent pool assignment, flagging pipelines without one. Build pipelines can be narrowed with name patterns."
	organizationFlagNameConstant    = "organization"
	organizationFlagUsageConstant   = "Azure DevOps organization name."
	projectFlagNameConstant         = "project"
	projectFlagUsageConstant        = "Azure DevOps project name."
	patFlagNameConstant             = "pat"
	patFlagUsageConstant            = "Personal access token used for API authentication."
	patternsFlagNameConstant        = "patterns"
	patternsFlagUsageConstant       = "Glob patterns selecting build pipelines by name; an explicitly empty list disables filtering."
	poolsFlagNameConstant           = "pools"
	poolsFlagUsageConstant          = "Also list the organization's agent pools before the pipeline report."
	runFinishedMessageConstant      = "finished"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// FileSettingsProvider supplies the configuration file fields feeding settings resolution.
type FileSettingsProvider func() settings.FileSettings

// ClientFactory builds a pipeline audit client from resolved settings.
type ClientFactory func(resolvedSettings settings.Settings) (PipelineAuditClient, error)

// CommandBuilder assembles the audit cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider       LoggerProvider
	FileSettingsProvider FileSettingsProvider
	ClientFactory        ClientFactory
}

// Build constructs the cobra command for the pipeline audit workflow.
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
	command.Flags().StringSlice(patternsFlagNameConstant, nil, patternsFlagUsageConstant)
	command.Flags().Bool(poolsFlagNameConstant, false, poolsFlagUsageConstant)

	return command, nil
}

// run resolves settings, constructs the client, and executes the audit. The
// trailer prints on every exit path, including configuration failures.
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

	poolsFlagValue, _ := command.Flags().GetBool(poolsFlagNameConstant)

	options := CommandOptions{
		ProjectName:           resolvedSettings.ProjectName,
		BuildPipelinePatterns: resolvedSettings.BuildPipelinePatterns,
		IncludeAgentPools:     poolsFlagValue,
	}

	return service.Run(command.Context(), options)
}

func (builder *CommandBuilder) resolveSettings(command *cobra.Command) (settings.Settings, error) {
	organizationFlagValue, _ := command.Flags().GetString(organizationFlagNameConstant)
	projectFlagValue, _ := command.Flags().GetString(projectFlagNameConstant)
	patFlagValue, _ := command.Flags().GetString(patFlagNameConstant)
	patternsFlagValue, _ := command.Flags().GetStringSlice(patternsFlagNameConstant)

	commandLineValues := settings.CommandLineValues{
		OrganizationName:    organizationFlagValue,
		ProjectName:         projectFlagValue,
		PersonalAccessToken: patFlagValue,
		PatternSelection:    settings.NewPatternSelection(command.Flags().Changed(patternsFlagNameConstant), patternsFlagValue),
	}

	return settings.NewResolver(nil).Resolve(commandLineValues, builder.resolveFileSettings())
}

func (builder *CommandBuilder) resolveFileSettings() settings.FileSettings {
	if builder.FileSettingsProvider == nil {
		return settings.FileSettings{}
	}
	return builder.FileSettingsProvider()
}

func (builder *CommandBuilder) resolveClient(resolvedSettings settings.Settings) (PipelineAuditClient, error) {
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
