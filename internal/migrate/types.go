package migrate

import "fmt"

const (
	sprintNotFoundErrorTemplateConstant = "sprint %q not found in the team iteration schedule"
)

// CommandOptions captures the configurable parameters for one migration run.
type CommandOptions struct {
	ProjectName           string
	SourceSprintName      string
	DestinationSprintName string
	DryRun                bool
}

// SprintNotFoundError reports a sprint name absent from the fetched iteration
// schedule. The run aborts before any mutation.
type SprintNotFoundError struct {
	SprintName string
}

// Error names the missing sprint.
func (notFoundError SprintNotFoundError) Error() string {
	return fmt.Sprintf(sprintNotFoundErrorTemplateConstant, notFoundError.SprintName)
}

// MigrationSummary reports the outcome of a migration run.
type MigrationSummary struct {
	WorkItemsFound int
	WorkItemsMoved int
}
