package migrate

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/azdo_scripts/internal/azdo"
)

const (
	// workItemUpdateBatchSizeConstant is the API constraint on bulk operations.
	workItemUpdateBatchSizeConstant = 200

	unfinishedWorkItemsQueryTemplate        = "Select [System.Id] From WorkItems Where [System.IterationPath] = '%s' And [System.State] <> 'Done' And [System.State] <> 'Closed'"
	wiqlLiteralQuoteConstant                = "'"
	wiqlLiteralEscapedQuoteConstant         = "''"
	noUnfinishedWorkItemsTemplateConstant   = "no unfinished work items in sprint %s\n"
	dryRunReportTemplateConstant            = "dry run: %d work items would move from %s to %s\n"
	migrationSummaryTemplateConstant        = "moved %d of %d work items to %s\n"
	workItemUpdateFailedMessageConstant     = "work item update failed"
	iterationsResolvedMessageConstant       = "sprint iterations resolved"
	logFieldWorkItemIdentifierConstant      = "work_item_id"
	logFieldSourceIterationPathConstant     = "source_path"
	logFieldDestinationIterationPath        = "destination_path"
	logFieldBatchIndexConstant              = "batch_index"
	logFieldUnfinishedWorkItemsConstant     = "unfinished_work_items"
	unfinishedWorkItemsFoundMessageConstant = "unfinished work items selected"
)

// WorkItemMigrationClient is the minimal client surface the migration service needs.
type WorkItemMigrationClient interface {
	ListTeamIterations(executionContext context.Context, projectName string) ([]azdo.TeamIteration, error)
	QueryWorkItemIdentifiers(executionContext context.Context, projectName string, wiqlQuery string) ([]int, error)
	UpdateWorkItemIterationPath(executionContext context.Context, workItemIdentifier int, destinationIterationPath string) error
}

// Service coordinates the sprint work item migration.
type Service struct {
	client       WorkItemMigrationClient
	outputWriter io.Writer
	logger       *zap.Logger
}

// NewService constructs a Service using the provided dependencies.
func NewService(client WorkItemMigrationClient, outputWriter io.Writer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:       client,
		outputWriter: outputWriter,
		logger:       logger,
	}
}

// Run executes the linear migration state machine: resolve both sprints,
// select unfinished work items, then move them batch by batch. Individual
// update failures are warned about and skipped; fetch and lookup failures are
// fatal and occur before any mutation.
func (service *Service) Run(executionContext context.Context, options CommandOptions) (MigrationSummary, error) {
	teamIterations, iterationsError := service.client.ListTeamIterations(executionContext, options.ProjectName)
	if iterationsError != nil {
		return MigrationSummary{}, iterationsError
	}

	sourceIteration, sourceFound := findIterationByName(teamIterations, options.SourceSprintName)
	if !sourceFound {
		return MigrationSummary{}, SprintNotFoundError{SprintName: options.SourceSprintName}
	}

	destinationIteration, destinationFound := findIterationByName(teamIterations, options.DestinationSprintName)
	if !destinationFound {
		return MigrationSummary{}, SprintNotFoundError{SprintName: options.DestinationSprintName}
	}

	service.logger.Debug(
		iterationsResolvedMessageConstant,
		zap.String(logFieldSourceIterationPathConstant, sourceIteration.Path),
		zap.String(logFieldDestinationIterationPath, destinationIteration.Path),
	)

	unfinishedQuery := fmt.Sprintf(unfinishedWorkItemsQueryTemplate, escapeWiqlLiteral(sourceIteration.Path))
	workItemIdentifiers, queryError := service.client.QueryWorkItemIdentifiers(executionContext, options.ProjectName, unfinishedQuery)
	if queryError != nil {
		return MigrationSummary{}, queryError
	}

	service.logger.Debug(unfinishedWorkItemsFoundMessageConstant, zap.Int(logFieldUnfinishedWorkItemsConstant, len(workItemIdentifiers)))

	if len(workItemIdentifiers) == 0 {
		fmt.Fprintf(service.outputWriter, noUnfinishedWorkItemsTemplateConstant, options.SourceSprintName)
		return MigrationSummary{}, nil
	}

	if options.DryRun {
		fmt.Fprintf(service.outputWriter, dryRunReportTemplateConstant, len(workItemIdentifiers), sourceIteration.Path, destinationIteration.Path)
		return MigrationSummary{WorkItemsFound: len(workItemIdentifiers)}, nil
	}

	movedWorkItemCount := 0
	for batchIndex, identifierBatch := range partitionIdentifiers(workItemIdentifiers, workItemUpdateBatchSizeConstant) {
		for _, workItemIdentifier := range identifierBatch {
			updateError := service.client.UpdateWorkItemIterationPath(executionContext, workItemIdentifier, destinationIteration.Path)
			if updateError != nil {
				service.logger.Warn(
					workItemUpdateFailedMessageConstant,
					zap.Int(logFieldWorkItemIdentifierConstant, workItemIdentifier),
					zap.Int(logFieldBatchIndexConstant, batchIndex),
					zap.Error(updateError),
				)
				continue
			}
			movedWorkItemCount++
		}
	}

	fmt.Fprintf(service.outputWriter, migrationSummaryTemplateConstant, movedWorkItemCount, len(workItemIdentifiers), destinationIteration.Path)

	summary := MigrationSummary{
		WorkItemsFound: len(workItemIdentifiers),
		WorkItemsMoved: movedWorkItemCount,
	}

	return summary, nil
}

// findIterationByName returns the first iteration whose name exactly equals
// the requested sprint name.
func findIterationByName(teamIterations []azdo.TeamIteration, sprintName string) (azdo.TeamIteration, bool) {
	for _, teamIteration := range teamIterations {
		if teamIteration.Name == sprintName {
			return teamIteration, true
		}
	}
	return azdo.TeamIteration{}, false
}

// partitionIdentifiers splits the identifier list into stable, ordered batches
// of at most batchSize entries.
func partitionIdentifiers(workItemIdentifiers []int, batchSize int) [][]int {
	if batchSize <= 0 || len(workItemIdentifiers) == 0 {
		return nil
	}

	identifierBatches := make([][]int, 0, (len(workItemIdentifiers)+batchSize-1)/batchSize)
	for batchStart := 0; batchStart < len(workItemIdentifiers); batchStart += batchSize {
		batchEnd := batchStart + batchSize
		if batchEnd > len(workItemIdentifiers) {
			batchEnd = len(workItemIdentifiers)
		}
		identifierBatches = append(identifierBatches, workItemIdentifiers[batchStart:batchEnd])
	}

	return identifierBatches
}

// escapeWiqlLiteral doubles single quotes so iteration paths embed safely in
// WIQL string literals.
func escapeWiqlLiteral(literalValue string) string {
	return strings.ReplaceAll(literalValue, wiqlLiteralQuoteConstant, wiqlLiteralEscapedQuoteConstant)
}
