package audit

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/azdo_scripts/internal/azdo"
)

const (
	agentPoolReportTemplateConstant          = "agent pool %s: %d agents\n"
	hostedAgentPoolReportTemplateConstant    = "agent pool %s: %d agents (hosted)\n"
	buildPipelineReportTemplateConstant      = "build pipeline %s: pool %s\n"
	buildPipelineNoPoolTemplateConstant      = "build pipeline %s: no pool configured\n"
	buildPipelineSummaryTemplateConstant     = "matched %d of %d build pipelines\n"
	releaseStageReportTemplateConstant       = "release pipeline %s stage %s: pool %s\n"
	releaseStageNoPoolTemplateConstant       = "release pipeline %s stage %s: no pool configured\n"
	releaseStageNoAgentJobsTemplateConstant  = "release pipeline %s stage %s: no agent-based jobs\n"
	noPatternMatchesWarningMessageConstant   = "no build pipelines matched the configured patterns"
	logFieldPatternListConstant              = "patterns"
	logFieldBuildDefinitionCountConstant     = "build_definitions"
	logFieldReleaseDefinitionCountConstant   = "release_definitions"
	buildDefinitionsFetchedMessageConstant   = "build definitions fetched"
	releaseDefinitionsFetchedMessageConstant = "release definitions fetched"
)

// PipelineAuditClient is the minimal client surface the audit service needs.
type PipelineAuditClient interface {
	ListBuildDefinitions(executionContext context.Context, projectName string) ([]azdo.BuildDefinition, error)
	ListReleaseDefinitions(executionContext context.Context, projectName string) ([]azdo.ReleaseDefinition, error)
	ListAgentPools(executionContext context.Context) ([]azdo.AgentPool, error)
}

// Service coordinates the pipeline agent-pool audit.
type Service struct {
	client       PipelineAuditClient
	outputWriter io.Writer
	logger       *zap.Logger
}

// NewService constructs a Service using the provided dependencies.
func NewService(client PipelineAuditClient, outputWriter io.Writer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:       client,
		outputWriter: outputWriter,
		logger:       logger,
	}
}

// Run audits build pipelines and release pipelines sequentially. The pattern
// filter applies to build pipelines only; release pipelines are always
// reported in full. Any fetch failure is fatal for the run.
func (service *Service) Run(executionContext context.Context, options CommandOptions) error {
	if options.IncludeAgentPools {
		if poolsError := service.reportAgentPools(executionContext); poolsError != nil {
			return poolsError
		}
	}

	if buildAuditError := service.auditBuildPipelines(executionContext, options); buildAuditError != nil {
		return buildAuditError
	}

	return service.auditReleasePipelines(executionContext, options)
}

func (service *Service) reportAgentPools(executionContext context.Context) error {
	agentPools, listError := service.client.ListAgentPools(executionContext)
	if listError != nil {
		return listError
	}

	for _, agentPool := range agentPools {
		reportTemplate := agentPoolReportTemplateConstant
		if agentPool.IsHosted {
			reportTemplate = hostedAgentPoolReportTemplateConstant
		}
		fmt.Fprintf(service.outputWriter, reportTemplate, agentPool.Name, agentPool.Size)
	}

	return nil
}

func (service *Service) auditBuildPipelines(executionContext context.Context, options CommandOptions) error {
	buildDefinitions, listError := service.client.ListBuildDefinitions(executionContext, options.ProjectName)
	if listError != nil {
		return listError
	}

	service.logger.Debug(buildDefinitionsFetchedMessageConstant, zap.Int(logFieldBuildDefinitionCountConstant, len(buildDefinitions)))

	matchedDefinitionCount := 0
	for _, buildDefinition := range buildDefinitions {
		if !ShouldIncludePipeline(buildDefinition.Name, options.BuildPipelinePatterns) {
			continue
		}
		matchedDefinitionCount++

		poolName := buildDefinitionPoolName(buildDefinition)
		if len(poolName) == 0 {
			fmt.Fprintf(service.outputWriter, buildPipelineNoPoolTemplateConstant, buildDefinition.Name)
			continue
		}
		fmt.Fprintf(service.outputWriter, buildPipelineReportTemplateConstant, buildDefinition.Name, poolName)
	}

	fmt.Fprintf(service.outputWriter, buildPipelineSummaryTemplateConstant, matchedDefinitionCount, len(buildDefinitions))

	if matchedDefinitionCount == 0 && len(options.BuildPipelinePatterns) > 0 {
		service.logger.Warn(noPatternMatchesWarningMessageConstant, zap.Strings(logFieldPatternListConstant, options.BuildPipelinePatterns))
	}

	return nil
}

func (service *Service) auditReleasePipelines(executionContext context.Context, options CommandOptions) error {
	releaseDefinitions, listError := service.client.ListReleaseDefinitions(executionContext, options.ProjectName)
	if listError != nil {
		return listError
	}

	service.logger.Debug(releaseDefinitionsFetchedMessageConstant, zap.Int(logFieldReleaseDefinitionCountConstant, len(releaseDefinitions)))

	for _, releaseDefinition := range releaseDefinitions {
		for _, releaseStage := range releaseDefinition.Environments {
			agentPhase, agentPhaseFound := firstAgentBasedPhase(releaseStage)
			if !agentPhaseFound {
				fmt.Fprintf(service.outputWriter, releaseStageNoAgentJobsTemplateConstant, releaseDefinition.Name, releaseStage.Name)
				continue
			}

			poolName := deployPhasePoolName(agentPhase)
			if len(poolName) == 0 {
				fmt.Fprintf(service.outputWriter, releaseStageNoPoolTemplateConstant, releaseDefinition.Name, releaseStage.Name)
				continue
			}
			fmt.Fprintf(service.outputWriter, releaseStageReportTemplateConstant, releaseDefinition.Name, releaseStage.Name, poolName)
		}
	}

	return nil
}

func buildDefinitionPoolName(buildDefinition azdo.BuildDefinition) string {
	if buildDefinition.Queue == nil || buildDefinition.Queue.Pool == nil {
		return ""
	}
	return strings.TrimSpace(buildDefinition.Queue.Pool.Name)
}

func firstAgentBasedPhase(releaseStage azdo.ReleaseEnvironment) (azdo.DeployPhase, bool) {
	for _, deployPhase := range releaseStage.DeployPhases {
		if deployPhase.PhaseType == azdo.DeployPhaseTypeAgentBased {
			return deployPhase, true
		}
	}
	return azdo.DeployPhase{}, false
}

func deployPhasePoolName(deployPhase azdo.DeployPhase) string {
	if deployPhase.DeploymentInput == nil || deployPhase.DeploymentInput.Pool == nil {
		return ""
	}
	return strings.TrimSpace(deployPhase.DeploymentInput.Pool.Name)
}
