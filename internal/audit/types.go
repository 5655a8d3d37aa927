package audit

// CommandOptions captures the configurable parameters for one audit run.
// Settings are resolved before the service starts and are read-only afterwards.
type CommandOptions struct {
	ProjectName           string
	BuildPipelinePatterns []string
	IncludeAgentPools     bool
}
