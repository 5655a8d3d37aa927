package azdo

// DeployPhaseTypeAgentBased identifies release deploy phases that run on an
// agent pool.
const DeployPhaseTypeAgentBased = "agentBasedDeployment"

// AgentPoolReference names an agent pool attached to a queue or deploy phase.
type AgentPoolReference struct {
	ID       int    `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	IsHosted bool   `json:"isHosted,omitempty"`
}

// AgentPoolQueue is the queue assignment carried by a build definition.
type AgentPoolQueue struct {
	ID   int                 `json:"id,omitempty"`
	Name string              `json:"name,omitempty"`
	Pool *AgentPoolReference `json:"pool,omitempty"`
}

// BuildDefinition is a build pipeline definition as returned by the
// definitions collection endpoint.
type BuildDefinition struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	Queue *AgentPoolQueue `json:"queue,omitempty"`
}

type buildDefinitionListEnvelope struct {
	Count int               `json:"count"`
	Value []BuildDefinition `json:"value"`
}

// DeploymentInput configures an agent-based deploy phase, including its pool
// assignment when one is set.
type DeploymentInput struct {
	Pool *AgentPoolReference `json:"pool,omitempty"`
}

// DeployPhase is a single phase within a release stage.
type DeployPhase struct {
	Name            string           `json:"name,omitempty"`
	PhaseType       string           `json:"phaseType"`
	DeploymentInput *DeploymentInput `json:"deploymentInput,omitempty"`
}

// ReleaseEnvironment is a release pipeline stage with its deploy phases.
type ReleaseEnvironment struct {
	ID           int           `json:"id,omitempty"`
	Name         string        `json:"name"`
	DeployPhases []DeployPhase `json:"deployPhases,omitempty"`
}

// ReleaseDefinition is a release pipeline definition fetched with its
// environments expanded.
type ReleaseDefinition struct {
	ID           int                  `json:"id"`
	Name         string               `json:"name"`
	Environments []ReleaseEnvironment `json:"environments,omitempty"`
}

type releaseDefinitionListEnvelope struct {
	Count int                 `json:"count"`
	Value []ReleaseDefinition `json:"value"`
}

// TeamIteration is a sprint entry in the team's iteration schedule.
type TeamIteration struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Path string `json:"path"`
}

type teamIterationListEnvelope struct {
	Count int             `json:"count"`
	Value []TeamIteration `json:"value"`
}

// AgentPool describes an organization-level agent pool.
type AgentPool struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Size     int    `json:"size"`
	IsHosted bool   `json:"isHosted"`
}

type agentPoolListEnvelope struct {
	Count int         `json:"count"`
	Value []AgentPool `json:"value"`
}

// WorkItemReference identifies a work item returned by a WIQL query.
type WorkItemReference struct {
	ID  int    `json:"id"`
	URL string `json:"url,omitempty"`
}

type wiqlRequest struct {
	Query string `json:"query"`
}

type wiqlResponseEnvelope struct {
	QueryType string              `json:"queryType,omitempty"`
	WorkItems []WorkItemReference `json:"workItems"`
}

type jsonPatchOperation struct {
	Operation string `json:"op"`
	Path      string `json:"path"`
	Value     any    `json:"value"`
}
