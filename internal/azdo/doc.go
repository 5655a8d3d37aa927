// Package azdo provides a thin authenticated client for the handful of Azure
// DevOps REST endpoints the azdo_scripts commands consume: build definitions,
// release definitions with expanded environments, team iterations, agent
// pools, WIQL work item queries, and work item field patches. The client is a
// collaborator, not a general-purpose library: there is no retrying, no
// pagination, and no caching.
package azdo
