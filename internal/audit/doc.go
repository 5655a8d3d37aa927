// Package audit implements the pipeline agent-pool audit command. It fetches
// every build and release pipeline definition for a project, applies the
// configured name patterns to build pipelines, and reports each pipeline's
// agent pool assignment or the absence of one.
package audit
