// Package settings resolves the effective Azure DevOps connection settings for
// a single run by layering command-line flag values, configuration file
// fields, and environment variables in a fixed precedence order. The pattern
// list field carries explicit-supply tracking so an intentionally empty list
// disables filtering instead of falling back to the configuration file.
package settings
