// Package migrate implements the sprint-migrate command. It resolves the
// source and destination sprints from the team's iteration schedule, selects
// the source sprint's unfinished work items through a WIQL query, and moves
// them to the destination sprint in batches, continuing past individual
// update failures.
package migrate
