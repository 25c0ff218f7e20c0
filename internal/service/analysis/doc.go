// Package analysis consumes session.completed events. For each completed
// diagnostic session it stores the user's overall ability, a re-estimated
// ability per domain, and an immutable DomainAnalysis snapshot per domain.
// The daily planner reads the abilities first and falls back to the
// snapshots.
package analysis
