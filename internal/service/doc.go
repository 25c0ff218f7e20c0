// Package service contains the application use cases. Each subpackage
// orchestrates the pure domain algorithms (internal/domain/...) against the
// persistence interfaces in internal/store:
//
//   - diagnostic: adaptive diagnostic sessions
//   - review: spaced-repetition reviews blended with ability estimates
//   - planning: daily study plans
//   - analysis: ability and domain snapshots written when a session completes
//
// Services receive their dependencies through constructor injection and never
// depend on a specific infrastructure implementation. Unexpected failures are
// wrapped in ServiceError; expected conditions are package sentinel errors.
package service
