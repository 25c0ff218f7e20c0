// Package plan builds a learner's daily study plan.
//
// Plans are produced by a chain of strategies ordered from richest to
// poorest input: the adaptive strategy uses live per-domain ability and the
// ranked review queue, the legacy strategy uses stored diagnostic
// snapshots, and the emergency strategy splits time evenly over a fixed set
// of domains. The first strategy that succeeds wins.
package plan
