// Package cat holds the computerized adaptive testing rules that sit around
// the ability estimator: per-mode session limits, the item selector, and the
// termination evaluator.
package cat
