// Package domain contains the core entities of adaptive testing and review
// scheduling: items and their calibration, knowledge domains, diagnostic
// sessions and responses, spaced-repetition records and ability snapshots.
// It is independent of any storage or delivery mechanism.
package domain
