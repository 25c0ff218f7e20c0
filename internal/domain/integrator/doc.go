// Package integrator fuses the SM-2 schedule with IRT ability estimates.
//
// Items the learner is well above are pushed further out, items well above
// the learner are pulled in, and the observed recall quality is corrected
// for item difficulty before SM-2 sees it. The package also scores due
// reviews so the planner can order them. All functions are pure.
package integrator
