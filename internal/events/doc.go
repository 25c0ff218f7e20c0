// Package events provides an in-process event bus.
//
// Services emit events without knowing which handlers process them. The
// diagnostic controller emits SessionCompleted after a session's final
// transaction commits; the analysis service handles it.
package events
