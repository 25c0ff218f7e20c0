// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between HTTP clients and
// the diagnostic, review and planning services, translating service errors
// into status codes with sanitized messages.
package api
