// Package api implements the HTTP surface: request submission, run status
// polling, and queue introspection. Handlers translate between the wire
// format and the domain, and never leak internal error details to clients.
package api
