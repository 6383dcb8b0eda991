// Package api implements the HTTP surface of the analysis queue: candidate
// enqueue and lifecycle operations, job management, and settings. Handlers
// validate input, translate errors to status codes and delegate all queue
// semantics to the queue package.
package api
