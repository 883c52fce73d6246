// Package directory provides the HTTP implementation of the
// domain.DirectoryClient interface.
//
// The directory store holds path-addressed documents scoped per owner
// identity. Reads are unauthenticated and routed to the owner's storage via
// a header; writes and deletes carry the caller's session credential and
// apply only to the caller's own storage; there is no delegated write
// access. A transport 404 is mapped to domain.ErrNotFound so callers can
// tell "does not exist yet" from "request failed".
//
// All requests are JSON-or-bytes over HTTP and accept a context for
// cancellation and deadlines. Non-2xx statuses are returned as errors with
// the HTTP method, path, and status text to aid diagnostics.
package directory
